// Package segment persists an inverted index to a single file so a service
// can restart without rebuilding it. A segment is a 64-byte header, the JSON
// postings of every key back to back, a JSON dictionary sorted by key and a
// 32-byte footer carrying a CRC32 of the dictionary.
package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
)

// MagicBytes identifies a valid segment file.
const (
	MagicBytes    uint32 = 0x4C585347
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 32
)

// Header is the 64-byte header written at the start of every segment.
// Scheme fingerprints how the keys were produced so a reader can refuse a
// segment built with a different tokenizer setting.
type Header struct {
	Magic       uint32
	Version     uint32
	TermCount   uint32
	RecordCount uint32
	CreatedAt   int64
	DictOffset  int64
	DictSize    int64
	PostOffset  int64
	PostSize    int64
	Scheme      uint32
}

// DictEntry maps a term to its postings offset, length, and document frequency
// in the segment file.
type DictEntry struct {
	Term       string `json:"t"`
	PostOffset int64  `json:"o"`
	PostLen    int    `json:"l"`
	DocFreq    int    `json:"d"`
}

// SchemeID fingerprints a key scheme description such as "qgram q=3 pad=$".
func SchemeID(scheme string) uint32 {
	return crc32.ChecksumIEEE([]byte(scheme))
}

// Write atomically replaces path with a segment holding idx. It writes to a
// .tmp file first and renames on success.
func Write(path string, idx *index.InvertedIndex, scheme string) error {
	entries := idx.Entries()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp segment file: %w", err)
	}
	defer os.Remove(tmpPath)
	defer f.Close()

	header := Header{
		Magic:       MagicBytes,
		Version:     FormatVersion,
		TermCount:   uint32(len(entries)),
		RecordCount: uint32(idx.RecordCount()),
		CreatedAt:   time.Now().Unix(),
		Scheme:      SchemeID(scheme),
	}
	if _, err := f.Write(make([]byte, HeaderSize)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	header.PostOffset = int64(HeaderSize)
	offset := int64(0)
	dict := make([]DictEntry, 0, len(entries))
	for _, entry := range entries {
		postingsData, err := json.Marshal(entry.Postings)
		if err != nil {
			return fmt.Errorf("marshaling postings for term %q: %w", entry.Term, err)
		}
		if _, err := f.Write(postingsData); err != nil {
			return fmt.Errorf("writing postings for term %q: %w", entry.Term, err)
		}
		dict = append(dict, DictEntry{
			Term:       entry.Term,
			PostOffset: offset,
			PostLen:    len(postingsData),
			DocFreq:    len(entry.Postings),
		})
		offset += int64(len(postingsData))
	}
	header.PostSize = offset

	dictData, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := f.Write(dictData); err != nil {
		return fmt.Errorf("writing dictionary: %w", err)
	}
	header.DictOffset = header.PostOffset + header.PostSize
	header.DictSize = int64(len(dictData))

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(dictData))
	binary.LittleEndian.PutUint32(footer[4:8], header.RecordCount)
	binary.LittleEndian.PutUint64(footer[8:16], uint64(header.DictOffset))
	binary.LittleEndian.PutUint64(footer[16:24], uint64(header.DictSize))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(header.PostSize))
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}

	if _, err := f.WriteAt(encodeHeader(header), 0); err != nil {
		return fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing segment file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing segment file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming segment file: %w", err)
	}
	return nil
}

func encodeHeader(h Header) []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.TermCount)
	binary.LittleEndian.PutUint32(b[12:16], h.RecordCount)
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.DictOffset))
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.DictSize))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.PostOffset))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.PostSize))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint32(b[56:60], h.Scheme)
	return b
}

func decodeHeader(b []byte) Header {
	return Header{
		Magic:       binary.LittleEndian.Uint32(b[0:4]),
		Version:     binary.LittleEndian.Uint32(b[4:8]),
		TermCount:   binary.LittleEndian.Uint32(b[8:12]),
		RecordCount: binary.LittleEndian.Uint32(b[12:16]),
		DictOffset:  int64(binary.LittleEndian.Uint64(b[16:24])),
		DictSize:    int64(binary.LittleEndian.Uint64(b[24:32])),
		PostOffset:  int64(binary.LittleEndian.Uint64(b[32:40])),
		PostSize:    int64(binary.LittleEndian.Uint64(b[40:48])),
		CreatedAt:   int64(binary.LittleEndian.Uint64(b[48:56])),
		Scheme:      binary.LittleEndian.Uint32(b[56:60]),
	}
}
