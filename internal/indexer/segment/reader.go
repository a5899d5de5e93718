package segment

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
)

var (
	// ErrCorrupt is returned for files that are not intact segments.
	ErrCorrupt = errors.New("corrupt segment")
	// ErrSchemeMismatch is returned when a segment was built with another
	// key scheme.
	ErrSchemeMismatch = errors.New("segment key scheme mismatch")
)

type Reader struct {
	file     *os.File
	filePath string
	header   Header
	dict     []DictEntry
}

// OpenReader opens the segment at path, validating its header and the
// dictionary checksum. scheme must match the one it was written with.
func OpenReader(path string, scheme string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	r, err := readSegment(f, path, scheme)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func readSegment(f *os.File, path string, scheme string) (*Reader, error) {
	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("%w: reading header of %s: %v", ErrCorrupt, path, err)
	}
	header := decodeHeader(headerBytes)
	if header.Magic != MagicBytes {
		return nil, fmt.Errorf("%w: bad magic bytes %x in %s", ErrCorrupt, header.Magic, path)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d in %s", ErrCorrupt, header.Version, path)
	}
	if header.Scheme != SchemeID(scheme) {
		return nil, fmt.Errorf("%w: %s was not built for %q", ErrSchemeMismatch, path, scheme)
	}

	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		return nil, fmt.Errorf("%w: reading dictionary: %v", ErrCorrupt, err)
	}
	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, header.DictOffset+header.DictSize); err != nil {
		return nil, fmt.Errorf("%w: reading footer: %v", ErrCorrupt, err)
	}
	if binary.LittleEndian.Uint32(footer[0:4]) != crc32.ChecksumIEEE(dictBytes) {
		return nil, fmt.Errorf("%w: dictionary checksum mismatch in %s", ErrCorrupt, path)
	}

	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		return nil, fmt.Errorf("%w: parsing dictionary: %v", ErrCorrupt, err)
	}
	return &Reader{
		file:     f,
		filePath: path,
		header:   header,
		dict:     dict,
	}, nil
}

// Search reads the postings of term from disk. It returns nil for an
// unknown term.
func (r *Reader) Search(term string) (*index.PostingList, error) {
	i := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= term
	})
	if i >= len(r.dict) || r.dict[i].Term != term {
		return nil, nil
	}
	postings, err := r.readPostings(r.dict[i])
	if err != nil {
		return nil, err
	}
	list := index.NewPostingList()
	for _, p := range postings {
		list.Insert(p.RecordID, p.TermFrequency, p.Score)
	}
	return list, nil
}

// Load reads the whole segment back into an inverted index.
func (r *Reader) Load() (*index.InvertedIndex, error) {
	entries := make([]index.TermEntry, 0, len(r.dict))
	for _, d := range r.dict {
		postings, err := r.readPostings(d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, index.TermEntry{Term: d.Term, Postings: postings})
	}
	idx, err := index.Restore(entries, int(r.header.RecordCount))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return idx, nil
}

func (r *Reader) readPostings(d DictEntry) ([]index.Posting, error) {
	buf := make([]byte, d.PostLen)
	if _, err := r.file.ReadAt(buf, r.header.PostOffset+d.PostOffset); err != nil {
		return nil, fmt.Errorf("reading postings of %q: %w", d.Term, err)
	}
	var postings []index.Posting
	if err := json.Unmarshal(buf, &postings); err != nil {
		return nil, fmt.Errorf("%w: parsing postings of %q: %v", ErrCorrupt, d.Term, err)
	}
	return postings, nil
}

func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) Terms() int {
	return len(r.dict)
}

func (r *Reader) RecordCount() int {
	return int(r.header.RecordCount)
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// Read loads the segment at path into memory.
func Read(path string, scheme string) (*index.InvertedIndex, error) {
	r, err := OpenReader(path, scheme)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Load()
}
