// Package document models titled text documents for keyword search.
package document

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/errors"
)

// Document is a named text. Its keys are the words of name and description,
// produced once by the analyzer it was created with.
type Document struct {
	id          int
	name        string
	description string
	keys        []string
}

// New creates a document. A nil analyzer uses tokenizer.Words.
func New(id int, name, description string, analyze tokenizer.Analyzer) *Document {
	if analyze == nil {
		analyze = tokenizer.Words
	}
	return &Document{
		id:          id,
		name:        name,
		description: description,
		keys:        analyze(name + "\t" + description),
	}
}

func (d *Document) RecordID() int { return d.id }

func (d *Document) Name() string { return d.name }

func (d *Document) Description() string { return d.description }

// Keys returns the indexed words. The slice must not be modified.
func (d *Document) Keys() []string { return d.keys }

func (d *Document) Size() int { return len(d.keys) }

func (d *Document) Attributes() map[string]any {
	return map[string]any{"description": d.description}
}

// Parse reads one document per line, either "name<TAB>description" or a bare
// name. Ids are assigned in line order starting at 0 and blank lines are
// skipped without consuming an id.
func Parse(r io.Reader, source string, analyze tokenizer.Analyzer) (*record.Set, error) {
	docs := record.NewSet()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		name, description, _ := strings.Cut(text, "\t")
		if strings.Contains(description, "\t") {
			return nil, apperrors.Malformed(source, line, "expected at most 2 tab-separated fields")
		}
		if strings.TrimSpace(name) == "" {
			return nil, apperrors.Malformed(source, line, "empty name")
		}
		docs.Add(New(docs.Len(), name, description, analyze))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return docs, nil
}

// LoadFile parses the documents file at path.
func LoadFile(path string, analyze tokenizer.Analyzer) (*record.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening documents file: %w", err)
	}
	defer f.Close()
	return Parse(f, path, analyze)
}
