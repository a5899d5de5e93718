package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/errors"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		name, description string
		want              []string
	}{
		{"The Matrix", "A hacker learns the truth.", []string{"the", "matrix", "a", "hacker", "learns", "the", "truth"}},
		{"Alien", "", []string{"alien"}},
		{"Se7en", "two detectives, one killer", []string{"se7en", "two", "detectives", "one", "killer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(0, tt.name, tt.description, nil)
			if strings.Join(d.Keys(), " ") != strings.Join(tt.want, " ") {
				t.Errorf("expected %v, got %v", tt.want, d.Keys())
			}
			if d.Size() != len(tt.want) {
				t.Errorf("expected size %d, got %d", len(tt.want), d.Size())
			}
		})
	}
}

func TestStemmedAnalyzer(t *testing.T) {
	d := New(0, "Running", "", tokenizer.Stemmed)
	if len(d.Keys()) != 1 || d.Keys()[0] == "running" {
		t.Errorf("expected running to be stemmed, got %v", d.Keys())
	}
}

func TestParse(t *testing.T) {
	input := "Heat\tA group of robbers\n\nRan\r\nUp\tAn old man flies\n"
	docs, err := Parse(strings.NewReader(input), "movies.tsv", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs.Len() != 3 {
		t.Fatalf("expected 3 documents, got %d", docs.Len())
	}
	want := []string{"Heat", "Ran", "Up"}
	for id, name := range want {
		r, ok := docs.Get(id)
		if !ok || r.(*Document).Name() != name {
			t.Errorf("expected %s under id %d, got %v", name, id, r)
		}
	}
	if r, _ := docs.Get(1); r.(*Document).Description() != "" {
		t.Errorf("expected empty description for a bare name")
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"a\tb\tc\n", "\tdescription only\n"} {
		_, err := Parse(strings.NewReader(input), "movies.tsv", nil)
		if !errors.Is(err, apperrors.ErrMalformedRecord) {
			t.Errorf("input %q: expected ErrMalformedRecord, got %v", input, err)
		}
	}
}
