package tokenizer

import (
	"reflect"
	"testing"
)

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"The Matrix\tA hacker learns", []string{"the", "matrix", "a", "hacker", "learns"}},
		{"  --Foot Barca!! ", []string{"foot", "barca"}},
		{"second second docum", []string{"second", "second", "docum"}},
		{"snake_case and 42", []string{"snake_case", "and", "42"}},
		{"ﬁle ＡＢＣ", []string{"file", "abc"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		got := Words(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Words(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The runners are running to the station")
	want := []Token{
		{Term: "runner", Position: 0},
		{Term: "runn", Position: 1},
		{Term: "stat", Position: 2},
	}
	if !reflect.DeepEqual(tokens, want) {
		t.Errorf("expected %v, got %v", want, tokens)
	}
}

func TestSnowball(t *testing.T) {
	got := Snowball("The runners are running to the station")
	want := []string{"runner", "run", "station"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if analyze, ok := Lookup("snowball"); !ok || !reflect.DeepEqual(analyze("a"), []string{}) {
		t.Error("expected snowball analyzer to drop single-character words")
	}
}

func TestStemmedMatchesTokenize(t *testing.T) {
	text := "Indexing documents quickly"
	terms := Stemmed(text)
	tokens := Tokenize(text)
	if len(terms) != len(tokens) {
		t.Fatalf("expected %d terms, got %d", len(tokens), len(terms))
	}
	for i := range terms {
		if terms[i] != tokens[i].Term {
			t.Errorf("term %d: expected %q, got %q", i, tokens[i].Term, terms[i])
		}
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup("plain"); !ok {
		t.Error("expected plain analyzer")
	}
	if _, ok := Lookup("stemmed"); !ok {
		t.Error("expected stemmed analyzer")
	}
	if _, ok := Lookup("porter"); ok {
		t.Error("expected unknown analyzer to be rejected")
	}
}

func BenchmarkTokenize(b *testing.B) {
	text := "Distributed search engines rely on inverted indexes that map terms to posting lists for fast retrieval"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Tokenize(text)
	}
}
