package query

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/editdistance"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/qgram"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/ranker"
)

type place struct {
	id         int
	name       string
	importance int
}

func (p place) RecordID() int   { return p.id }
func (p place) Name() string    { return p.name }
func (p place) Keys() []string  { return []string{p.name} }
func (p place) Size() int       { return len([]rune(qgram.Normalize(p.name))) }
func (p place) Importance() int { return p.importance }

type doc struct {
	id   int
	text string
}

func (d doc) RecordID() int  { return d.id }
func (d doc) Keys() []string { return tokenizer.Words(d.text) }
func (d doc) Size() int      { return len(d.Keys()) }

func places(names ...string) *record.Set {
	set := record.NewSet()
	for i, name := range names {
		set.Add(place{id: i, name: name})
	}
	return set
}

func recordIDs(postings []index.Posting) []int {
	out := make([]int, len(postings))
	for i, p := range postings {
		out[i] = p.RecordID
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFuzzyEndToEnd(t *testing.T) {
	q := NewFuzzy(places("Football", "foobar", "Footsal", "Foot Barca"), qgram.New(3), nil)

	got := q.SearchAnd([]string{"foot"})
	if !equalIDs(recordIDs(got), []int{0, 1, 2, 3}) {
		t.Fatalf("foot: expected records [0 1 2 3], got %v", recordIDs(got))
	}
	wantDistances := []float64{0, 1, 0, 0}
	for i, p := range got {
		if p.Score != wantDistances[i] {
			t.Errorf("foot: record %d has distance %v, want %v", p.RecordID, p.Score, wantDistances[i])
		}
	}

	got = q.SearchAnd([]string{"woob"})
	if len(got) != 1 || got[0].RecordID != 1 || got[0].Score != 1 {
		t.Errorf("woob: expected only foobar at distance 1, got %v", got)
	}
}

func TestFuzzyEmptyToken(t *testing.T) {
	q := NewFuzzy(places("Berlin"), qgram.New(3), nil)
	if l := q.SearchPrefixesFuzzy("--"); !l.IsEmpty() {
		t.Errorf("expected no candidates for a token without word characters, got %v", l)
	}
	if got := q.SearchOr(nil); len(got) != 0 {
		t.Errorf("expected empty result for no tokens, got %v", got)
	}
}

func TestFuzzyModes(t *testing.T) {
	q := NewFuzzy(places("Freiburg", "Frankfurt", "Hamburg"), qgram.New(3), nil)

	and := q.SearchAnd([]string{"frei", "fran"})
	if len(and) != 0 {
		t.Errorf("and: expected no record matching both prefixes, got %v", recordIDs(and))
	}
	or := q.SearchOr([]string{"frei", "fran"})
	if !equalIDs(recordIDs(or), []int{0, 1}) {
		t.Errorf("or: expected [0 1], got %v", recordIDs(or))
	}
}

func TestFuzzyHybridRanking(t *testing.T) {
	set := record.NewSet(
		place{id: 0, name: "Springfield", importance: 2},
		place{id: 1, name: "Sprinfield", importance: 9},
		place{id: 2, name: "Springdale", importance: 5},
		place{id: 3, name: "Springvale", importance: 7},
	)
	q := NewFuzzy(set, qgram.New(3), ranker.NewHybrid())

	got := q.SearchAnd([]string{"springf"})
	// Springfield is the only exact prefix; the rest are one edit away and
	// order by importance.
	if !equalIDs(recordIDs(got), []int{0, 1, 3, 2}) {
		t.Errorf("expected [0 1 3 2], got %v (%v)", recordIDs(got), got)
	}
}

// Every record within tolerance must be found, and nothing else.
func TestFuzzyMatchesBruteForce(t *testing.T) {
	for _, gramSize := range []int{1, 2, 3, 4, 5} {
		t.Run(fmt.Sprintf("q=%d", gramSize), func(t *testing.T) {
			checkFuzzyAgainstBruteForce(t, gramSize)
		})
	}
}

func TestFuzzyLongGramsKeepMatches(t *testing.T) {
	q := NewFuzzy(places("Frankfurt"), qgram.New(5), nil)
	got := q.SearchPrefixesFuzzy("grank").Values()
	if len(got) != 1 || got[0].RecordID != 0 || got[0].Score != 1 {
		t.Errorf("expected Frankfurt at distance 1, got %v", got)
	}
}

func checkFuzzyAgainstBruteForce(t *testing.T, gramSize int) {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	const alphabet = "abcde"
	randomWord := func(n int) string {
		b := make([]byte, n)
		for i := range b {
			b[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(b)
	}

	names := make([]string, 200)
	for i := range names {
		names[i] = randomWord(3 + rng.Intn(10))
	}
	set := places(names...)
	q := NewFuzzy(set, qgram.New(gramSize), nil)

	for i := 0; i < 300; i++ {
		base := names[rng.Intn(len(names))]
		token := []byte(base[:1+rng.Intn(len(base))])
		edits := Tolerance(len(token))
		for e := 0; e < edits; e++ {
			pos := rng.Intn(len(token))
			switch rng.Intn(3) {
			case 0:
				token[pos] = alphabet[rng.Intn(len(alphabet))]
			case 1:
				if len(token) > 1 {
					token = append(token[:pos], token[pos+1:]...)
				}
			default:
				token = append(token[:pos], append([]byte{alphabet[rng.Intn(len(alphabet))]}, token[pos:]...)...)
			}
		}

		delta := Tolerance(len(token))
		var want []int
		for id, name := range names {
			if editdistance.Distance(string(token), name) <= delta {
				want = append(want, id)
			}
		}
		got := recordIDs(q.SearchPrefixesFuzzy(string(token)).Values())
		sort.Ints(got)
		if !equalIDs(got, want) {
			t.Fatalf("token %q (delta %d): got %v, want %v", token, delta, got, want)
		}
	}
}

func keywordCorpus(ranking ranker.Provider) *Keyword {
	set := record.NewSet(
		doc{id: 0, text: "The quick brown fox"},
		doc{id: 1, text: "A quick red fox jumps"},
		doc{id: 2, text: "Brown bears sleep"},
	)
	return NewKeyword(set, ranking)
}

func TestKeywordSearch(t *testing.T) {
	q := keywordCorpus(nil)

	tests := []struct {
		name string
		keys []string
		mode Mode
		want []int
	}{
		{"single key", []string{"fox"}, And, []int{0, 1}},
		{"and", []string{"quick", "brown"}, And, []int{0}},
		{"or", []string{"fox", "bears"}, Or, []int{0, 1, 2}},
		{"and with absent key", []string{"fox", "wolf"}, And, []int{}},
		{"or with absent key", []string{"wolf", "sleep"}, Or, []int{2}},
		{"absent only", []string{"wolf"}, Or, []int{}},
		{"no keys", nil, And, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recordIDs(q.Search(tt.keys, tt.mode))
			if !equalIDs(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeywordResultsAreCopies(t *testing.T) {
	q := keywordCorpus(nil)
	got := q.SearchOr([]string{"fox"})
	got[0].Score = 42
	if p, _ := q.Index().Search("fox").Get(got[0].RecordID); p.Score == 42 {
		t.Error("modifying a result changed the index")
	}
}

func TestKeywordBM25Ranking(t *testing.T) {
	q := keywordCorpus(ranker.NewBM25())

	// "brown" appears in a 4-word and a 3-word record; the shorter ranks first.
	got := q.SearchOr([]string{"brown"})
	if !equalIDs(recordIDs(got), []int{2, 0}) {
		t.Fatalf("expected [2 0], got %v", recordIDs(got))
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("expected descending scores, got %v", got)
	}

	// Multi-key results carry the summed score of every key.
	both := q.SearchAnd([]string{"quick", "fox"})
	var sum float64
	for _, key := range []string{"quick", "fox"} {
		p, _ := q.Index().Search(key).Get(0)
		sum += p.Score
	}
	for _, p := range both {
		if p.RecordID == 0 && p.Score != sum {
			t.Errorf("expected summed score %v for record 0, got %v", sum, p.Score)
		}
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"and": And, "OR": Or, "And": And} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("xor"); err == nil {
		t.Error("expected error for xor")
	}
	if !strings.EqualFold(Or.String(), "or") {
		t.Errorf("unexpected Or string %q", Or.String())
	}
}

func BenchmarkFuzzySearch(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	names := make([]string, 5000)
	for i := range names {
		w := make([]byte, 5+rng.Intn(8))
		for j := range w {
			w[j] = byte('a' + rng.Intn(26))
		}
		names[i] = string(w)
	}
	q := NewFuzzy(places(names...), qgram.New(3), ranker.NewHybrid())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.SearchOr([]string{names[i%len(names)][:5]})
	}
}
