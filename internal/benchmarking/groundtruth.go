// Package benchmarking measures retrieval quality against a ground truth of
// known relevant records per query.
package benchmarking

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/errors"
)

// GroundTruth maps a query, given as its keys, to the ids of the records
// relevant to it. Queries iterate in the order they were first added.
type GroundTruth struct {
	queries  [][]string
	relevant map[string]map[int]struct{}
}

func NewGroundTruth() *GroundTruth {
	return &GroundTruth{relevant: make(map[string]map[int]struct{})}
}

func queryKey(keys []string) string {
	return strings.Join(keys, "\x00")
}

// Add marks ids as relevant to keys, merging with ids added before.
func (g *GroundTruth) Add(keys []string, ids []int) {
	k := queryKey(keys)
	set, exists := g.relevant[k]
	if !exists {
		set = make(map[int]struct{}, len(ids))
		g.relevant[k] = set
		g.queries = append(g.queries, append([]string(nil), keys...))
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

// Queries returns every query with relevant records.
func (g *GroundTruth) Queries() [][]string {
	return g.queries
}

func (g *GroundTruth) Has(keys []string) bool {
	_, exists := g.relevant[queryKey(keys)]
	return exists
}

// RelevantCount is the number of records relevant to keys.
func (g *GroundTruth) RelevantCount(keys []string) int {
	return len(g.relevant[queryKey(keys)])
}

func (g *GroundTruth) IsRelevant(keys []string, id int) bool {
	_, ok := g.relevant[queryKey(keys)][id]
	return ok
}

// ParseGroundTruth reads lines of the form
//
//	key key ...<TAB>id id ...
//
// where ids are 1-based line numbers of the data file. They are stored
// 0-based, matching the ids the record parsers assign.
func ParseGroundTruth(r io.Reader, source string) (*GroundTruth, error) {
	truth := NewGroundTruth()
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		keysText, idsText, found := strings.Cut(text, "\t")
		if !found {
			return nil, apperrors.Malformed(source, line, "missing tab between keys and ids")
		}
		keys := strings.Fields(keysText)
		if len(keys) == 0 {
			return nil, apperrors.Malformed(source, line, "no keys")
		}
		fields := strings.Fields(idsText)
		ids := make([]int, 0, len(fields))
		for _, f := range fields {
			n, err := strconv.Atoi(f)
			if err != nil || n < 1 {
				return nil, apperrors.Malformed(source, line, "invalid record id %q", f)
			}
			ids = append(ids, n-1)
		}
		truth.Add(keys, ids)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return truth, nil
}

// LoadGroundTruth parses the ground truth file at path.
func LoadGroundTruth(path string) (*GroundTruth, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ground truth: %w", err)
	}
	defer f.Close()
	return ParseGroundTruth(f, path)
}
