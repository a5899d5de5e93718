// Package city models cities as fuzzy-searchable records. A city is keyed by
// the q-grams of its name and ranks ties by its relevance.
package city

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/qgram"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/errors"
)

// DefaultRelevance is used when a city carries no relevance.
const DefaultRelevance = 1

type City struct {
	id        int
	name      string
	relevance int
	latitude  float64
	longitude float64
	grams     *qgram.Provider
}

func New(id int, name string, relevance int, latitude, longitude float64, grams *qgram.Provider) *City {
	return &City{
		id:        id,
		name:      name,
		relevance: relevance,
		latitude:  latitude,
		longitude: longitude,
		grams:     grams,
	}
}

func (c *City) RecordID() int { return c.id }

func (c *City) Name() string { return c.name }

// Keys are the q-grams of the name.
func (c *City) Keys() []string { return c.grams.Keys(c.name) }

func (c *City) Size() int { return c.grams.Size(c.name) }

func (c *City) Importance() int { return c.relevance }

func (c *City) Latitude() float64 { return c.latitude }

func (c *City) Longitude() float64 { return c.longitude }

func (c *City) Attributes() map[string]any {
	return map[string]any{
		"latitude":  c.latitude,
		"longitude": c.longitude,
	}
}

func (c *City) String() string {
	return fmt.Sprintf("%s (%.4f, %.4f)", c.name, c.latitude, c.longitude)
}

// Parse reads tab-separated cities, one per line:
//
//	name<TAB>relevance<TAB>latitude<TAB>longitude
//
// Ids are assigned in line order starting at 0. A line may also lead with an
// explicit numeric id, giving five fields. An empty relevance defaults to
// DefaultRelevance. Blank lines are skipped. Two lines resolving to the same
// id are malformed.
func Parse(r io.Reader, source string, grams *qgram.Provider) (*record.Set, error) {
	cities := record.NewSet()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	nextID := 0
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")

		id := nextID
		switch len(fields) {
		case 4:
			nextID++
		case 5:
			explicit, err := strconv.Atoi(fields[0])
			if err != nil || explicit < 0 {
				return nil, apperrors.Malformed(source, line, "invalid id %q", fields[0])
			}
			id = explicit
			fields = fields[1:]
		default:
			return nil, apperrors.Malformed(source, line, "expected 4 or 5 tab-separated fields, got %d", len(fields))
		}

		c, err := parseFields(id, fields, grams)
		if err != nil {
			return nil, apperrors.Malformed(source, line, "%v", err)
		}
		if !cities.Add(c) {
			return nil, apperrors.Malformed(source, line, "duplicate city id %d", id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	return cities, nil
}

// parseFields builds a city from name, relevance, latitude, longitude.
func parseFields(id int, fields []string, grams *qgram.Provider) (*City, error) {
	name := strings.TrimSpace(fields[0])
	if name == "" {
		return nil, fmt.Errorf("empty name")
	}
	relevance := DefaultRelevance
	if s := strings.TrimSpace(fields[1]); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid relevance %q", s)
		}
		relevance = v
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q", fields[2])
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q", fields[3])
	}
	return New(id, name, relevance, lat, long, grams), nil
}

// LoadFile parses the cities file at path.
func LoadFile(path string, grams *qgram.Provider) (*record.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cities file: %w", err)
	}
	defer f.Close()
	return Parse(f, path, grams)
}
