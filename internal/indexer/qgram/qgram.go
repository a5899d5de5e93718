// Package qgram splits strings into overlapping fixed-length substrings, the
// key space of the fuzzy index.
package qgram

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPadding is prepended q-1 times so that the first grams of a string
// mark its start.
const DefaultPadding = '$'

var nonWord = regexp.MustCompile(`\W`)

// Normalize lower-cases s and removes every non-word character.
func Normalize(s string) string {
	return nonWord.ReplaceAllString(strings.ToLower(s), "")
}

// Provider produces the q-grams of a string. It is immutable and safe for
// concurrent use.
type Provider struct {
	q       int
	padding []rune
}

// New returns a Provider for q-grams padded with DefaultPadding.
func New(q int) *Provider {
	return NewWithPadding(q, DefaultPadding)
}

// NewWithPadding returns a Provider using the given padding character. It
// panics if q is less than one.
func NewWithPadding(q int, padding rune) *Provider {
	if q < 1 {
		panic(fmt.Sprintf("qgram: q must be positive, got %d", q))
	}
	pad := make([]rune, q-1)
	for i := range pad {
		pad[i] = padding
	}
	return &Provider{q: q, padding: pad}
}

// Q returns the gram length.
func (p *Provider) Q() int {
	return p.q
}

// Keys normalises s, pads its front and returns one gram per normalised
// character, in order. Repeated grams are kept.
func (p *Provider) Keys(s string) []string {
	normalized := []rune(Normalize(s))
	padded := make([]rune, 0, len(p.padding)+len(normalized))
	padded = append(padded, p.padding...)
	padded = append(padded, normalized...)

	grams := make([]string, len(normalized))
	for i := range grams {
		grams[i] = string(padded[i : i+p.q])
	}
	return grams
}

// Size is the number of grams Keys returns for s.
func (p *Provider) Size(s string) int {
	return len([]rune(Normalize(s)))
}
