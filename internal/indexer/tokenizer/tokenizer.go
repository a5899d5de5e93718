// Package tokenizer splits text into the whole-word keys used by keyword
// search. Words lower-cases and splits on non-word runs; Tokenize additionally
// removes stop-words and applies a simple suffix-based stemmer. Snowball
// stems with the English Snowball algorithm instead.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"
)

// Analyzer turns text into index keys. Records and queries must share one.
type Analyzer func(text string) []string

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Token is a normalised term and its position among the kept terms.
type Token struct {
	Term     string
	Position int
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Words folds text to NFKC, lower-cases it and splits it on every run of
// non-word characters. Repeated words are kept, so the result length is the
// text's word count.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(norm.NFKC.String(text)), func(r rune) bool {
		return !isWordRune(r)
	})
}

// Stemmed is the Analyzer form of Tokenize.
func Stemmed(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}

// Snowball drops stop-words and words shorter than two runes, then applies
// the English Snowball stemmer.
func Snowball(text string) []string {
	words := Words(text)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		if stemmed := english.Stem(word, false); stemmed != "" {
			terms = append(terms, stemmed)
		}
	}
	return terms
}

// Lookup returns the analyzer registered under name: "plain" for Words,
// "stemmed" for Stemmed, "snowball" for Snowball.
func Lookup(name string) (Analyzer, bool) {
	switch name {
	case "", "plain":
		return Words, true
	case "stemmed":
		return Stemmed, true
	case "snowball":
		return Snowball, true
	default:
		return nil, false
	}
}

// Tokenize breaks text into stemmed, lower-cased tokens with stop-words and
// single-character words removed.
func Tokenize(text string) []Token {
	words := Words(text)
	tokens := make([]Token, 0, len(words))
	pos := 0
	for _, word := range words {
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		stemmed := stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     stemmed,
			Position: pos,
		})
		pos++
	}
	return tokens
}

type suffixRule struct {
	suffix      string
	replacement string
	minLen      int
}

// Longer suffixes come first; the first rule that leaves at least minLen
// bytes wins.
var suffixRules = []suffixRule{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

func stem(word string) string {
	for _, rule := range suffixRules {
		if !strings.HasSuffix(word, rule.suffix) {
			continue
		}
		newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
		if len(newWord) >= rule.minLen {
			return newWord
		}
	}
	return word
}
