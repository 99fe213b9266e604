// Package tokenizer turns raw text into index terms. It lower-cases input,
// keeps maximal runs of ASCII letters, removes stop-words and optionally
// applies the Snowball English stemmer.
package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	snowballeng "github.com/kljensen/snowball/english"
)

var defaultStopWords = []string{
	"a", "about", "after", "all", "also", "an", "and", "any", "are", "as", "at",
	"be", "been", "but", "by", "can", "could", "did", "do", "does", "each", "for",
	"from", "had", "has", "have", "he", "her", "his", "how", "i", "if", "in", "into",
	"is", "it", "its", "may", "more", "most", "no", "not", "of", "on", "or", "other",
	"our", "she", "should", "so", "some", "such", "than", "that", "the", "their",
	"them", "then", "there", "these", "they", "this", "those", "to", "was", "we",
	"were", "what", "when", "where", "which", "while", "who", "will", "with", "would",
	"you",
}

// Analyzer is safe for concurrent use; its stop-word set is never modified
// after construction.
type Analyzer struct {
	stopWords map[string]struct{}
	stem      bool
}

// New builds an Analyzer. A nil stop-word set selects the built-in list.
func New(stopWords map[string]struct{}, stem bool) *Analyzer {
	if stopWords == nil {
		stopWords = DefaultStopWords()
	}
	return &Analyzer{stopWords: stopWords, stem: stem}
}

func DefaultStopWords() map[string]struct{} {
	set := make(map[string]struct{}, len(defaultStopWords))
	for _, w := range defaultStopWords {
		set[w] = struct{}{}
	}
	return set
}

// LoadStopWords reads one word per line. Words are lower-cased and blank
// lines skipped.
func LoadStopWords(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stopword file: %w", err)
	}
	defer f.Close()

	set := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stopword file %s: %w", path, err)
	}
	return set, nil
}

// Tokenize lower-cases text and splits it into maximal runs of a-z.
// Digits, punctuation and non-ASCII letters separate tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r < 'a' || r > 'z'
	})
}

// Analyze tokenizes text, drops stop-words and stems when enabled. Stop-words
// are checked before stemming.
func (a *Analyzer) Analyze(text string) []string {
	words := Tokenize(text)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if a.IsStopWord(w) {
			continue
		}
		if a.stem {
			w = snowballeng.Stem(w, false)
			if w == "" {
				continue
			}
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func (a *Analyzer) IsStopWord(word string) bool {
	_, ok := a.stopWords[word]
	return ok
}

func (a *Analyzer) Stems() bool {
	return a.stem
}
