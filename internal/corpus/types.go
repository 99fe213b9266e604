// Package corpus reads a BEIR-style test collection (corpus.jsonl,
// queries.jsonl, qrels tsv) and turns it into tokenized documents and
// queries for the index builder and the ranker.
package corpus

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
)

// Placeholders used when a record omits a field.
const (
	NoTitle     = "NO_TITLE"
	NoText      = "NO_TEXT"
	NoURL       = "NO_URL"
	NoQuery     = "NO_QUERY"
	NoNarrative = "NO_NARRATIVE"
)

type RawDocument struct {
	ID    string
	Title string
	Text  string
	URL   string
}

type RawQuery struct {
	ID        string
	Text      string
	Query     string
	Narrative string
	URL       string
}

// Document is the preprocessed form of a RawDocument.
type Document struct {
	ID          string
	TitleTokens []string
	TextTokens  []string
}

// AllTokens returns title tokens followed by text tokens.
func (d Document) AllTokens() []string {
	out := make([]string, 0, len(d.TitleTokens)+len(d.TextTokens))
	out = append(out, d.TitleTokens...)
	return append(out, d.TextTokens...)
}

// Tokens returns the token stream indexed for field.
func (d Document) Tokens(field string) ([]string, error) {
	switch field {
	case config.FieldTitleOnly:
		return d.TitleTokens, nil
	case config.FieldTitleAndText:
		return d.AllTokens(), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownField, field)
	}
}

type Query struct {
	ID     string
	Tokens []string
}

// Qrels maps query id -> document id -> graded relevance.
type Qrels map[string]map[string]int

// Relevant returns the documents judged with a positive grade for queryID.
func (q Qrels) Relevant(queryID string) map[string]struct{} {
	out := make(map[string]struct{})
	for docID, grade := range q[queryID] {
		if grade > 0 {
			out[docID] = struct{}{}
		}
	}
	return out
}

// recordID accepts both string and numeric identifiers.
type recordID string

func (r *recordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = recordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*r = recordID(n.String())
	return nil
}

type metadata struct {
	URL       *string `json:"url"`
	Query     *string `json:"query"`
	Narrative *string `json:"narrative"`
}

type documentRecord struct {
	ID       *recordID `json:"_id"`
	Title    *string   `json:"title"`
	Text     *string   `json:"text"`
	Metadata metadata  `json:"metadata"`
}

type queryRecord struct {
	ID       *recordID `json:"_id"`
	Text     *string   `json:"text"`
	Metadata metadata  `json:"metadata"`
}

func orDefault(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}
