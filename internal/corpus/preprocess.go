package corpus

import (
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/tokenizer"
)

// PreprocessDocuments analyzes the title and text of every document.
func PreprocessDocuments(raw []RawDocument, a *tokenizer.Analyzer) []Document {
	docs := make([]Document, len(raw))
	for i, r := range raw {
		docs[i] = Document{
			ID:          r.ID,
			TitleTokens: a.Analyze(r.Title),
			TextTokens:  a.Analyze(r.Text),
		}
	}
	return docs
}

// PreprocessQueries analyzes the query text (the topic title).
func PreprocessQueries(raw []RawQuery, a *tokenizer.Analyzer) []Query {
	queries := make([]Query, len(raw))
	for i, r := range raw {
		queries[i] = Query{ID: r.ID, Tokens: a.Analyze(r.Text)}
	}
	return queries
}
