// Package ranker scores candidate documents against a query by cosine
// similarity of max-tf normalised, log2-idf weighted term vectors.
package ranker

import (
	"fmt"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/index"
)

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// QueryVector is the weighted form of a query: its distinct indexed terms in
// first-seen order, their idf weights and the Euclidean norm of those weights.
type QueryVector struct {
	Terms   []string
	Weights map[string]float64
	Norm    float64
}

// Vectorize keeps the first occurrence of each query token that the index
// knows. Repeated tokens do not raise a term's weight.
func Vectorize(idx *index.Index, query []string) QueryVector {
	qv := QueryVector{Weights: make(map[string]float64, len(query))}
	var sumSquares float64
	for _, tok := range query {
		if _, seen := qv.Weights[tok]; seen {
			continue
		}
		idf, ok := idx.IDF(tok)
		if !ok {
			continue
		}
		qv.Terms = append(qv.Terms, tok)
		qv.Weights[tok] = idf
		sumSquares += idf * idf
	}
	qv.Norm = math.Sqrt(sumSquares)
	return qv
}

// Rank returns every document sharing at least one indexed token with query,
// ordered by descending cosine similarity. Equal scores keep document
// insertion order. A query without indexed tokens yields an empty result.
func Rank(idx *index.Index, query []string) ([]ScoredDoc, error) {
	qv := Vectorize(idx, query)
	if len(qv.Terms) == 0 {
		return []ScoredDoc{}, nil
	}

	candidates := idx.Candidates(qv.Terms)
	result := make([]ScoredDoc, 0, len(candidates))
	for _, docID := range candidates {
		score, err := similarity(idx, qv, docID)
		if err != nil {
			return nil, err
		}
		result = append(result, ScoredDoc{DocID: docID, Score: score})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	return result, nil
}

// Similarity scores a single document, candidate or not.
func Similarity(idx *index.Index, query []string, docID string) (float64, error) {
	return similarity(idx, Vectorize(idx, query), docID)
}

func similarity(idx *index.Index, qv QueryVector, docID string) (float64, error) {
	st, err := idx.Stats(docID)
	if err != nil {
		return 0, fmt.Errorf("scoring candidate: %w", err)
	}
	if qv.Norm == 0 || st.Norm == 0 {
		return 0, nil
	}
	var dot float64
	for _, term := range qv.Terms {
		qw := qv.Weights[term]
		dot += index.Weight(idx.TermFrequency(term, docID), st.MaxTF, qw) * qw
	}
	return math.Min(1, dot/(qv.Norm*st.Norm)), nil
}

// TopK truncates a ranked list to at most k entries; k <= 0 keeps everything.
func TopK(ranked []ScoredDoc, k int) []ScoredDoc {
	if k > 0 && len(ranked) > k {
		return ranked[:k]
	}
	return ranked
}
