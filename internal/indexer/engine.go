// Package indexer builds one immutable inverted index per indexed field of
// the collection and reports build statistics.
package indexer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
)

// Stats describes a built engine.
type Stats struct {
	Field          string        `json:"field"`
	Documents      int           `json:"documents"`
	VocabularySize int           `json:"vocabulary_size"`
	TotalTokens    int64         `json:"total_tokens"`
	AvgDocLength   float64       `json:"avg_doc_length"`
	BuiltAt        time.Time     `json:"built_at"`
	BuildDuration  time.Duration `json:"build_duration_ns"`
}

// Engine owns the index for a single field. It is read-only once built.
type Engine struct {
	field  string
	idx    *index.Index
	stats  Stats
	logger *slog.Logger
}

// NewEngine selects the token stream for field from every document and builds
// the index. m may be nil.
func NewEngine(docs []corpus.Document, field string, m *metrics.Metrics) (*Engine, error) {
	logger := slog.Default().With("component", "indexer", "field", field)
	start := time.Now()

	input := make([]index.Document, len(docs))
	var totalTokens int64
	for i, d := range docs {
		tokens, err := d.Tokens(field)
		if err != nil {
			recordBuild(m, field, "error", 0)
			return nil, err
		}
		input[i] = index.Document{ID: d.ID, Tokens: tokens}
		totalTokens += int64(len(tokens))
	}

	idx, err := index.Build(input)
	if err != nil {
		recordBuild(m, field, "error", time.Since(start))
		logger.Error("index build failed", "error", err)
		return nil, fmt.Errorf("building %s index: %w", field, err)
	}
	elapsed := time.Since(start)
	recordBuild(m, field, "ok", elapsed)

	e := &Engine{
		field:  field,
		idx:    idx,
		logger: logger,
		stats: Stats{
			Field:          field,
			Documents:      idx.DocCount(),
			VocabularySize: idx.VocabularySize(),
			TotalTokens:    totalTokens,
			BuiltAt:        time.Now().UTC(),
			BuildDuration:  elapsed,
		},
	}
	if e.stats.Documents > 0 {
		e.stats.AvgDocLength = float64(totalTokens) / float64(e.stats.Documents)
	}
	if m != nil {
		m.VocabularySize.WithLabelValues(field).Set(float64(e.stats.VocabularySize))
		m.IndexedDocuments.WithLabelValues(field).Set(float64(e.stats.Documents))
	}
	logger.Info("index built",
		"documents", e.stats.Documents,
		"vocabulary", e.stats.VocabularySize,
		"avg_doc_length", e.stats.AvgDocLength,
		"duration", elapsed,
	)
	return e, nil
}

func recordBuild(m *metrics.Metrics, field, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.IndexBuildsTotal.WithLabelValues(field, status).Inc()
	if status == "ok" {
		m.IndexBuildDuration.WithLabelValues(field).Observe(d.Seconds())
	}
}

func (e *Engine) Field() string {
	return e.field
}

func (e *Engine) Index() *index.Index {
	return e.idx
}

func (e *Engine) Stats() Stats {
	return e.stats
}

// DocLength returns the indexed token count of docID, or 0 when unknown.
func (e *Engine) DocLength(docID string) int {
	n, err := e.idx.DocLength(docID)
	if err != nil {
		return 0
	}
	return n
}
