package corpus

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
)

// Collection is a fully loaded and preprocessed test collection.
type Collection struct {
	RawDocuments []RawDocument
	RawQueries   []RawQuery
	Documents    []Document
	// Queries holds the preprocessed test queries, see FilterTestQueries.
	Queries  []Query
	Qrels    Qrels
	Analyzer *tokenizer.Analyzer
}

// NewAnalyzer reads the configured stop-word file. An empty path selects the
// built-in list.
func NewAnalyzer(cfg config.CorpusConfig) (*tokenizer.Analyzer, error) {
	if cfg.StopwordsPath == "" {
		return tokenizer.New(nil, cfg.Stem), nil
	}
	stop, err := tokenizer.LoadStopWords(cfg.StopwordsPath)
	if err != nil {
		return nil, err
	}
	return tokenizer.New(stop, cfg.Stem), nil
}

// LoadCollection reads documents, queries and judgments, keeps the test
// queries and analyzes everything.
func LoadCollection(cfg config.CorpusConfig) (*Collection, error) {
	logger := slog.Default().With("component", "corpus")
	analyzer, err := NewAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	rawDocs, err := LoadDocuments(cfg.DocumentsPath)
	if err != nil {
		return nil, err
	}
	rawQueries, err := LoadQueries(cfg.QueriesPath)
	if err != nil {
		return nil, err
	}
	qrels, err := LoadQrels(cfg.QrelsPath)
	if err != nil {
		return nil, err
	}
	test := FilterTestQueries(rawQueries, qrels)
	if len(rawDocs) == 0 {
		return nil, fmt.Errorf("no documents in %s", cfg.DocumentsPath)
	}

	c := &Collection{
		RawDocuments: rawDocs,
		RawQueries:   rawQueries,
		Documents:    PreprocessDocuments(rawDocs, analyzer),
		Queries:      PreprocessQueries(test, analyzer),
		Qrels:        qrels,
		Analyzer:     analyzer,
	}
	logger.Info("collection loaded",
		"documents", len(rawDocs),
		"queries", len(rawQueries),
		"test_queries", len(test),
		"judged_queries", len(qrels),
		"stem", cfg.Stem,
	)
	return c, nil
}
