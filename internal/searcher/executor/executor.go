// Package executor runs ranked queries against one field engine, either one
// at a time for the search API or as a bounded-concurrency batch for
// experiment runs.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
)

type SearchResult struct {
	Query     string             `json:"query"`
	Field     string             `json:"field"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
	TermStats map[string]int     `json:"term_stats"`
}

// QueryResult is the ranked list of one batch query.
type QueryResult struct {
	QueryID string
	Results []ranker.ScoredDoc
}

type Executor struct {
	engine      *indexer.Engine
	timeout     time.Duration
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// New creates an executor over engine. m may be nil.
func New(engine *indexer.Engine, cfg config.SearchConfig, m *metrics.Metrics) *Executor {
	concurrency := cfg.MaxConcurrentQueries
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Executor{
		engine:      engine,
		timeout:     cfg.QueryTimeout,
		concurrency: concurrency,
		metrics:     m,
		logger:      slog.Default().With("component", "query-executor", "field", engine.Field()),
	}
}

func (e *Executor) Field() string {
	return e.engine.Field()
}

// Execute ranks plan and returns at most limit results; limit <= 0 returns
// every candidate. Documents containing an excluded term are dropped before
// truncation.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	ranked, err := e.rank(ctx, plan.Terms)
	if err != nil {
		return nil, err
	}
	ranked = e.exclude(ranked, plan.ExcludeTerms)

	idx := e.engine.Index()
	termStats := make(map[string]int)
	for _, term := range plan.Terms {
		if df, ok := idx.DocFreq(term); ok {
			termStats[term] = df
		}
	}
	result := &SearchResult{
		Query:     plan.RawQuery,
		Field:     e.engine.Field(),
		TotalHits: len(ranked),
		Results:   ranker.TopK(ranked, limit),
		TermStats: termStats,
	}
	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"hits", result.TotalHits,
		"returned", len(result.Results),
	)
	return result, nil
}

// ExecuteBatch ranks every query and keeps the top topK documents of each.
// Results are returned in input order. The first failing query cancels the
// remaining ones.
func (e *Executor) ExecuteBatch(ctx context.Context, queries []corpus.Query, topK int) ([]QueryResult, error) {
	out := make([]QueryResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			ranked, err := e.rank(gctx, q.Tokens)
			if err != nil {
				return fmt.Errorf("query %s: %w", q.ID, err)
			}
			out[i] = QueryResult{QueryID: q.ID, Results: ranker.TopK(ranked, topK)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Info("batch executed", "queries", len(queries), "top_k", topK)
	return out, nil
}

type rankOutcome struct {
	ranked []ranker.ScoredDoc
	err    error
}

// rank scores terms under the per-query timeout. A query that outlives its
// deadline is reported as ErrTimeout; the scoring goroutine finishes on its
// own and its result is discarded.
func (e *Executor) rank(ctx context.Context, terms []string) ([]ranker.ScoredDoc, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if ctx.Err() != nil {
		return nil, e.contextError(ctx)
	}

	start := time.Now()
	done := make(chan rankOutcome, 1)
	go func() {
		ranked, err := ranker.Rank(e.engine.Index(), terms)
		done <- rankOutcome{ranked: ranked, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, e.contextError(ctx)
	case res := <-done:
		if res.err != nil {
			e.observe("error", 0, 0)
			return nil, res.err
		}
		outcome := "hit"
		if len(res.ranked) == 0 {
			outcome = "zero_result"
		}
		e.observe(outcome, time.Since(start), len(res.ranked))
		return res.ranked, nil
	}
}

func (e *Executor) contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		e.observe("timeout", 0, 0)
		return fmt.Errorf("%w: ranking deadline exceeded", apperrors.ErrTimeout)
	}
	return ctx.Err()
}

func (e *Executor) exclude(ranked []ranker.ScoredDoc, terms []string) []ranker.ScoredDoc {
	if len(terms) == 0 {
		return ranked
	}
	banned := make(map[string]struct{})
	for _, docID := range e.engine.Index().Candidates(terms) {
		banned[docID] = struct{}{}
	}
	kept := make([]ranker.ScoredDoc, 0, len(ranked))
	for _, sd := range ranked {
		if _, drop := banned[sd.DocID]; !drop {
			kept = append(kept, sd)
		}
	}
	return kept
}

func (e *Executor) observe(outcome string, d time.Duration, candidates int) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesRankedTotal.WithLabelValues(outcome).Inc()
	if outcome == "hit" || outcome == "zero_result" {
		e.metrics.RankLatency.WithLabelValues(e.engine.Field()).Observe(d.Seconds())
		e.metrics.CandidatesPerQuery.WithLabelValues(e.engine.Field()).Observe(float64(candidates))
	}
}
