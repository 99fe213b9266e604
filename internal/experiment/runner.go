// Package experiment runs the retrieval experiment: one ranked run per
// indexed field over the test queries, evaluation against the judgments, and
// selection of the best run by mean average precision.
package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/fieldset"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/trec"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/resilience"
)

const (
	previewQueries = 2
	previewDepth   = 10
)

type Summary struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Field     string             `json:"field"`
	RunTag    string             `json:"run_tag"`
	Output    string             `json:"output"`
	Metrics   evaluation.Metrics `json:"metrics"`
	Best      bool               `json:"best"`
	Duration  time.Duration      `json:"duration_ns"`
	StartedAt time.Time          `json:"started_at"`
}

type Report struct {
	Runs     []Summary `json:"runs"`
	BestRun  string    `json:"best_run"`
	BestFile string    `json:"best_file"`
}

type Runner struct {
	cfg       config.ExperimentConfig
	search    config.SearchConfig
	metrics   *metrics.Metrics
	store     Store
	publisher analytics.Publisher
	backoff   resilience.Backoff
	out       io.Writer
	logger    *slog.Logger
}

// Option configures optional Runner sinks.
type Option func(*Runner)

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithStore(s Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithPublisher announces each finished run, retrying with b.
func WithPublisher(p analytics.Publisher, b resilience.Backoff) Option {
	return func(r *Runner) {
		r.publisher = p
		r.backoff = b
	}
}

// NewRunner writes its human-readable report to out.
func NewRunner(cfg config.ExperimentConfig, search config.SearchConfig, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		search:  search,
		out:     out,
		backoff: resilience.Backoff{MaxAttempts: 1},
		logger:  slog.Default().With("component", "experiment"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type runResult struct {
	summary Summary
	results []executor.QueryResult
}

// Run executes every configured run. Failures of the optional store or
// publisher are logged and do not fail the experiment.
func (r *Runner) Run(ctx context.Context, docs []corpus.Document, queries []corpus.Query, qrels corpus.Qrels) (*Report, error) {
	if len(r.cfg.Runs) == 0 {
		return nil, fmt.Errorf("no runs configured")
	}
	if r.cfg.QrelsOut != "" {
		if err := trec.WriteQrelsFile(r.cfg.QrelsOut, qrels); err != nil {
			return nil, err
		}
		fmt.Fprintf(r.out, "Wrote qrels for trec_eval: %s\n", r.cfg.QrelsOut)
	}

	fields := make([]string, len(r.cfg.Runs))
	for i, run := range r.cfg.Runs {
		fields[i] = run.Field
	}
	router, err := fieldset.NewRouter(ctx, docs, fields, r.metrics)
	if err != nil {
		return nil, fmt.Errorf("building indexes: %w", err)
	}

	runs := make([]runResult, 0, len(r.cfg.Runs))
	for _, run := range r.cfg.Runs {
		res, err := r.executeRun(ctx, router, run, queries, qrels)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.Name, err)
		}
		runs = append(runs, res)
	}

	best := 0
	for i := 1; i < len(runs); i++ {
		if runs[i].summary.Metrics.MAP > runs[best].summary.Metrics.MAP {
			best = i
		}
	}
	runs[best].summary.Best = true
	bestPath := filepath.Join(r.cfg.OutputDir, r.cfg.BestRunFile)
	if err := trec.WriteRunFile(bestPath, r.cfg.RunTag, r.cfg.TopK, runs[best].results); err != nil {
		return nil, err
	}
	fmt.Fprintf(r.out, "\nBest run: %s (MAP = %.4f). Wrote %s\n",
		runs[best].summary.Name, runs[best].summary.Metrics.MAP, bestPath)
	r.printPreview(runs[best].results)

	report := &Report{BestRun: runs[best].summary.Name, BestFile: bestPath}
	for _, rr := range runs {
		report.Runs = append(report.Runs, rr.summary)
	}
	r.record(ctx, report.Runs)
	return report, nil
}

func (r *Runner) executeRun(ctx context.Context, router *fieldset.Router, run config.RunConfig, queries []corpus.Query, qrels corpus.Qrels) (runResult, error) {
	started := time.Now()
	fmt.Fprintf(r.out, "\n--- Run: %s (index field = %s) ---\n", run.Name, run.Field)

	engine, err := router.Route(run.Field)
	if err != nil {
		return runResult{}, err
	}
	exec := executor.New(engine, r.search, r.metrics)
	results, err := exec.ExecuteBatch(ctx, queries, r.cfg.TopK)
	if err != nil {
		return runResult{}, err
	}

	outPath := filepath.Join(r.cfg.OutputDir, run.Output)
	if err := trec.WriteRunFile(outPath, r.cfg.RunTag, r.cfg.TopK, results); err != nil {
		return runResult{}, err
	}
	fmt.Fprintf(r.out, "  Wrote %s\n", outPath)

	m, _ := evaluation.Evaluate(qrels, results, r.cfg.TopK)
	fmt.Fprintf(r.out, "  MAP = %.4f  MRR = %.4f  P@10 = %.4f  (%d judged queries)\n", m.MAP, m.MRR, m.P10, m.Queries)
	if r.metrics != nil {
		r.metrics.RunsCompletedTotal.WithLabelValues(run.Name).Inc()
		r.metrics.RunMAP.WithLabelValues(run.Name).Set(m.MAP)
	}
	r.logger.Info("run complete",
		"run", run.Name,
		"field", run.Field,
		"queries", len(queries),
		"map", m.MAP,
		"duration", time.Since(started),
	)
	return runResult{
		summary: Summary{
			ID:        uuid.NewString(),
			Name:      run.Name,
			Field:     run.Field,
			RunTag:    r.cfg.RunTag,
			Output:    outPath,
			Metrics:   m,
			Duration:  time.Since(started),
			StartedAt: started.UTC(),
		},
		results: results,
	}, nil
}

func (r *Runner) printPreview(results []executor.QueryResult) {
	fmt.Fprintf(r.out, "\n--- First %d results for first %d queries (best run) ---\n", previewDepth, previewQueries)
	for _, qr := range results[:min(previewQueries, len(results))] {
		fmt.Fprintf(r.out, "Query %s:\n", qr.QueryID)
		for i, sd := range qr.Results[:min(previewDepth, len(qr.Results))] {
			fmt.Fprintf(r.out, "  %d. %s %.4f\n", i+1, sd.DocID, sd.Score)
		}
	}
}

func (r *Runner) record(ctx context.Context, runs []Summary) {
	if r.store != nil {
		if err := r.store.SaveRuns(ctx, runs); err != nil {
			r.logger.Error("saving run summaries failed", "error", err)
		}
	}
	if r.publisher == nil {
		return
	}
	events := make([]kafka.Event, len(runs))
	for i, s := range runs {
		events[i] = kafka.Event{Key: s.Name, Value: analytics.RunEvent{
			Type:      analytics.EventRunComplete,
			RunID:     s.ID,
			Name:      s.Name,
			Field:     s.Field,
			RunTag:    s.RunTag,
			Queries:   s.Metrics.Queries,
			MAP:       s.Metrics.MAP,
			MRR:       s.Metrics.MRR,
			P10:       s.Metrics.P10,
			Best:      s.Best,
			Timestamp: s.StartedAt.Add(s.Duration),
		}}
	}
	err := resilience.Retry(ctx, "publish run events", r.backoff, func(ctx context.Context) error {
		return r.publisher.Publish(ctx, events...)
	})
	if err != nil {
		r.logger.Error("publishing run events failed", "error", err)
	}
}
