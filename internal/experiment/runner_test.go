package experiment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/resilience"
)

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	events   []kafka.Event
}

func (p *fakePublisher) Publish(_ context.Context, events ...kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, events...)
	return nil
}

// fixture: titles alone cannot find the relevant documents for query 1,
// so title_and_text wins on MAP.
func fixture() ([]corpus.Document, []corpus.Query, corpus.Qrels) {
	a := tokenizer.New(nil, false)
	docs := corpus.PreprocessDocuments([]corpus.RawDocument{
		{ID: "10", Title: "Bone health", Text: "Vitamin D supplementation increases bone density."},
		{ID: "20", Title: "Vitamin C", Text: "Ascorbic acid and immune response."},
		{ID: "30", Title: "Microbiome review", Text: "Gut bacteria influence obesity."},
		{ID: "40", Title: "Obesity trends", Text: "Prevalence of obesity in adults."},
	}, a)
	queries := corpus.PreprocessQueries([]corpus.RawQuery{
		{ID: "1", Text: "vitamin D bone density"},
		{ID: "3", Text: "gut bacteria obesity"},
		{ID: "5", Text: "quantum chromodynamics"},
	}, a)
	qrels := corpus.Qrels{
		"1": {"10": 1},
		"3": {"30": 1},
		"5": {"20": 0},
	}
	return docs, queries, qrels
}

func testConfig(dir string) config.ExperimentConfig {
	return config.ExperimentConfig{
		RunTag:      "vsm_test",
		TopK:        100,
		OutputDir:   dir,
		BestRunFile: "Results",
		QrelsOut:    filepath.Join(dir, "qrels", "test_trec_eval.qrels"),
		Runs: []config.RunConfig{
			{Name: "title_only", Field: config.FieldTitleOnly, Output: "Results_title_only.txt"},
			{Name: "title_and_text", Field: config.FieldTitleAndText, Output: "Results_title_and_text.txt"},
		},
	}
}

func searchConfig() config.SearchConfig {
	return config.SearchConfig{QueryTimeout: 5 * time.Second, MaxConcurrentQueries: 4}
}

func TestRunnerPicksBestRun(t *testing.T) {
	dir := t.TempDir()
	docs, queries, qrels := fixture()
	var out bytes.Buffer

	report, err := NewRunner(testConfig(dir), searchConfig(), &out).Run(context.Background(), docs, queries, qrels)
	require.NoError(t, err)

	require.Len(t, report.Runs, 2)
	assert.Equal(t, "title_and_text", report.BestRun)
	assert.False(t, report.Runs[0].Best)
	assert.True(t, report.Runs[1].Best)
	assert.Equal(t, 2, report.Runs[1].Metrics.Queries)
	assert.Equal(t, 1.0, report.Runs[1].Metrics.MAP)
	assert.Less(t, report.Runs[0].Metrics.MAP, report.Runs[1].Metrics.MAP)

	best, err := os.ReadFile(filepath.Join(dir, "Results"))
	require.NoError(t, err)
	full, err := os.ReadFile(filepath.Join(dir, "Results_title_and_text.txt"))
	require.NoError(t, err)
	assert.Equal(t, string(full), string(best))
	assert.True(t, strings.HasPrefix(string(best), "1 Q0 10 1 "), string(best))
	assert.True(t, strings.HasSuffix(strings.Split(string(best), "\n")[0], " vsm_test"))

	qrelsOut, err := os.ReadFile(filepath.Join(dir, "qrels", "test_trec_eval.qrels"))
	require.NoError(t, err)
	assert.Equal(t, "1 0 10 1\n3 0 30 1\n5 0 20 0\n", string(qrelsOut))

	text := out.String()
	assert.Contains(t, text, "--- Run: title_only (index field = title_only) ---")
	assert.Contains(t, text, "Best run: title_and_text")
	assert.Contains(t, text, "Query 1:\n  1. 10 ")
	assert.Contains(t, text, "Query 3:\n")
	assert.NotContains(t, text, "Query 5:")
}

func TestRunnerFirstRunWinsTies(t *testing.T) {
	dir := t.TempDir()
	docs, queries, qrels := fixture()
	cfg := testConfig(dir)
	cfg.Runs = []config.RunConfig{
		{Name: "a", Field: config.FieldTitleAndText, Output: "a.txt"},
		{Name: "b", Field: config.FieldTitleAndText, Output: "b.txt"},
	}
	report, err := NewRunner(cfg, searchConfig(), &bytes.Buffer{}).Run(context.Background(), docs, queries, qrels)
	require.NoError(t, err)
	assert.Equal(t, "a", report.BestRun)
}

func TestRunnerRecordsSinks(t *testing.T) {
	dir := t.TempDir()
	docs, queries, qrels := fixture()

	client, err := database.Open(context.Background(),
		config.DatabaseConfig{Driver: database.DriverSQLite, Path: filepath.Join(dir, "runs.db")},
		resilience.Backoff{MaxAttempts: 1})
	require.NoError(t, err)
	defer client.Close()
	store, err := NewSQLStore(context.Background(), client)
	require.NoError(t, err)

	pub := &fakePublisher{failures: 1}
	runner := NewRunner(testConfig(dir), searchConfig(), &bytes.Buffer{},
		WithStore(store),
		WithPublisher(pub, resilience.Backoff{MaxAttempts: 3, InitialDelay: time.Millisecond}),
	)
	report, err := runner.Run(context.Background(), docs, queries, qrels)
	require.NoError(t, err)

	saved, err := store.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	byName := map[string]Summary{}
	for _, s := range saved {
		byName[s.Name] = s
	}
	assert.True(t, byName["title_and_text"].Best)
	assert.Equal(t, report.Runs[1].ID, byName["title_and_text"].ID)
	assert.InDelta(t, report.Runs[0].Metrics.MAP, byName["title_only"].Metrics.MAP, 1e-12)

	require.Len(t, pub.events, 2)
	ev, ok := pub.events[1].Value.(analytics.RunEvent)
	require.True(t, ok)
	assert.Equal(t, analytics.EventRunComplete, ev.Type)
	assert.True(t, ev.Best)
	assert.Equal(t, "title_and_text", pub.events[1].Key)
}

func TestRunnerErrors(t *testing.T) {
	docs, queries, qrels := fixture()
	cfg := testConfig(t.TempDir())
	cfg.Runs = nil
	_, err := NewRunner(cfg, searchConfig(), &bytes.Buffer{}).Run(context.Background(), docs, queries, qrels)
	assert.Error(t, err)

	dup := append(docs, corpus.Document{ID: "10"})
	_, err = NewRunner(testConfig(t.TempDir()), searchConfig(), &bytes.Buffer{}).Run(context.Background(), dup, queries, qrels)
	assert.ErrorContains(t, err, "building indexes")
}
