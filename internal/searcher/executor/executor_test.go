package executor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
)

func newTestExecutor(t *testing.T, m *metrics.Metrics) *Executor {
	t.Helper()
	docs := []corpus.Document{
		{ID: "d1", TitleTokens: []string{"cat", "dog"}},
		{ID: "d2", TitleTokens: []string{"dog"}},
		{ID: "d3", TitleTokens: []string{"fish"}},
		{ID: "d4", TitleTokens: []string{"cat", "fish"}},
	}
	engine, err := indexer.NewEngine(docs, config.FieldTitleOnly, nil)
	require.NoError(t, err)
	return New(engine, config.SearchConfig{QueryTimeout: 5 * time.Second, MaxConcurrentQueries: 2}, m)
}

func TestExecuteMatchesRanker(t *testing.T) {
	e := newTestExecutor(t, nil)
	plan := parser.FromTokens("cat", []string{"cat"})

	res, err := e.Execute(context.Background(), plan, 10)
	require.NoError(t, err)

	want, err := ranker.Rank(e.engine.Index(), []string{"cat"})
	require.NoError(t, err)
	assert.Equal(t, want, res.Results)
	assert.Equal(t, 2, res.TotalHits)
	assert.Equal(t, map[string]int{"cat": 2}, res.TermStats)
	assert.Equal(t, config.FieldTitleOnly, res.Field)
}

func TestExecuteLimitAndExclude(t *testing.T) {
	e := newTestExecutor(t, nil)

	res, err := e.Execute(context.Background(), parser.FromTokens("q", []string{"cat", "dog", "fish"}), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalHits)
	assert.Len(t, res.Results, 2)

	plan := &parser.QueryPlan{RawQuery: "cat NOT fish", Terms: []string{"cat"}, ExcludeTerms: []string{"fish"}}
	res, err = e.Execute(context.Background(), plan, 10)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "d1", res.Results[0].DocID)
	assert.Equal(t, 1, res.TotalHits)
}

func TestExecuteEmptyQuery(t *testing.T) {
	e := newTestExecutor(t, nil)
	res, err := e.Execute(context.Background(), parser.FromTokens("", nil), 10)
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.NotNil(t, res.Results)
	assert.Equal(t, 0, res.TotalHits)
}

func TestExecuteBatchPreservesOrder(t *testing.T) {
	e := newTestExecutor(t, nil)
	queries := make([]corpus.Query, 0, 20)
	terms := []string{"cat", "dog", "fish", "bird"}
	for i := 0; i < 20; i++ {
		queries = append(queries, corpus.Query{ID: fmt.Sprint(i), Tokens: []string{terms[i%len(terms)]}})
	}

	out, err := e.ExecuteBatch(context.Background(), queries, 1)
	require.NoError(t, err)
	require.Len(t, out, len(queries))
	for i, qr := range out {
		assert.Equal(t, queries[i].ID, qr.QueryID)
		want, err := ranker.Rank(e.engine.Index(), queries[i].Tokens)
		require.NoError(t, err)
		assert.Equal(t, ranker.TopK(want, 1), qr.Results)
	}
	assert.Empty(t, out[3].Results)
}

func TestExecuteTimeout(t *testing.T) {
	e := newTestExecutor(t, nil)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := e.Execute(ctx, parser.FromTokens("cat", []string{"cat"}), 10)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)

	_, err = e.ExecuteBatch(ctx, []corpus.Query{{ID: "1", Tokens: []string{"cat"}}}, 10)
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

func TestExecuteCanceled(t *testing.T) {
	e := newTestExecutor(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, parser.FromTokens("cat", []string{"cat"}), 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, apperrors.ErrTimeout)
}

func TestExecuteRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	e := newTestExecutor(t, m)

	_, err := e.Execute(context.Background(), parser.FromTokens("cat", []string{"cat"}), 10)
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), parser.FromTokens("bird", []string{"bird"}), 10)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "queries_ranked_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "outcome" {
					counts[lp.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"hit": 1, "zero_result": 1}, counts)
}
