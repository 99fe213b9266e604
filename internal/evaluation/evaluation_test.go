package evaluation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/ranker"
)

func ranked(ids ...string) []ranker.ScoredDoc {
	out := make([]ranker.ScoredDoc, len(ids))
	for i, id := range ids {
		out[i] = ranker.ScoredDoc{DocID: id, Score: 1 / float64(i+1)}
	}
	return out
}

func TestEvaluate(t *testing.T) {
	qrels := corpus.Qrels{
		"1": {"a": 1, "c": 1},
		"3": {"x": 2, "y": 0},
		"5": {"z": 0},
	}
	results := []executor.QueryResult{
		{QueryID: "1", Results: ranked("a", "b", "c")},
		{QueryID: "3", Results: ranked("y", "x")},
		{QueryID: "5", Results: ranked("z")},
		{QueryID: "7", Results: ranked("a")},
	}

	m, per := Evaluate(qrels, results, 100)
	assert.Equal(t, 2, m.Queries)
	assert.Len(t, per, 2)

	// q1: AP = (1/1 + 2/3)/2, RR = 1, P@10 = 0.2
	// q3: AP = (1/2)/1,       RR = 0.5, P@10 = 0.1
	assert.InDelta(t, ((1+2.0/3)/2+0.5)/2, m.MAP, 1e-12)
	assert.InDelta(t, 0.75, m.MRR, 1e-12)
	assert.InDelta(t, 0.15, m.P10, 1e-12)
	assert.Equal(t, 2, per[0].RetrievedRel)
}

func TestEvaluateTopKCutoff(t *testing.T) {
	qrels := corpus.Qrels{"1": {"c": 1}}
	results := []executor.QueryResult{{QueryID: "1", Results: ranked("a", "b", "c")}}

	m, _ := Evaluate(qrels, results, 2)
	assert.Equal(t, 0.0, m.MAP)
	assert.Equal(t, 0.0, m.MRR)

	m, _ = Evaluate(qrels, results, 0)
	assert.InDelta(t, 1.0/3, m.MAP, 1e-12)
}

func TestEvaluateMissedRelevantLowersAP(t *testing.T) {
	qrels := corpus.Qrels{"1": {"a": 1, "missing": 1}}
	m, _ := Evaluate(qrels, []executor.QueryResult{{QueryID: "1", Results: ranked("a")}}, 10)
	assert.InDelta(t, 0.5, m.MAP, 1e-12)
	assert.Equal(t, 1.0, m.MRR)
}

func TestPrecisionAt10IgnoresLaterHits(t *testing.T) {
	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%d", i)
	}
	ids[11] = "rel"
	qrels := corpus.Qrels{"1": {"rel": 1}}
	m, _ := Evaluate(qrels, []executor.QueryResult{{QueryID: "1", Results: ranked(ids...)}}, 100)
	assert.Equal(t, 0.0, m.P10)
	assert.InDelta(t, 1.0/12, m.MRR, 1e-12)
}

func TestEvaluateNothingJudged(t *testing.T) {
	m, per := Evaluate(corpus.Qrels{}, []executor.QueryResult{{QueryID: "1", Results: ranked("a")}}, 10)
	assert.Equal(t, Metrics{}, m)
	assert.Empty(t, per)
}
