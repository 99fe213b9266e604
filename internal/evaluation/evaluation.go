// Package evaluation scores ranked runs against relevance judgments with the
// measures trec_eval reports as map, recip_rank and P_10.
package evaluation

import (
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
)

const precisionCutoff = 10

type Metrics struct {
	MAP     float64 `json:"map"`
	MRR     float64 `json:"mrr"`
	P10     float64 `json:"p10"`
	Queries int     `json:"queries"`
}

// QueryMetrics holds the per-query values averaged into Metrics.
type QueryMetrics struct {
	QueryID          string
	AveragePrecision float64
	ReciprocalRank   float64
	PrecisionAt10    float64
	Relevant         int
	RetrievedRel     int
}

// Evaluate averages over the queries of results that have at least one
// document judged with a positive grade. Only the first topK documents of
// each ranking count; topK <= 0 uses all of them.
func Evaluate(qrels corpus.Qrels, results []executor.QueryResult, topK int) (Metrics, []QueryMetrics) {
	var m Metrics
	perQuery := make([]QueryMetrics, 0, len(results))
	for _, qr := range results {
		relevant := qrels.Relevant(qr.QueryID)
		if len(relevant) == 0 {
			continue
		}
		qm := evaluateQuery(qr, relevant, topK)
		perQuery = append(perQuery, qm)
		m.MAP += qm.AveragePrecision
		m.MRR += qm.ReciprocalRank
		m.P10 += qm.PrecisionAt10
	}
	m.Queries = len(perQuery)
	if m.Queries > 0 {
		n := float64(m.Queries)
		m.MAP /= n
		m.MRR /= n
		m.P10 /= n
	}
	return m, perQuery
}

func evaluateQuery(qr executor.QueryResult, relevant map[string]struct{}, topK int) QueryMetrics {
	qm := QueryMetrics{QueryID: qr.QueryID, Relevant: len(relevant)}
	ranked := qr.Results
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	var precisionSum float64
	hitsAt10 := 0
	for i, sd := range ranked {
		if _, ok := relevant[sd.DocID]; !ok {
			continue
		}
		rank := i + 1
		qm.RetrievedRel++
		precisionSum += float64(qm.RetrievedRel) / float64(rank)
		if qm.ReciprocalRank == 0 {
			qm.ReciprocalRank = 1 / float64(rank)
		}
		if rank <= precisionCutoff {
			hitsAt10++
		}
	}
	qm.AveragePrecision = precisionSum / float64(len(relevant))
	qm.PrecisionAt10 = float64(hitsAt10) / precisionCutoff
	return qm
}
