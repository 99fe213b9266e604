// Package analytics emits search and experiment events to the event broker
// without blocking the request path.
package analytics

import "time"

type EventType string

const (
	EventSearch      EventType = "search"
	EventCacheHit    EventType = "cache_hit"
	EventZeroResult  EventType = "zero_result"
	EventRunComplete EventType = "run_complete"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Field     string    `json:"field"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// RunEvent announces a finished experiment run and its effectiveness.
type RunEvent struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	Field     string    `json:"field"`
	RunTag    string    `json:"run_tag"`
	Queries   int       `json:"queries"`
	MAP       float64   `json:"map"`
	MRR       float64   `json:"mrr"`
	P10       float64   `json:"p10"`
	Best      bool      `json:"best"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchEventType classifies a served search.
func SearchEventType(cacheHit bool, totalHits int) EventType {
	switch {
	case totalHits == 0:
		return EventZeroResult
	case cacheHit:
		return EventCacheHit
	default:
		return EventSearch
	}
}
