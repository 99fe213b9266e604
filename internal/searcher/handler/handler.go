// Package handler serves the search HTTP API over the built field indexes.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/logger"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// StatsProvider is satisfied by *fieldset.Router.
type StatsProvider interface {
	AllStats() []indexer.Stats
}

type Options struct {
	DefaultField string
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executors map[string]SearchExecutor
	analyzer  *tokenizer.Analyzer
	stats     StatsProvider
	cache     *cache.QueryCache
	collector *analytics.Collector
	opts      Options
	logger    *slog.Logger
}

// New wires the API. queryCache and collector may be nil.
func New(
	executors map[string]SearchExecutor,
	analyzer *tokenizer.Analyzer,
	stats StatsProvider,
	queryCache *cache.QueryCache,
	collector *analytics.Collector,
	opts Options,
) *Handler {
	return &Handler{
		executors: executors,
		analyzer:  analyzer,
		stats:     stats,
		cache:     queryCache,
		collector: collector,
		opts:      opts,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// Search answers GET /api/v1/search?q=&limit=&field=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "query parameter 'q' is required"))
		return
	}
	limit, err := h.parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	field := r.URL.Query().Get("field")
	if field == "" {
		field = h.opts.DefaultField
	}
	exec, ok := h.executors[field]
	if !ok {
		h.writeError(w, apperrors.Newf(apperrors.ErrUnknownField, http.StatusNotFound, "field %q is not indexed", field))
		return
	}

	plan := parser.Parse(query, h.analyzer)
	compute := func() (*executor.SearchResult, error) {
		return exec.Execute(ctx, plan, limit)
	}
	var result *executor.SearchResult
	cacheHit := false
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, field, plan, limit, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		log.Error("search execution failed", "query", query, "field", field, "error", err)
		h.writeError(w, err)
		return
	}
	resp := *result
	resp.Query = query

	latencyMs := time.Since(start).Milliseconds()
	log.Info("search completed",
		"query", query,
		"field", field,
		"total_hits", resp.TotalHits,
		"returned", len(resp.Results),
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	if h.collector != nil {
		h.collector.TrackSearch(analytics.SearchEvent{
			Type:      analytics.SearchEventType(cacheHit, resp.TotalHits),
			Query:     query,
			Field:     field,
			Terms:     plan.Terms,
			TotalHits: resp.TotalHits,
			Returned:  len(resp.Results),
			LatencyMs: latencyMs,
			CacheHit:  cacheHit,
			Timestamp: time.Now().UTC(),
			RequestID: logger.RequestID(ctx),
		})
	}
	h.writeJSON(w, http.StatusOK, &resp)
}

func (h *Handler) parseLimit(raw string) (int, error) {
	if raw == "" {
		return h.opts.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be a positive integer")
	}
	return min(n, h.opts.MaxResults), nil
}

// IndexStats answers GET /api/v1/index/stats.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"default_field": h.opts.DefaultField,
		"stemming":      h.analyzer.Stems(),
		"fields":        h.stats.AllStats(),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("cache invalidation failed", "error", err)
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index/stats", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

// writeError answers with the status mapped from err. Internal failures do
// not leak their message.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	msg := err.Error()
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		msg = appErr.Message
	case status == http.StatusInternalServerError:
		msg = "search failed"
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}
