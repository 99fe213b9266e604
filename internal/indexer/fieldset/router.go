// Package fieldset builds one indexer.Engine per configured field and routes
// lookups by field name.
package fieldset

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
)

// Router maps field names to engines. It is immutable after NewRouter.
type Router struct {
	engines map[string]*indexer.Engine
	fields  []string
	logger  *slog.Logger
}

// NewRouter builds an engine for each distinct field concurrently. The first
// failing build cancels the rest and is returned.
func NewRouter(ctx context.Context, docs []corpus.Document, fields []string, m *metrics.Metrics) (*Router, error) {
	r := &Router{
		engines: make(map[string]*indexer.Engine, len(fields)),
		logger:  slog.Default().With("component", "fieldset-router"),
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		r.fields = append(r.fields, f)
	}
	if len(r.fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to index", apperrors.ErrInvalidInput)
	}

	built := make([]*indexer.Engine, len(r.fields))
	g, gctx := errgroup.WithContext(ctx)
	for i, field := range r.fields {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			engine, err := indexer.NewEngine(docs, field, m)
			if err != nil {
				return err
			}
			built[i] = engine
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, field := range r.fields {
		r.engines[field] = built[i]
	}
	r.logger.Info("field router ready", "fields", r.fields)
	return r, nil
}

// Route returns the engine indexing field.
func (r *Router) Route(field string) (*indexer.Engine, error) {
	engine, ok := r.engines[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownField, field)
	}
	return engine, nil
}

// Fields returns the routed field names in configuration order.
func (r *Router) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// AllStats returns the build statistics of every engine, sorted by field.
func (r *Router) AllStats() []indexer.Stats {
	out := make([]indexer.Stats, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, e.Stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
