package experiment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/database"
)

// startedAtLayout is fixed-width so that started_at sorts chronologically as
// text.
const startedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists run summaries.
type Store interface {
	SaveRuns(ctx context.Context, runs []Summary) error
}

const schema = `CREATE TABLE IF NOT EXISTS experiment_runs (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	field       TEXT NOT NULL,
	run_tag     TEXT NOT NULL,
	output      TEXT NOT NULL,
	queries     INTEGER NOT NULL,
	map         DOUBLE PRECISION NOT NULL,
	mrr         DOUBLE PRECISION NOT NULL,
	p10         DOUBLE PRECISION NOT NULL,
	best        INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	started_at  TEXT NOT NULL
)`

// SQLStore records runs in the experiment_runs table of a postgres or sqlite
// database.
type SQLStore struct {
	client *database.Client
}

// NewSQLStore creates the table when missing.
func NewSQLStore(ctx context.Context, client *database.Client) (*SQLStore, error) {
	if _, err := client.DB.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating experiment_runs table: %w", err)
	}
	return &SQLStore{client: client}, nil
}

// SaveRuns inserts every summary in one transaction.
func (s *SQLStore) SaveRuns(ctx context.Context, runs []Summary) error {
	query := s.client.Rebind(`INSERT INTO experiment_runs
		(id, name, field, run_tag, output, queries, map, mrr, p10, best, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	return s.client.InTx(ctx, func(tx *sql.Tx) error {
		for _, r := range runs {
			best := 0
			if r.Best {
				best = 1
			}
			_, err := tx.ExecContext(ctx, query,
				r.ID, r.Name, r.Field, r.RunTag, r.Output, r.Metrics.Queries,
				r.Metrics.MAP, r.Metrics.MRR, r.Metrics.P10, best,
				r.Duration.Milliseconds(), r.StartedAt.UTC().Format(startedAtLayout),
			)
			if err != nil {
				return fmt.Errorf("inserting run %s: %w", r.Name, err)
			}
		}
		return nil
	})
}

// RecentRuns returns up to limit runs, newest first.
func (s *SQLStore) RecentRuns(ctx context.Context, limit int) ([]Summary, error) {
	rows, err := s.client.DB.QueryContext(ctx, s.client.Rebind(`SELECT
		id, name, field, run_tag, output, queries, map, mrr, p10, best, duration_ms, started_at
		FROM experiment_runs ORDER BY started_at DESC, name ASC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			r          Summary
			m          evaluation.Metrics
			best       int
			durationMs int64
			startedAt  string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Field, &r.RunTag, &r.Output, &m.Queries,
			&m.MAP, &m.MRR, &m.P10, &best, &durationMs, &startedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Metrics = m
		r.Best = best == 1
		r.Duration = time.Duration(durationMs) * time.Millisecond
		if r.StartedAt, err = time.Parse(startedAtLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at of run %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
