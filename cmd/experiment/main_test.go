package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/experiment"
)

func TestPrintHistory(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printHistory(&buf, []experiment.Summary{
		{Name: "title_and_text", Field: "title_and_text", Metrics: evaluation.Metrics{MAP: 0.61234}, Best: true, StartedAt: started},
		{Name: "title_only", Field: "title_only", Metrics: evaluation.Metrics{MAP: 0.5}, StartedAt: started},
	})

	out := buf.String()
	assert.Contains(t, out, "--- Recent runs ---")
	assert.Contains(t, out, "2026-03-01T12:00:00Z  title_and_text   title_and_text   MAP = 0.6123 *\n")
	assert.Contains(t, out, "2026-03-01T12:00:00Z  title_only       title_only       MAP = 0.5000\n")
}
