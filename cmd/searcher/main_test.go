package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/metrics"
)

func TestServerHandlerLabelsMetricsScrapes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := handler.New(nil, tokenizer.New(nil, false), nil, nil, nil, handler.Options{})
	srv := httptest.NewServer(newServerHandler(h, health.NewChecker(), m, reg, time.Second))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	status, _ := get("/metrics")
	assert.Equal(t, http.StatusOK, status)
	status, _ = get("/no/such/route")
	assert.Equal(t, http.StatusNotFound, status)

	_, body := get("/metrics")
	assert.Contains(t, body, `http_requests_total{method="GET",path="/metrics",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="other",status="404"} 1`)
}
