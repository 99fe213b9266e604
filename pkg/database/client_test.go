package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/pkg/resilience"
)

func openSQLite(t *testing.T) *Client {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")}
	c, err := Open(context.Background(), cfg, resilience.Backoff{MaxAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpenSQLite(t *testing.T) {
	c := openSQLite(t)
	assert.Equal(t, DriverSQLite, c.Driver())
	assert.NoError(t, c.Ping(context.Background()))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"}, resilience.Backoff{})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestRebind(t *testing.T) {
	pg := &Client{driver: DriverPostgres}
	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", pg.Rebind("INSERT INTO t (a, b) VALUES (?, ?)"))

	lite := &Client{driver: DriverSQLite}
	assert.Equal(t, "SELECT ? ", lite.Rebind("SELECT ? "))
}

func TestInTx(t *testing.T) {
	c := openSQLite(t)
	ctx := context.Background()
	_, err := c.DB.ExecContext(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`)
	require.NoError(t, err)

	err = c.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "a", "1")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = c.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "b", "2"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpenRetriesUntilContextDone(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: DriverPostgres, Host: "127.0.0.1", Port: 1, SSLMode: "disable",
		User: "u", Password: "p", Database: "d"}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Open(ctx, cfg, resilience.Backoff{MaxAttempts: 2, InitialDelay: time.Millisecond})
	assert.ErrorContains(t, err, "pinging postgres")
}
