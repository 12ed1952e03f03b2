package cachestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sidlin0932/dht-sensor-monitor/internal/jsonx"
)

//go:embed sql/insert-store.sql
var insertStoreSQL string

//go:embed sql/list-stores.sql
var listStoresSQL string

//go:embed sql/delete-store.sql
var deleteStoreSQL string

//go:embed sql/match-entry.sql
var matchEntrySQL string

//go:embed sql/match-any-entry.sql
var matchAnyEntrySQL string

//go:embed sql/upsert-entry.sql
var upsertEntrySQL string

type sqliteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage returns a Storage backed by the cache_stores and
// cache_entries tables. The schema comes from the migrate package.
func NewSQLiteStorage(db *sql.DB) Storage {
	return &sqliteStorage{db: db}
}

func (s *sqliteStorage) Open(ctx context.Context, name string) (Cache, error) {
	if _, err := s.db.ExecContext(ctx, insertStoreSQL, name); err != nil {
		return nil, fmt.Errorf("open cache %q: %w", name, err)
	}
	return &sqliteCache{db: s.db, name: name}, nil
}

func (s *sqliteStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, listStoresSQL)
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close cache store rows", "error", err)
		}
	}()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *sqliteStorage) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, deleteStoreSQL, name)
	if err != nil {
		return false, fmt.Errorf("delete cache %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete cache %q: %w", name, err)
	}
	return n > 0, nil
}

func (s *sqliteStorage) Match(ctx context.Context, req *http.Request) (*Entry, error) {
	method, url, ok := requestKey(req)
	if !ok {
		return nil, ErrCacheMiss
	}
	return scanEntry(s.db.QueryRowContext(ctx, matchAnyEntrySQL, method, url), method, url)
}

type sqliteCache struct {
	db   *sql.DB
	name string
}

func (c *sqliteCache) Name() string { return c.name }

func (c *sqliteCache) Match(ctx context.Context, req *http.Request) (*Entry, error) {
	method, url, ok := requestKey(req)
	if !ok {
		return nil, ErrCacheMiss
	}
	return scanEntry(c.db.QueryRowContext(ctx, matchEntrySQL, c.name, method, url), method, url)
}

func (c *sqliteCache) Put(ctx context.Context, e *Entry) error {
	return c.PutAll(ctx, []*Entry{e})
}

func (c *sqliteCache) PutAll(ctx context.Context, entries []*Entry) (err error) {
	for _, e := range entries {
		if err := validEntry(e); err != nil {
			return err
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache write: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, e := range entries {
		header, err := jsonx.Marshal(e.Header)
		if err != nil {
			return fmt.Errorf("encode header for %s: %w", e.URL, err)
		}
		if e.Header == nil {
			header = []byte("{}")
		}
		body := e.Body
		if body == nil {
			body = []byte{}
		}
		storedAt := e.StoredAt
		if storedAt.IsZero() {
			storedAt = time.Now()
		}
		if _, err := tx.ExecContext(ctx, upsertEntrySQL,
			c.name, e.Method, e.URL, e.Status, string(header), body, storedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("store %s in cache %q: %w", e.URL, c.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache write: %w", err)
	}
	return nil
}

func scanEntry(row *sql.Row, method, url string) (*Entry, error) {
	var (
		status   int
		header   string
		body     []byte
		storedAt string
	)
	if err := row.Scan(&status, &header, &body, &storedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("match %s %s: %w", method, url, err)
	}
	e := &Entry{Method: method, URL: url, Status: status, Body: body, Header: make(http.Header)}
	if err := jsonx.Unmarshal([]byte(header), &e.Header); err != nil {
		return nil, fmt.Errorf("decode header for %s: %w", url, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, storedAt); err == nil {
		e.StoredAt = t
	}
	return e, nil
}
