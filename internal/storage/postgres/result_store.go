// Package postgres provides the Postgres-backed results store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinotools/kinoscraper/internal/storage"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ResultStoreConfig controls the Postgres connection pool.
type ResultStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// ResultStore writes scraping result rows into Postgres.
//
// It assumes a table schema like:
//
//	CREATE TABLE scraping_results (
//	    id BIGSERIAL PRIMARY KEY,
//	    film_title TEXT NOT NULL,
//	    film_url TEXT,
//	    genre TEXT,
//	    year INT,
//	    rating DOUBLE PRECISION,
//	    director TEXT,
//	    actors TEXT,
//	    duration TEXT,
//	    country TEXT,
//	    description TEXT,
//	    poster_url TEXT,
//	    genres TEXT,
//	    scraping_method TEXT NOT NULL,
//	    scraped_at TIMESTAMPTZ NOT NULL
//	);
type ResultStore struct {
	pool  pool
	table string
}

// NewResultStore creates a Postgres-backed ResultStore using the provided config.
func NewResultStore(ctx context.Context, cfg ResultStoreConfig) (*ResultStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "scraping_results"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ResultStore{pool: p, table: table}, nil
}

// NewResultStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewResultStoreWithPool(p pool, table string) (*ResultStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "scraping_results"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ResultStore{pool: p, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *ResultStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// StoreResult inserts one scraping result row and returns its id.
func (s *ResultStore) StoreResult(ctx context.Context, rec storage.Record) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, fmt.Errorf("result store is not configured")
	}
	if rec.Title == "" {
		return 0, fmt.Errorf("record title is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	film_title,
	film_url,
	genre,
	year,
	rating,
	director,
	actors,
	duration,
	country,
	description,
	poster_url,
	genres,
	scraping_method,
	scraped_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) RETURNING id`, s.table)

	args := []any{
		rec.Title,
		rec.URL,
		rec.Genre,
		rec.Year,
		rec.Rating,
		rec.Director,
		rec.Actors,
		rec.Duration,
		rec.Country,
		rec.Description,
		rec.PosterURL,
		rec.Genres,
		rec.Method,
		time.Now().UTC(),
	}

	var id int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert scraping result: %w", err)
	}
	return id, nil
}

// ListResults returns stored rows ordered newest first.
func (s *ResultStore) ListResults(ctx context.Context, offset, limit int) ([]storage.StoredResult, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("result store is not configured")
	}
	query := fmt.Sprintf(`
SELECT id, film_title, film_url, genre, year, rating, scraping_method, scraped_at
FROM %s
ORDER BY scraped_at DESC
OFFSET $1 LIMIT $2`, s.table)

	rows, err := s.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("query scraping results: %w", err)
	}
	defer rows.Close()

	var results []storage.StoredResult
	for rows.Next() {
		var r storage.StoredResult
		if err := rows.Scan(&r.ID, &r.Title, &r.URL, &r.Genre, &r.Year, &r.Rating, &r.Method, &r.ScrapedAt); err != nil {
			return nil, fmt.Errorf("scan scraping result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scraping results: %w", err)
	}
	return results, nil
}
