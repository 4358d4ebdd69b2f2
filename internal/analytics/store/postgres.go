package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/shortener"
)

// Postgres keeps per-millisecond access counts in the link_access table.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgres creates a PostgreSQL-backed tracker.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		now:  time.Now,
	}
}

func (p *Postgres) Create(ctx context.Context, code shortener.Code, ttl time.Duration) error {
	var expiresAt *time.Time

	if ttl > 0 {
		t := p.now().Add(ttl)
		expiresAt = &t
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO link_series (code, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET expires_at = EXCLUDED.expires_at
	`, string(code), expiresAt)
	if err != nil {
		return fmt.Errorf("postgres: create series: %w", err)
	}

	return nil
}

func (p *Postgres) Track(ctx context.Context, code shortener.Code, at time.Time) error {
	ts := at.UTC().Truncate(time.Millisecond)

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO link_series (code) VALUES ($1)
			ON CONFLICT (code) DO NOTHING
		`, string(code))
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO link_access (code, ts, count) VALUES ($1, $2, 1)
			ON CONFLICT (code, ts) DO UPDATE SET count = link_access.count + EXCLUDED.count
		`, string(code), ts)

		return err
	})
	if err != nil {
		return fmt.Errorf("postgres: track: %w", err)
	}

	return nil
}

func (p *Postgres) Sum(ctx context.Context, code shortener.Code, start, end time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(a.count), 0)
		FROM link_series s
		LEFT JOIN link_access a ON a.code = s.code AND a.ts BETWEEN $2 AND $3
		WHERE s.code = $1
		  AND (s.expires_at IS NULL OR s.expires_at > now())
		GROUP BY s.code
	`

	var total int64

	err := p.pool.QueryRow(ctx, query, string(code), start, end).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shortener.ErrTimeseriesNotFound
		}

		return 0, fmt.Errorf("postgres: sum: %w", err)
	}

	return total, nil
}

func (p *Postgres) Query(ctx context.Context, code shortener.Code, start, end time.Time) ([]shortener.Sample, error) {
	var exists bool

	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM link_series
			WHERE code = $1 AND (expires_at IS NULL OR expires_at > now())
		)
	`, string(code)).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}

	if !exists {
		return nil, shortener.ErrTimeseriesNotFound
	}

	rows, err := p.pool.Query(ctx, `
		SELECT ts, count
		FROM link_access
		WHERE code = $1 AND ts BETWEEN $2 AND $3
		ORDER BY ts
	`, string(code), start, end)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}

	samples, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shortener.Sample, error) {
		var s shortener.Sample

		err := row.Scan(&s.Timestamp, &s.Count)
		s.Timestamp = s.Timestamp.UTC()

		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}

	return samples, nil
}

func (p *Postgres) Delete(ctx context.Context, code shortener.Code) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM link_series WHERE code = $1`, string(code)); err != nil {
		return fmt.Errorf("postgres: delete series: %w", err)
	}

	return nil
}

// Shutdown is a no-op for Postgres (pool managed externally).
func (p *Postgres) Shutdown() error {
	return nil
}

// Compile-time check.
var _ shortener.Tracker = (*Postgres)(nil)
