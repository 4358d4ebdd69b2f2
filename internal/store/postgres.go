package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/shortener"
)

const uniqueViolation = "23505"

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) NextID(ctx context.Context) (uint64, error) {
	var id int64
	if err := p.pool.QueryRow(ctx, `SELECT nextval('short_url_ids')`).Scan(&id); err != nil {
		return 0, fmt.Errorf("postgres: next id: %w", err)
	}

	return uint64(id), nil
}

func (p *PostgresStore) GetByLong(ctx context.Context, longURL string) (shortener.Code, error) {
	query := `
		SELECT code
		FROM short_urls
		WHERE long_url = $1
		  AND (expires_at IS NULL OR expires_at > now())
	`

	var code string

	err := p.pool.QueryRow(ctx, query, longURL).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shortener.ErrLongURLNotFound
		}

		return "", fmt.Errorf("postgres: get by long url: %w", err)
	}

	return shortener.Code(code), nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	query := `
		SELECT protocol, host_path, created_at, expires_at
		FROM short_urls
		WHERE code = $1
		  AND (expires_at IS NULL OR expires_at > now())
	`

	var (
		protocol, hostPath string
		createdAt          time.Time
		expiresAt          *time.Time
	)

	err := p.pool.QueryRow(ctx, query, string(code)).Scan(&protocol, &hostPath, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrShortURLNotFound
		}

		return nil, fmt.Errorf("postgres: get by code: %w", err)
	}

	link := shortener.NewLink(code, shortener.JoinProtocol(protocol, hostPath))
	link.CreatedAt = createdAt

	if expiresAt != nil {
		link.ExpiresAt = *expiresAt
	}

	return link, nil
}

// Save inserts the link. Expired rows holding the same URL are cleared in the
// same transaction so the unique constraint only guards live links.
func (p *PostgresStore) Save(ctx context.Context, link *shortener.Link, ttl time.Duration) error {
	createdAt := link.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var expiresAt *time.Time

	if ttl > 0 {
		t := createdAt.Add(ttl)
		expiresAt = &t
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM short_urls
			WHERE long_url = $1 AND expires_at IS NOT NULL AND expires_at <= now()
		`, link.LongURL)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO short_urls (code, protocol, host_path, long_url, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (long_url) DO NOTHING
		`,
			string(link.Code),
			link.Protocol,
			link.HostPath,
			link.LongURL,
			createdAt,
			expiresAt,
		)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return shortener.ErrLongURLExists
		}

		return nil
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return shortener.ErrLongURLExists
	}

	if err != nil && !errors.Is(err, shortener.ErrLongURLExists) {
		return fmt.Errorf("postgres: save: %w", err)
	}

	return err
}

func (p *PostgresStore) Delete(ctx context.Context, link *shortener.Link) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM short_urls WHERE code = $1`, string(link.Code)); err != nil {
		return fmt.Errorf("postgres: delete: %w", err)
	}

	return nil
}

func (p *PostgresStore) Search(ctx context.Context, q shortener.SearchQuery) ([]shortener.Summary, error) {
	query := `
		SELECT code, long_url
		FROM short_urls
		WHERE lower(host_path) LIKE $1 ESCAPE '\'
		  AND ($2 = '' OR protocol = $2)
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY host_path
		LIMIT $3
	`

	rows, err := p.pool.Query(ctx, query, likePrefix(strings.ToLower(q.Text)), q.Protocol, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("postgres: search: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shortener.Summary, error) {
		var code, longURL string

		err := row.Scan(&code, &longURL)

		return shortener.Summary{Code: shortener.Code(code), LongURL: longURL}, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: search: %w", err)
	}

	return results, nil
}

// Shutdown is a no-op for PostgresStore (pool managed externally).
func (p *PostgresStore) Shutdown() error {
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(s string) string {
	return likeEscaper.Replace(s) + "%"
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
