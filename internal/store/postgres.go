package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Cache using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"get_workbook": `SELECT id, url, etag, body, fetched_at, expires_at FROM workbook_cache WHERE url = $1`,
	"put_workbook": `INSERT INTO workbook_cache (id, url, etag, body, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (url) DO UPDATE SET etag = $3, body = $4, fetched_at = $5, expires_at = $6`,
	"delete_expired_workbooks": `DELETE FROM workbook_cache WHERE expires_at <= now()`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS workbook_cache (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	url        TEXT NOT NULL UNIQUE,
	etag       TEXT NOT NULL DEFAULT '',
	body       BYTEA NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workbook_cache_expires_at ON workbook_cache(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetWorkbook(ctx context.Context, url string) (*CachedWorkbook, error) {
	var wb CachedWorkbook
	err := s.pool.QueryRow(ctx,
		`SELECT id, url, etag, body, fetched_at, expires_at FROM workbook_cache WHERE url = $1`,
		url,
	).Scan(&wb.ID, &wb.URL, &wb.ETag, &wb.Body, &wb.FetchedAt, &wb.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get workbook %s", url)
	}
	wb.Size = len(wb.Body)
	return &wb, nil
}

func (s *PostgresStore) PutWorkbook(ctx context.Context, wb CachedWorkbook, ttl time.Duration) error {
	if wb.URL == "" {
		return eris.New("postgres: put workbook: empty url")
	}
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO workbook_cache (id, url, etag, body, fetched_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (url) DO UPDATE SET etag = $3, body = $4, fetched_at = $5, expires_at = $6`,
		uuid.New().String(), wb.URL, wb.ETag, wb.Body, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "postgres: put workbook %s", wb.URL)
}

func (s *PostgresStore) ListWorkbooks(ctx context.Context) ([]CachedWorkbook, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, etag, octet_length(body), fetched_at, expires_at FROM workbook_cache
		 ORDER BY fetched_at DESC, url`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list workbooks")
	}
	defer rows.Close()

	var out []CachedWorkbook
	for rows.Next() {
		var wb CachedWorkbook
		if err := rows.Scan(&wb.ID, &wb.URL, &wb.ETag, &wb.Size, &wb.FetchedAt, &wb.ExpiresAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan workbook")
		}
		out = append(out, wb)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate workbooks")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM workbook_cache WHERE expires_at <= now()`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired workbooks")
	}
	return int(tag.RowsAffected()), nil
}
