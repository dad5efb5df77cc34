package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Cache using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS workbook_cache (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL UNIQUE,
	etag       TEXT NOT NULL DEFAULT '',
	body       BLOB NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_workbook_cache_expires_at ON workbook_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetWorkbook(ctx context.Context, url string) (*CachedWorkbook, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, etag, body, fetched_at, expires_at FROM workbook_cache WHERE url = ?`,
		url,
	)

	var wb CachedWorkbook
	err := row.Scan(&wb.ID, &wb.URL, &wb.ETag, &wb.Body, &wb.FetchedAt, &wb.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get workbook %s", url)
	}
	wb.Size = len(wb.Body)
	return &wb, nil
}

func (s *SQLiteStore) PutWorkbook(ctx context.Context, wb CachedWorkbook, ttl time.Duration) error {
	if wb.URL == "" {
		return eris.New("sqlite: put workbook: empty url")
	}
	now := time.Now().UTC()
	body := wb.Body
	if body == nil {
		body = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workbook_cache (id, url, etag, body, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (url) DO UPDATE SET etag = excluded.etag, body = excluded.body,
		 fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		uuid.New().String(), wb.URL, wb.ETag, body, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "sqlite: put workbook %s", wb.URL)
}

func (s *SQLiteStore) ListWorkbooks(ctx context.Context) ([]CachedWorkbook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, etag, length(body), fetched_at, expires_at FROM workbook_cache
		 ORDER BY fetched_at DESC, url`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list workbooks")
	}
	defer rows.Close() //nolint:errcheck

	var out []CachedWorkbook
	for rows.Next() {
		var wb CachedWorkbook
		if err := rows.Scan(&wb.ID, &wb.URL, &wb.ETag, &wb.Size, &wb.FetchedAt, &wb.ExpiresAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan workbook")
		}
		out = append(out, wb)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate workbooks")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM workbook_cache WHERE expires_at <= ?`,
		time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired workbooks")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}
