package store

import (
	"context"
	"time"
)

// CachedWorkbook is a downloaded workbook body keyed by its source URL.
type CachedWorkbook struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ETag      string    `json:"etag,omitempty"`
	Body      []byte    `json:"-"`
	Size      int       `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (c *CachedWorkbook) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Cache persists raw workbook bytes between runs. Parsed rows are never
// stored; every load recomputes from the body.
type Cache interface {
	// GetWorkbook returns the entry for url whether or not it has expired,
	// or nil when there is none.
	GetWorkbook(ctx context.Context, url string) (*CachedWorkbook, error)
	// PutWorkbook inserts or replaces the entry for wb.URL. FetchedAt is set
	// to now and ExpiresAt to now+ttl.
	PutWorkbook(ctx context.Context, wb CachedWorkbook, ttl time.Duration) error
	// ListWorkbooks returns entry metadata without bodies, newest first.
	ListWorkbooks(ctx context.Context) ([]CachedWorkbook, error)
	// DeleteExpired removes expired entries and returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}
