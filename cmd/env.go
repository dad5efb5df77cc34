package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leaderboard-cli/internal/config"
	"github.com/sells-group/leaderboard-cli/internal/fetcher"
	"github.com/sells-group/leaderboard-cli/internal/leaderboard"
	"github.com/sells-group/leaderboard-cli/internal/metrics"
	"github.com/sells-group/leaderboard-cli/internal/sheet"
	"github.com/sells-group/leaderboard-cli/internal/source"
	"github.com/sells-group/leaderboard-cli/internal/store"
)

// appEnv holds the initialized dependencies shared by the data commands.
type appEnv struct {
	Loader *source.Loader
	Cache  store.Cache
}

// Close releases the cache connection, if any.
func (e *appEnv) Close() {
	if e.Cache != nil {
		_ = e.Cache.Close()
	}
}

// initEnv validates cfg for mode and wires fetcher, cache, and loader.
func initEnv(ctx context.Context, mode string, m *metrics.Metrics) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	curated, err := loadCurated(cfg.Curated)
	if err != nil {
		return nil, err
	}

	cache, err := initCache(ctx)
	if err != nil {
		return nil, err
	}

	loader := source.NewLoader(newFetcher(cfg.Fetch), source.Options{
		VerifiedURL:     cfg.Sources.VerifiedURL,
		SelfReportedURL: cfg.Sources.SelfReportedURL,
		Curated:         curated,
		Cache:           cache,
		CacheTTL:        time.Duration(cfg.Store.CacheTTLMin) * time.Minute,
		Metrics:         m,
	})

	zap.L().Debug("environment ready",
		zap.String("store", cfg.Store.Driver),
		zap.Int("curated", len(curated)),
	)
	return &appEnv{Loader: loader, Cache: cache}, nil
}

// initCache opens the configured cache backend and applies its schema.
// Driver "none" returns a nil cache.
func initCache(ctx context.Context) (store.Cache, error) {
	var (
		c   store.Cache
		err error
	)
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		c, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		c, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := c.Migrate(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func newFetcher(fc config.FetchConfig) fetcher.Fetcher {
	timeout := time.Duration(fc.TimeoutSecs) * time.Second
	return fetcher.NewRouter(
		fetcher.HTTPOptions{
			UserAgent:     fc.UserAgent,
			Timeout:       timeout,
			MaxRetries:    fc.MaxRetries,
			RatePerSecond: fc.RatePerSecond,
		},
		fetcher.FTPOptions{
			Timeout:  timeout,
			User:     fc.FTPUser,
			Password: fc.FTPPassword,
		},
	)
}

// loadCurated collects the built-in entries and any from the curated file.
func loadCurated(cc config.CuratedConfig) ([]sheet.Row, error) {
	var entries []leaderboard.CuratedEntry
	if cc.Builtin {
		entries = append(entries, leaderboard.BuiltinCurated()...)
	}
	if cc.File != "" {
		extra, err := leaderboard.LoadCuratedFile(cc.File)
		if err != nil {
			return nil, err
		}
		entries = append(entries, extra...)
	}
	return leaderboard.CuratedRows(entries), nil
}
