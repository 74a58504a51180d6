package history

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sortly/internal/config"
)

// Open builds the backend selected by cfg.History and wraps it in a Store.
// The returned close function releases the backend and is never nil.
func Open(ctx context.Context, cfg *config.Config) (*Store, func(), error) {
	kv, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewStore(kv, WithMaxEntries(cfg.History.MaxEntries)), closeFn, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (KeyValueStore, func(), error) {
	noop := func() {}

	switch strings.ToLower(cfg.History.Backend) {
	case config.BackendMemory, "":
		slog.Info("history backend", "backend", config.BackendMemory)
		return NewMemoryStore(), noop, nil

	case config.BackendFile:
		fs, err := NewFileStore(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("history backend", "backend", config.BackendFile, "dir", cfg.History.Path)
		return fs, noop, nil

	case config.BackendSQLite:
		path := cfg.History.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "history.db")
		}
		s, err := NewSQLiteStore(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("history backend", "backend", config.BackendSQLite, "path", path)
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("closing sqlite history store", "error", err)
			}
		}, nil

	case config.BackendPostgres:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		s, err := NewPostgresStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
}

func openPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConnLifetime = db.MaxConnLifetime
	poolConfig.MaxConnIdleTime = db.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Log which database we connected to
	if u, err := url.Parse(db.URL); err == nil {
		slog.Info("history backend", "backend", config.BackendPostgres, "database", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("history backend", "backend", config.BackendPostgres)
	}
	return pool, nil
}
