package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sortly_kv (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore is a KeyValueStore in a Postgres table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps pool and makes sure the table exists. The caller
// owns the pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("postgres store: create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM sortly_kv WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres store: get %q: %w", key, err)
	}
	return value, true, nil
}

func (p *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO sortly_kv (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("postgres store: set %q: %w", key, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sortly_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres store: delete %q: %w", key, err)
	}
	return nil
}

// Update locks the row (inserting an empty one if absent) and runs fn in the
// same transaction, so concurrent servers sharing a database do not lose writes.
func (p *PostgresStore) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO sortly_kv (key, value) VALUES ($1, '') ON CONFLICT (key) DO NOTHING`, key)
		if err != nil {
			return fmt.Errorf("postgres store: reserve %q: %w", key, err)
		}

		var old []byte
		err = tx.QueryRow(ctx, `SELECT value FROM sortly_kv WHERE key = $1 FOR UPDATE`, key).Scan(&old)
		if err != nil {
			return fmt.Errorf("postgres store: lock %q: %w", key, err)
		}
		if len(old) == 0 {
			old = nil
		}

		next, err := fn(old)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE sortly_kv SET value = $2, updated_at = now() WHERE key = $1`, key, next)
		if err != nil {
			return fmt.Errorf("postgres store: update %q: %w", key, err)
		}
		return nil
	})
}

// Ping checks the connection.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
