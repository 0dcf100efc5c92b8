// Package pgstore implements idempotency.Store on PostgreSQL.
//
// Expired rows are invisible to both store operations. Sweeper deletes
// them in the background.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// MinTTL is the shortest record lifetime accepted by New.
const MinTTL = 24 * time.Hour

//go:embed migrations/001_init.sql
var schema string

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Connect opens a pool and pings the database.
func Connect(ctx context.Context, cfg *pgxpool.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	logger.Info("connecting to database",
		zap.String("host", cfg.ConnConfig.Host),
		zap.Uint16("port", cfg.ConnConfig.Port),
		zap.String("database", cfg.ConnConfig.Database),
	)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("connected to database",
		zap.Int32("max_conns", cfg.MaxConns),
		zap.Int32("min_conns", cfg.MinConns),
	)
	return pool, nil
}

// Migrate creates the records table if needed.
func Migrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	return nil
}

type Store struct {
	db  DB
	ttl time.Duration
}

// New returns a store with records living for ttl, raised to MinTTL.
func New(db DB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: max(ttl, MinTTL)}
}

const insertQuery = `
	INSERT INTO combo_idempotency (key, value, expires_at)
	VALUES ($1, $2, now() + make_interval(secs => $3))
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value, created_at = now(), expires_at = EXCLUDED.expires_at
	WHERE combo_idempotency.expires_at <= now()
	RETURNING key
`

const selectQuery = `
	SELECT value FROM combo_idempotency
	WHERE key = $1 AND expires_at > now()
`

// SetIfAbsent inserts the row, or takes over an expired one. A live row is
// left unchanged by the upsert and read back afterwards.
func (s *Store) SetIfAbsent(ctx context.Context, key, value string) (string, error) {
	for range 3 {
		var k string
		err := s.db.QueryRow(ctx, insertQuery, key, value, s.ttl.Seconds()).Scan(&k)
		if err == nil {
			return "", nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("insert idempotency record: %w", err)
		}

		var prev string
		err = s.db.QueryRow(ctx, selectQuery, key).Scan(&prev)
		if err == nil {
			return prev, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("read idempotency record: %w", err)
		}
		// The row expired between the two statements.
	}
	return "", fmt.Errorf("idempotency record %s kept expiring", key)
}

func (s *Store) SetIfPresent(ctx context.Context, key, value string) error {
	query := `
		UPDATE combo_idempotency
		SET value = $2
		WHERE key = $1 AND expires_at > now()
	`
	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("update idempotency record: %w", err)
	}
	return nil
}
