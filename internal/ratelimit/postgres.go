package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the quota table in a shared database so multiple
// instances enforce one budget per caller. Same fixed-window semantics as
// MemoryStore; the per-key row lock replaces the process mutex.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

const quotaSchema = `
CREATE TABLE IF NOT EXISTS quota_windows (
	key      text PRIMARY KEY,
	count    integer     NOT NULL,
	reset_at timestamptz NOT NULL
)`

// NewPostgresStore connects a pool and ensures the quota table exists.
func NewPostgresStore(ctx context.Context, url string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pc, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	pc.MaxConns = 10
	pc.MaxConnLifetime = 30 * time.Minute
	pc.MaxConnIdleTime = 5 * time.Minute
	pc.ConnConfig.RuntimeParams["application_name"] = "label-auditor"

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, quotaSchema); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("ratelimit.postgres_store_ready")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Check implements Store. The row is read FOR UPDATE so two concurrent
// requests for one key serialize on the database instead of racing.
func (s *PostgresStore) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()

	var count int
	var resetAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT count, reset_at FROM quota_windows WHERE key = $1 FOR UPDATE`, key,
	).Scan(&count, &resetAt)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		resetAt = now.Add(window)
		if _, err := tx.Exec(ctx,
			`INSERT INTO quota_windows (key, count, reset_at) VALUES ($1, 1, $2)`, key, resetAt,
		); err != nil {
			return Result{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return Result{}, err
		}
		return Result{OK: true, Remaining: limit - 1, ResetAt: resetAt}, nil

	case err != nil:
		return Result{}, err
	}

	if now.After(resetAt) {
		resetAt = now.Add(window)
		if _, err := tx.Exec(ctx,
			`UPDATE quota_windows SET count = 1, reset_at = $2 WHERE key = $1`, key, resetAt,
		); err != nil {
			return Result{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return Result{}, err
		}
		return Result{OK: true, Remaining: limit - 1, ResetAt: resetAt}, nil
	}

	if count >= limit {
		if err := tx.Commit(ctx); err != nil {
			return Result{}, err
		}
		return Result{OK: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	count++
	if _, err := tx.Exec(ctx,
		`UPDATE quota_windows SET count = $2 WHERE key = $1`, key, count,
	); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}
	return Result{OK: true, Remaining: limit - count, ResetAt: resetAt}, nil
}
