package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"consentmgr/pkg/platform/sentinel"
	"consentmgr/pkg/requestcontext"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS visitor_identities (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	expires_at TIMESTAMPTZ,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore persists identifiers in PostgreSQL. Expiry is evaluated
// against requestcontext.Now on read; RemoveExpiredAt purges old rows.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the visitor_identities table if it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create identity schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var (
		value     string
		expiresAt *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT value, expires_at FROM visitor_identities WHERE key = $1`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get identity: %w", err)
	}
	if expiresAt != nil && expired(*expiresAt, requestcontext.Now(ctx)) {
		return "", sentinel.ErrNotFound
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	now := requestcontext.Now(ctx)
	var expiresAt *time.Time
	if ttl > 0 {
		exp := now.Add(ttl)
		expiresAt = &exp
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO visitor_identities (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at`,
		key, value, expiresAt, now,
	)
	if err != nil {
		return fmt.Errorf("set identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM visitor_identities WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

// RemoveExpiredAt deletes rows that have expired as of now.
// Exported for testability; background cleanup passes wall-clock time.
func (s *PostgresStore) RemoveExpiredAt(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM visitor_identities WHERE expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("cleanup identities: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StartCleanup runs periodic cleanup of expired rows until ctx is cancelled.
func (s *PostgresStore) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RemoveExpiredAt(ctx, time.Now()); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
