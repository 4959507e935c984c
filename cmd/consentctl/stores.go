package main

import (
	"context"
	"fmt"

	"consentmgr/internal/identity"
	"consentmgr/internal/platform/config"
	"consentmgr/internal/platform/postgres"
	"consentmgr/internal/platform/redis"
)

// openStore builds the identity store selected by CONSENT_IDENTITY_BACKEND.
// The returned func releases any connections it opened.
func openStore(ctx context.Context, cfg config.Config) (identity.Store, func(), error) {
	noop := func() {}
	switch cfg.Identity.Backend {
	case config.IdentityBackendMemory:
		return identity.NewMemoryStore(), noop, nil
	case config.IdentityBackendRedis:
		rc, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("identity store: %w", err)
		}
		return identity.NewRedisStore(rc.Client), func() { _ = rc.Close() }, nil
	case config.IdentityBackendPostgres:
		pool, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("identity store: %w", err)
		}
		store := identity.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("identity store: %w", err)
		}
		return store, pool.Close, nil
	default:
		path := cfg.Identity.FilePath
		if path == "" {
			var err error
			if path, err = identity.DefaultFilePath(); err != nil {
				return nil, nil, fmt.Errorf("identity store: %w", err)
			}
		}
		return identity.NewFileStore(path), noop, nil
	}
}
