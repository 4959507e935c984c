// Package identity obtains a durable anonymous identifier for a visitor.
//
// A Manager reads the identifier from a Store under a primary key, adopts a
// value found under a legacy key, or mints a fresh v4 UUID. Whatever it
// returns has been written back under the primary key with the configured
// expiry, so the same identifier comes back until the store is cleared.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"consentmgr/internal/platform/metrics"
	id "consentmgr/pkg/domain"
	dErrors "consentmgr/pkg/domain-errors"
	"consentmgr/pkg/platform/sentinel"
)

const (
	// DefaultKey is the primary storage key (and cookie name).
	DefaultKey = "user_id"
	// LegacyKey is where older clients kept the identifier.
	LegacyKey = "anonymous_user_id"
	// DefaultTTL is roughly one year.
	DefaultTTL = 365 * 24 * time.Hour
)

// Store persists string values under keys with an optional expiry.
// Get returns sentinel.ErrNotFound for absent or expired keys. A ttl of zero
// means the value does not expire.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Manager resolves the visitor identifier against one Store.
type Manager struct {
	mu         sync.Mutex
	store      Store
	key        string
	legacyKeys []string
	ttl        time.Duration
	newID      func() string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithKey overrides the primary key.
func WithKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// WithLegacyKeys sets the keys checked, in order, when the primary is empty.
func WithLegacyKeys(keys ...string) Option {
	return func(m *Manager) {
		m.legacyKeys = keys
	}
}

// WithTTL sets the expiry written with the identifier. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl >= 0 {
			m.ttl = ttl
		}
	}
}

// WithIDGenerator replaces uuid.NewString, for tests.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics counts identifiers minted and adopted.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// NewManager builds a Manager with the primary key "user_id", the legacy key
// "anonymous_user_id" and a one-year expiry.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		key:        DefaultKey,
		legacyKeys: []string{LegacyKey},
		ttl:        DefaultTTL,
		newID:      uuid.NewString,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Key returns the primary key.
func (m *Manager) Key() string {
	return m.key
}

// TTL returns the expiry written with the identifier.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Resolve returns the stored identifier, adopting a legacy value or minting a
// new one when the primary key is empty. Stored values that do not parse as a
// visitor id are ignored. Calls are serialized so concurrent first calls
// agree on one identifier.
func (m *Manager) Resolve(ctx context.Context) (id.VisitorID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	visitorID, ok, err := m.lookup(ctx, m.key)
	if err != nil {
		return id.VisitorID{}, err
	}
	if ok {
		return visitorID, nil
	}

	for _, legacy := range m.legacyKeys {
		if legacy == "" || legacy == m.key {
			continue
		}
		visitorID, ok, err = m.lookup(ctx, legacy)
		if err != nil {
			return id.VisitorID{}, err
		}
		if !ok {
			continue
		}
		if err := m.persist(ctx, visitorID); err != nil {
			return id.VisitorID{}, err
		}
		m.metrics.IncrementIdentities("legacy")
		m.logger.InfoContext(ctx, "adopted legacy visitor id", "legacy_key", legacy, "key", m.key)
		return visitorID, nil
	}

	visitorID, err = id.ParseVisitorID(m.newID())
	if err != nil {
		return id.VisitorID{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate visitor id")
	}
	if err := m.persist(ctx, visitorID); err != nil {
		return id.VisitorID{}, err
	}
	m.metrics.IncrementIdentities("generated")
	m.logger.DebugContext(ctx, "generated visitor id", "key", m.key)
	return visitorID, nil
}

// Forget removes the identifier under the primary and legacy keys. The next
// Resolve mints a new one.
func (m *Manager) Forget(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := append([]string{m.key}, m.legacyKeys...)
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := m.store.Delete(ctx, key); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete visitor id")
		}
	}
	return nil
}

func (m *Manager) lookup(ctx context.Context, key string) (id.VisitorID, bool, error) {
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return id.VisitorID{}, false, nil
	}
	if err != nil {
		return id.VisitorID{}, false, dErrors.Wrap(err, dErrors.CodeUnavailable, "read visitor id")
	}
	visitorID, err := id.ParseVisitorID(raw)
	if err != nil {
		m.logger.WarnContext(ctx, "ignoring invalid stored visitor id", "key", key, "error", err)
		return id.VisitorID{}, false, nil
	}
	return visitorID, true, nil
}

func (m *Manager) persist(ctx context.Context, visitorID id.VisitorID) error {
	if err := m.store.Set(ctx, m.key, visitorID.String(), m.ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "write visitor id")
	}
	return nil
}

// Fixed resolves to an identifier that is already known, such as one read
// from a cookie by HTTP middleware.
type Fixed id.VisitorID

// Resolve returns the fixed identifier.
func (f Fixed) Resolve(context.Context) (id.VisitorID, error) {
	return id.VisitorID(f), nil
}
