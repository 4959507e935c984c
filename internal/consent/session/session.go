// Package session holds the per-visitor consent state machine.
//
// A Controller moves Uninitialized -> Loading -> Ready | Error. Initialize
// resolves the visitor identifier, then loads the purpose catalog and the
// visitor's decisions concurrently while aggregate statistics load on the
// side. Mutations write through to the backend and only touch local state on
// success.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"consentmgr/internal/consent/models"
	"consentmgr/internal/platform/metrics"
	id "consentmgr/pkg/domain"
	dErrors "consentmgr/pkg/domain-errors"
	"consentmgr/pkg/platform/sentinel"
)

// Messages shown to the visitor. Causes are logged, never displayed.
const (
	MsgInitFailed       = "Failed to initialize application"
	MsgPurposesFailed   = "Failed to load consent purposes"
	MsgConsentsFailed   = "Failed to load your consent preferences"
	MsgUpdateFailed     = "Failed to update consent preference"
	MsgBulkUpdateFailed = "Failed to update consent preferences"
)

// Backend is the subset of the consent backend a session needs.
type Backend interface {
	ListPurposes(ctx context.Context) ([]models.Purpose, error)
	ListConsents(ctx context.Context, userID string) ([]models.ConsentRecord, error)
	Stats(ctx context.Context) (models.Stats, error)
	UpsertConsent(ctx context.Context, req models.UpsertConsentRequest) (models.ConsentRecord, error)
	BulkUpsertConsents(ctx context.Context, req models.BulkConsentRequest) (models.BulkConsentResponse, error)
}

// IdentityResolver yields the visitor identifier.
type IdentityResolver interface {
	Resolve(ctx context.Context) (id.VisitorID, error)
}

// UserError carries the generic message a surface shows in place of the
// underlying failure.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// Controller is the explicit state container for one visitor. It is safe for
// concurrent use; backend I/O never runs under the state lock.
type Controller struct {
	backend  Backend
	identity IdentityResolver
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu              sync.RWMutex
	state           State
	visitorID       id.VisitorID
	purposes        []models.Purpose
	consents        models.ConsentMap
	stats           *models.Stats
	bannerVisible   bool
	preferencesOpen bool
	fatalErr        string
	inlineErr       string
	initSeq         uint64
	statsGen        uint64

	writes    *writeSequencer
	refreshes sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records initialization, mutation and stats outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// New returns an Uninitialized controller with the consent banner visible.
func New(backend Backend, identity IdentityResolver, opts ...Option) *Controller {
	c := &Controller{
		backend:       backend,
		identity:      identity,
		logger:        slog.Default(),
		state:         StateUninitialized,
		consents:      models.ConsentMap{},
		bannerVisible: true,
		writes:        newWriteSequencer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Initialize loads the session. Purposes and consents are mandatory: the
// first of them to fail puts the controller in Error with that failure's
// message. Stats load best-effort and are not waited for. When Initialize
// calls overlap only the latest one applies its result.
func (c *Controller) Initialize(ctx context.Context) error {
	c.mu.Lock()
	c.initSeq++
	seq := c.initSeq
	c.state = StateLoading
	c.fatalErr = ""
	c.mu.Unlock()

	visitorID, err := c.identity.Resolve(ctx)
	if err != nil {
		return c.failInit(ctx, seq, &UserError{Message: MsgInitFailed, Err: err})
	}

	c.refreshStats(ctx)

	var (
		purposes []models.Purpose
		records  []models.ConsentRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := c.backend.ListPurposes(gctx)
		if err != nil {
			return &UserError{Message: MsgPurposesFailed, Err: err}
		}
		purposes = p
		return nil
	})
	g.Go(func() error {
		r, err := c.backend.ListConsents(gctx, visitorID.String())
		if err != nil {
			return &UserError{Message: MsgConsentsFailed, Err: err}
		}
		records = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return c.failInit(ctx, seq, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.initSeq {
		c.logger.DebugContext(ctx, "discarding superseded session load", "visitor_id", visitorID.String())
		return nil
	}
	c.visitorID = visitorID
	c.purposes = purposes
	c.consents = models.NewConsentMap(records)
	c.state = StateReady
	c.metrics.IncrementInit("ready")
	c.logger.InfoContext(ctx, "consent session ready",
		"visitor_id", visitorID.String(),
		"purposes", len(purposes),
		"decisions", len(c.consents),
	)
	return nil
}

// Retry re-runs Initialize after a failure.
func (c *Controller) Retry(ctx context.Context) error {
	return c.Initialize(ctx)
}

// failInit records a failed load. A load whose caller went away (ctx ended)
// says nothing about the backend, so the controller returns to Uninitialized
// and the next caller loads again.
func (c *Controller) failInit(ctx context.Context, seq uint64, err error) error {
	var ue *UserError
	if !errors.As(err, &ue) {
		ue = &UserError{Message: MsgInitFailed, Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		c.logger.WarnContext(ctx, "consent session load abandoned", "error", ctx.Err())
		if seq == c.initSeq {
			c.state = StateUninitialized
			c.metrics.IncrementInit("abandoned")
		}
		return ue
	}
	c.logger.ErrorContext(ctx, "consent session failed to load", "message", ue.Message, "error", ue.Err)
	if seq == c.initSeq {
		c.state = StateError
		c.fatalErr = ue.Message
		c.metrics.IncrementInit("error")
	}
	return ue
}

// State reports the lifecycle state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// VisitorID returns the resolved identifier, or the nil id before loading.
func (c *Controller) VisitorID() id.VisitorID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visitorID
}

// Status reads one purpose's decision. It never touches the backend.
func (c *Controller) Status(purposeID id.PurposeID) models.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.consents.Status(purposeID)
}

// Stats returns the latest aggregate snapshot, or nil while none is held.
func (c *Controller) Stats() *models.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stats == nil {
		return nil
	}
	s := *c.stats
	s.ByPurpose = append([]models.PurposeStat(nil), c.stats.ByPurpose...)
	return &s
}

// SetConsent writes one decision. On success the local map holds exactly the
// value sent and stats are refreshed in the background; on failure the map is
// untouched and an inline error is recorded. Writes to the same purpose
// complete in the order they were issued.
func (c *Controller) SetConsent(ctx context.Context, purposeID id.PurposeID, allowed bool) error {
	visitorID, err := c.readyVisitor()
	if err != nil {
		return err
	}

	release, err := c.writes.acquire(ctx, purposeID)
	if err != nil {
		return c.failMutation(ctx, "single", MsgUpdateFailed, err, "purpose_id", int(purposeID))
	}
	defer release()

	_, err = c.backend.UpsertConsent(ctx, models.UpsertConsentRequest{
		UserID:    visitorID.String(),
		PurposeID: purposeID,
		Status:    allowed,
	})
	if err != nil {
		return c.failMutation(ctx, "single", MsgUpdateFailed, err, "purpose_id", int(purposeID))
	}

	c.mu.Lock()
	c.consents[purposeID] = allowed
	c.invalidateStatsLocked()
	c.mu.Unlock()

	c.metrics.IncrementMutation("single", "success")
	c.refreshStats(ctx)
	return nil
}

// SetAllConsents writes the same decision for every known purpose in one
// bulk request and, on success, replaces the whole map. An empty catalog
// makes no backend call and leaves an empty map.
func (c *Controller) SetAllConsents(ctx context.Context, allowed bool) error {
	visitorID, err := c.readyVisitor()
	if err != nil {
		return err
	}

	release, err := c.writes.acquireAll(ctx)
	if err != nil {
		return c.failMutation(ctx, "bulk", MsgBulkUpdateFailed, err)
	}
	defer release()

	c.mu.RLock()
	purposes := append([]models.Purpose(nil), c.purposes...)
	c.mu.RUnlock()

	if len(purposes) == 0 {
		c.mu.Lock()
		c.consents = models.ConsentMap{}
		c.mu.Unlock()
		return nil
	}

	_, err = c.backend.BulkUpsertConsents(ctx, models.BulkConsentRequest{
		UserID:   visitorID.String(),
		Consents: models.UniformDecisions(purposes, allowed),
	})
	if err != nil {
		return c.failMutation(ctx, "bulk", MsgBulkUpdateFailed, err, "purposes", len(purposes))
	}

	c.mu.Lock()
	c.consents = models.UniformConsentMap(purposes, allowed)
	c.invalidateStatsLocked()
	c.mu.Unlock()

	c.metrics.IncrementMutation("bulk", "success")
	c.refreshStats(ctx)
	return nil
}

// AcceptAll allows every purpose and dismisses the banner.
func (c *Controller) AcceptAll(ctx context.Context) error {
	return c.decideAll(ctx, true)
}

// RejectAll denies every purpose and dismisses the banner.
func (c *Controller) RejectAll(ctx context.Context) error {
	return c.decideAll(ctx, false)
}

// The banner goes away whether or not the bulk write succeeds.
func (c *Controller) decideAll(ctx context.Context, allowed bool) error {
	if _, err := c.readyVisitor(); err != nil {
		return err
	}
	c.mu.Lock()
	c.bannerVisible = false
	c.mu.Unlock()
	return c.SetAllConsents(ctx, allowed)
}

// OpenPreferences shows the per-purpose preferences panel.
func (c *Controller) OpenPreferences() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preferencesOpen = true
}

// SavePreferences closes the preferences panel and the banner. Decisions
// are already persisted by SetConsent.
func (c *Controller) SavePreferences() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preferencesOpen = false
	c.bannerVisible = false
}

// DismissError clears the inline mutation error.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inlineErr = ""
}

// Wait blocks until background stats refreshes have settled.
func (c *Controller) Wait() {
	c.refreshes.Wait()
}

func (c *Controller) readyVisitor() (id.VisitorID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateReady {
		return id.VisitorID{}, dErrors.Wrap(sentinel.ErrInvalidState, dErrors.CodeInvalidState,
			"consent session is "+c.state.String())
	}
	return c.visitorID, nil
}

func (c *Controller) failMutation(ctx context.Context, kind, msg string, err error, attrs ...any) error {
	c.metrics.IncrementMutation(kind, "failure")
	c.logger.ErrorContext(ctx, "consent update failed", append(attrs, "kind", kind, "error", err)...)

	c.mu.Lock()
	c.inlineErr = msg
	c.mu.Unlock()
	return &UserError{Message: msg, Err: err}
}
