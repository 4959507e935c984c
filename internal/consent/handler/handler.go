// Package handler exposes a visitor's consent session over HTTP for an
// embedding page.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"consentmgr/internal/consent/session"
	"consentmgr/internal/identity"
	"consentmgr/internal/platform/metrics"
	"consentmgr/internal/platform/middleware"
	id "consentmgr/pkg/domain"
	dErrors "consentmgr/pkg/domain-errors"
	"consentmgr/pkg/platform/httputil"
	"consentmgr/pkg/platform/middleware/metadata"
	"consentmgr/pkg/platform/middleware/requesttime"
	"consentmgr/pkg/requestcontext"
)

const defaultRequestTimeout = 30 * time.Second

// Sessions hands out the controller for a visitor. session.Registry
// implements it.
type Sessions interface {
	Get(ctx context.Context, visitorID id.VisitorID) (*session.Controller, bool)
}

// Config tunes the visitor cookie and request handling.
type Config struct {
	SecureCookies   bool
	IdentityOptions []identity.Option
	RequestTimeout  time.Duration
}

// Handler serves the /session routes.
type Handler struct {
	sessions Sessions
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a Handler.
func New(sessions Sessions, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Handler{
		sessions: sessions,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

// Register registers the session routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	sessionRouter := chi.NewRouter()
	sessionRouter.Use(middleware.Recovery(h.logger))
	sessionRouter.Use(middleware.RequestID)
	sessionRouter.Use(requesttime.Middleware)
	sessionRouter.Use(metadata.ClientMetadata)
	sessionRouter.Use(middleware.Logger(h.logger))
	sessionRouter.Use(middleware.Timeout(h.cfg.RequestTimeout))
	sessionRouter.Use(middleware.ContentTypeJSON)
	sessionRouter.Use(h.visitor)

	sessionRouter.Get("/", h.handleGetSession)
	sessionRouter.Post("/retry", h.handleRetry)
	sessionRouter.Put("/consents/{purposeID}", h.handleSetConsent)
	sessionRouter.Post("/accept-all", h.handleAcceptAll)
	sessionRouter.Post("/reject-all", h.handleRejectAll)
	sessionRouter.Post("/preferences/open", h.handleOpenPreferences)
	sessionRouter.Post("/preferences/save", h.handleSavePreferences)
	sessionRouter.Delete("/error", h.handleDismissError)
	sessionRouter.Get("/stats", h.handleGetStats)

	r.Mount("/session", sessionRouter)
}

// visitor resolves the identity cookie, minting one for first-time visitors,
// and puts the visitor id in the request context.
func (h *Handler) visitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		opts := append([]identity.Option{
			identity.WithLogger(h.logger),
			identity.WithMetrics(h.metrics),
		}, h.cfg.IdentityOptions...)
		store := identity.NewCookieStore(w, r, h.cfg.SecureCookies)

		visitorID, err := identity.NewManager(store, opts...).Resolve(ctx)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to resolve visitor",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithVisitorID(ctx, visitorID)))
	})
}

func (h *Handler) session(ctx context.Context) (*session.Controller, bool) {
	return h.sessions.Get(ctx, requestcontext.VisitorID(ctx))
}

// handleGetSession returns the session view, loading it on first sight. A
// failed load is reported through the view's state and error fields. The
// controller is shared by every request of the visitor, so the load runs
// detached from this request and is bounded by the backend client timeout.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, created := h.session(ctx)
	if created || sess.State() == session.StateUninitialized {
		if err := sess.Initialize(context.WithoutCancel(ctx)); err != nil {
			// The controller logged it; the view carries the message.
			h.logger.DebugContext(ctx, "session load failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err,
			)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := h.session(ctx)
	if err := sess.Retry(ctx); err != nil {
		h.writeSessionError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

type setConsentRequest struct {
	Status *bool `json:"status"`
}

func (h *Handler) handleSetConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	purposeID, err := id.ParsePurposeID(chi.URLParam(r, "purposeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req setConsentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Status == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status is required"))
		return
	}

	sess, _ := h.session(ctx)
	if err := sess.SetConsent(ctx, purposeID, *req.Status); err != nil {
		h.writeSessionError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleAcceptAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := h.session(ctx)
	if err := sess.AcceptAll(ctx); err != nil {
		h.writeSessionError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleRejectAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := h.session(ctx)
	if err := sess.RejectAll(ctx); err != nil {
		h.writeSessionError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleOpenPreferences(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(r.Context())
	sess.OpenPreferences()
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleSavePreferences(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(r.Context())
	sess.SavePreferences()
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleDismissError(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(r.Context())
	sess.DismissError()
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.session(r.Context())
	stats := sess.Stats()
	if stats == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "statistics are not loaded"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// writeSessionError answers a UserError with 502 and its generic message;
// everything else keeps its own code.
func (h *Handler) writeSessionError(ctx context.Context, w http.ResponseWriter, err error) {
	var ue *session.UserError
	if errors.As(err, &ue) {
		err = &dErrors.Error{Code: dErrors.CodeUnavailable, Message: ue.Message, Err: ue.Err}
	}
	h.logger.WarnContext(ctx, "session request failed",
		"request_id", middleware.GetRequestID(ctx),
		"visitor_id", requestcontext.VisitorID(ctx).String(),
		"error", err,
	)
	httputil.WriteError(w, err)
}
