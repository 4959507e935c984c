package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Identity stores and the backend
// client return these (optionally wrapped) so callers can translate them into
// domain errors or user-facing messages.
//
// - ErrNotFound: key absent from a store, or present but expired
// - ErrExpired: entry exists but its expiry has passed (stores may fold this into ErrNotFound)
// - ErrUnavailable: store or backend temporarily unreachable
// - ErrInvalidState: operation attempted before the owner is ready for it
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrExpired      = errors.New("expired")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)
