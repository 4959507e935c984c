// Package domain holds the typed identifiers shared by every layer.
package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "consentmgr/pkg/domain-errors"
)

// VisitorID identifies an anonymous visitor across sessions.
// Invariant: never the nil UUID once parsed.
type VisitorID uuid.UUID

// NewVisitorID mints a random (v4) visitor identifier.
func NewVisitorID() VisitorID {
	return VisitorID(uuid.New())
}

// ParseVisitorID constructs a VisitorID from external input such as a cookie
// or a store entry.
//
// Errors: CodeInvalidInput when the value is empty, malformed or the nil UUID.
func ParseVisitorID(s string) (VisitorID, error) {
	if strings.TrimSpace(s) == "" {
		return VisitorID{}, dErrors.New(dErrors.CodeInvalidInput, "visitor id cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return VisitorID{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid visitor id")
	}
	if parsed == uuid.Nil {
		return VisitorID{}, dErrors.New(dErrors.CodeInvalidInput, "visitor id cannot be nil")
	}
	return VisitorID(parsed), nil
}

func (id VisitorID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the id was never set.
func (id VisitorID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// PurposeID is the backend's integer key for a processing purpose.
type PurposeID int

// ParsePurposeID parses a purpose id from a path segment or CLI flag.
//
// Errors: CodeInvalidInput when the value is not a positive integer.
func ParsePurposeID(s string) (PurposeID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid purpose id")
	}
	if n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "purpose id must be positive")
	}
	return PurposeID(n), nil
}

func (id PurposeID) String() string {
	return strconv.Itoa(int(id))
}
