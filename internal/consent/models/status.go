package models

import (
	"fmt"

	id "consentmgr/pkg/domain"
)

// Status is the tri-state view of one purpose: a key missing from the consent
// map is Unset, which is distinct from both Allowed and Denied.
type Status int

const (
	StatusUnset Status = iota
	StatusAllowed
	StatusDenied
)

// StatusOf lifts a boolean decision into a Status.
func StatusOf(allowed bool) Status {
	if allowed {
		return StatusAllowed
	}
	return StatusDenied
}

func (s Status) String() string {
	switch s {
	case StatusAllowed:
		return "Allowed"
	case StatusDenied:
		return "Denied"
	default:
		return "Not set"
	}
}

// Checked collapses Unset to false for toggle controls.
func (s Status) Checked() bool {
	return s == StatusAllowed
}

// IsSet reports whether a decision exists.
func (s Status) IsSet() bool {
	return s != StatusUnset
}

// MarshalText renders the status as "allowed", "denied" or "unset".
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusAllowed:
		return []byte("allowed"), nil
	case StatusDenied:
		return []byte("denied"), nil
	default:
		return []byte("unset"), nil
	}
}

// UnmarshalText parses "allowed", "denied" or "unset".
func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "allowed":
		*s = StatusAllowed
	case "denied":
		*s = StatusDenied
	case "unset":
		*s = StatusUnset
	default:
		return fmt.Errorf("unknown consent status %q", text)
	}
	return nil
}

// ConsentMap maps purpose id to decision. Every write replaces the whole key.
type ConsentMap map[id.PurposeID]bool

// NewConsentMap folds backend records into a map. Later records for the same
// purpose win, matching the backend's one-row-per-purpose upsert.
func NewConsentMap(records []ConsentRecord) ConsentMap {
	m := make(ConsentMap, len(records))
	for _, r := range records {
		m[r.PurposeID] = r.Status
	}
	return m
}

// UniformConsentMap sets every purpose to the same decision.
func UniformConsentMap(purposes []Purpose, allowed bool) ConsentMap {
	m := make(ConsentMap, len(purposes))
	for _, p := range purposes {
		m[p.ID] = allowed
	}
	return m
}

// Status reads one purpose.
func (m ConsentMap) Status(purposeID id.PurposeID) Status {
	allowed, ok := m[purposeID]
	if !ok {
		return StatusUnset
	}
	return StatusOf(allowed)
}

// Clone returns an independent copy.
func (m ConsentMap) Clone() ConsentMap {
	out := make(ConsentMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
