package models

import (
	id "consentmgr/pkg/domain"
)

// Purpose is one category of data processing a visitor can allow or deny.
// Purposes are owned by the backend and treated as read-only here.
type Purpose struct {
	ID          id.PurposeID `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	// CreatedAt is kept as the backend sent it; the backend emits naive ISO
	// timestamps that time.Time cannot decode.
	CreatedAt string `json:"created_at,omitempty"`
}

// Category classifies the purpose by its name.
func (p Purpose) Category() Category {
	return CategorizePurpose(p.Name)
}

// ConsentRecord is one stored decision as the backend returns it. Only
// PurposeID and Status drive the local consent map.
type ConsentRecord struct {
	ID          int          `json:"id,omitempty"`
	UserID      string       `json:"user_id,omitempty"`
	PurposeID   id.PurposeID `json:"purpose_id"`
	PurposeName string       `json:"purpose_name,omitempty"`
	Status      bool         `json:"status"`
	IPAddress   string       `json:"ip_address,omitempty"`
	CreatedAt   string       `json:"created_at,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
}

// Decision is the allow/deny pair sent in bulk updates.
type Decision struct {
	PurposeID id.PurposeID `json:"purpose_id"`
	Status    bool         `json:"status"`
}

// Stats is the backend's aggregate snapshot across all visitors. It is never
// derived locally.
type Stats struct {
	TotalConsents    int64         `json:"total_consents"`
	ActiveConsents   int64         `json:"active_consents"`
	InactiveConsents int64         `json:"inactive_consents"`
	ConsentRate      float64       `json:"consent_rate"`
	ByPurpose        []PurposeStat `json:"by_purpose"`
}

// PurposeStat is the per-purpose slice of Stats.
type PurposeStat struct {
	PurposeName string  `json:"purpose_name"`
	Total       int64   `json:"total"`
	Active      int64   `json:"active"`
	Rate        float64 `json:"rate"`
}

// HistoryEntry is one past state of a decision.
type HistoryEntry struct {
	Status    bool   `json:"status"`
	IPAddress string `json:"ip_address,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// History groups a visitor's decisions by purpose name, newest first.
type History struct {
	UserID         string                    `json:"user_id"`
	ConsentHistory map[string][]HistoryEntry `json:"consent_history"`
}

// CheckResult reports the stored decision for one purpose.
type CheckResult struct {
	HasConsent  bool    `json:"has_consent"`
	Status      *bool   `json:"status"`
	LastUpdated *string `json:"last_updated"`
}

// CheckResponse is keyed by purpose name.
type CheckResponse struct {
	UserID        string                 `json:"user_id"`
	ConsentStatus map[string]CheckResult `json:"consent_status"`
}

// Health is the backend liveness payload.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
