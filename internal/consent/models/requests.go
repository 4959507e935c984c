package models

import (
	id "consentmgr/pkg/domain"
)

// UpsertConsentRequest writes a single decision.
type UpsertConsentRequest struct {
	UserID    string       `json:"user_id"`
	PurposeID id.PurposeID `json:"purpose_id"`
	Status    bool         `json:"status"`
}

// BulkConsentRequest writes many decisions for one visitor in one call.
type BulkConsentRequest struct {
	UserID   string     `json:"user_id"`
	Consents []Decision `json:"consents"`
}

// BulkConsentResponse echoes the stored records.
type BulkConsentResponse struct {
	Message  string          `json:"message"`
	Consents []ConsentRecord `json:"consents"`
}

// CheckRequest asks for the stored decisions on a set of purposes.
type CheckRequest struct {
	UserID     string         `json:"user_id"`
	PurposeIDs []id.PurposeID `json:"purpose_ids"`
}

// UniformDecisions builds one decision per purpose with the same status.
func UniformDecisions(purposes []Purpose, allowed bool) []Decision {
	decisions := make([]Decision, 0, len(purposes))
	for _, p := range purposes {
		decisions = append(decisions, Decision{PurposeID: p.ID, Status: allowed})
	}
	return decisions
}
