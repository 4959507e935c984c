package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"consentmgr/internal/consent/models"
	id "consentmgr/pkg/domain"
	dErrors "consentmgr/pkg/domain-errors"
)

// ListPurposes fetches the purpose catalog.
func (c *Client) ListPurposes(ctx context.Context) ([]models.Purpose, error) {
	var purposes []models.Purpose
	if err := c.call(ctx, "purposes", http.MethodGet, "/api/purposes", nil, nil, &purposes); err != nil {
		return nil, err
	}
	return purposes, nil
}

// GetPurpose fetches one purpose by id.
func (c *Client) GetPurpose(ctx context.Context, purposeID id.PurposeID) (models.Purpose, error) {
	var purpose models.Purpose
	err := c.call(ctx, "purpose", http.MethodGet, "/api/purposes/"+purposeID.String(), nil, nil, &purpose)
	return purpose, err
}

// ListConsents fetches every stored decision for a visitor.
func (c *Client) ListConsents(ctx context.Context, userID string) ([]models.ConsentRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}
	var records []models.ConsentRecord
	query := url.Values{"user_id": {userID}}
	if err := c.call(ctx, "consents", http.MethodGet, "/api/consent", query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// UpsertConsent writes one decision.
func (c *Client) UpsertConsent(ctx context.Context, req models.UpsertConsentRequest) (models.ConsentRecord, error) {
	var record models.ConsentRecord
	err := c.call(ctx, "upsert", http.MethodPost, "/api/consent", nil, req, &record)
	return record, err
}

// BulkUpsertConsents writes many decisions in one request.
func (c *Client) BulkUpsertConsents(ctx context.Context, req models.BulkConsentRequest) (models.BulkConsentResponse, error) {
	var resp models.BulkConsentResponse
	err := c.call(ctx, "bulk_upsert", http.MethodPost, "/api/consent/bulk", nil, req, &resp)
	return resp, err
}

// Stats fetches the aggregate snapshot across all visitors.
func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	err := c.call(ctx, "stats", http.MethodGet, "/api/consent/stats", nil, nil, &stats)
	return stats, err
}

// History fetches a visitor's decision history grouped by purpose name.
func (c *Client) History(ctx context.Context, userID string) (models.History, error) {
	var history models.History
	path := "/api/consent/user/" + url.PathEscape(userID) + "/history"
	err := c.call(ctx, "history", http.MethodGet, path, nil, nil, &history)
	return history, err
}

// Check asks for the stored decisions on the given purposes.
func (c *Client) Check(ctx context.Context, req models.CheckRequest) (models.CheckResponse, error) {
	var resp models.CheckResponse
	err := c.call(ctx, "check", http.MethodPost, "/api/consent/check", nil, req, &resp)
	return resp, err
}

// Health reports backend liveness.
func (c *Client) Health(ctx context.Context) (models.Health, error) {
	var health models.Health
	err := c.call(ctx, "health", http.MethodGet, "/api/health", nil, nil, &health)
	return health, err
}
