package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "consentmgr/pkg/domain"
)

func TestConsentMapFromRecords(t *testing.T) {
	purposes := []Purpose{{ID: 1, Name: "Analytics"}, {ID: 2, Name: "Marketing"}}
	records := []ConsentRecord{{PurposeID: 1, Status: true}}

	m := NewConsentMap(records)

	assert.Equal(t, ConsentMap{1: true}, m)
	assert.Equal(t, StatusAllowed, m.Status(purposes[0].ID))
	assert.Equal(t, StatusUnset, m.Status(purposes[1].ID))
}

func TestConsentMapLaterRecordWins(t *testing.T) {
	m := NewConsentMap([]ConsentRecord{
		{PurposeID: 3, Status: true},
		{PurposeID: 3, Status: false},
	})
	assert.Equal(t, StatusDenied, m.Status(3))
}

func TestUniform(t *testing.T) {
	purposes := []Purpose{{ID: 1}, {ID: 2}, {ID: 3}}

	assert.Equal(t, ConsentMap{1: true, 2: true, 3: true}, UniformConsentMap(purposes, true))
	assert.Equal(t, []Decision{
		{PurposeID: 1, Status: false},
		{PurposeID: 2, Status: false},
		{PurposeID: 3, Status: false},
	}, UniformDecisions(purposes, false))
	assert.Empty(t, UniformDecisions(nil, true))
}

func TestConsentMapCloneIsIndependent(t *testing.T) {
	m := ConsentMap{1: true}
	c := m.Clone()
	c[1] = false
	c[2] = true
	assert.Equal(t, ConsentMap{1: true}, m)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		status  Status
		text    string
		checked bool
		wire    string
	}{
		{StatusUnset, "Not set", false, "unset"},
		{StatusAllowed, "Allowed", true, "allowed"},
		{StatusDenied, "Denied", false, "denied"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.text, tt.status.String())
			assert.Equal(t, tt.checked, tt.status.Checked())
			b, err := json.Marshal(tt.status)
			require.NoError(t, err)
			assert.Equal(t, `"`+tt.wire+`"`, string(b))
		})
	}
}

func TestCategorizePurpose(t *testing.T) {
	tests := map[string]Category{
		"Analytics":                CategoryAnalytics,
		"Usage Statistics":         CategoryAnalytics,
		"Marketing Communications": CategoryMarketing,
		"Targeted Advertising":     CategoryMarketing,
		"Strictly Necessary":       CategoryEssential,
		"Functional Cookies":       CategoryFunctional,
		"Social Media Sharing":     CategorySocial,
		"Performance Monitoring":   CategoryPerformance,
		"Third Party Sharing":      CategoryGeneral,
	}
	for name, want := range tests {
		assert.Equal(t, want, CategorizePurpose(name), name)
	}
	assert.Equal(t, "📊", Purpose{Name: "Analytics"}.Category().Icon())
	assert.Equal(t, "🔐", Category("unknown").Icon())
}

func TestStatsDecodesBackendPayload(t *testing.T) {
	payload := `{
		"total_consents": 10, "active_consents": 7, "inactive_consents": 3,
		"consent_rate": 70.0,
		"by_purpose": [{"purpose_name": "Analytics", "total": 4, "active": 3, "rate": 75.0}]
	}`
	var s Stats
	require.NoError(t, json.Unmarshal([]byte(payload), &s))
	assert.Equal(t, int64(7), s.ActiveConsents)
	require.Len(t, s.ByPurpose, 1)
	assert.Equal(t, 75.0, s.ByPurpose[0].Rate)
}

func TestConsentRecordToleratesNullColumns(t *testing.T) {
	payload := `{"id": 5, "user_id": "u", "purpose_id": 2, "purpose_name": null,
		"status": false, "ip_address": null, "created_at": "2024-05-01T10:00:00.123456"}`
	var r ConsentRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &r))
	assert.Equal(t, id.PurposeID(2), r.PurposeID)
	assert.False(t, r.Status)
	assert.Empty(t, r.IPAddress)
}
