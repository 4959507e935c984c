package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"consentmgr/internal/consent/models"
	"consentmgr/internal/platform/metrics"
	id "consentmgr/pkg/domain"
	dErrors "consentmgr/pkg/domain-errors"
	"consentmgr/pkg/testutil"
)

var catalog = []models.Purpose{
	{ID: 1, Name: "Analytics", Description: "Usage analytics"},
	{ID: 2, Name: "Marketing", Description: "Personalised offers"},
	{ID: 3, Name: "Essential", Description: "Required for the site"},
}

const visitor = "6f1c2d3e-4b5a-4c6d-8e7f-9a0b1c2d3e4f"

type ClientSuite struct {
	suite.Suite
	backend *testutil.FakeBackend
	metrics *metrics.Metrics
	client  *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.backend = testutil.NewFakeBackend(s.T(), catalog...)
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.client = New(s.backend.URL()+"/", WithMetrics(s.metrics), WithTimeout(2*time.Second))
}

func (s *ClientSuite) TestBaseURLTrimsTrailingSlash() {
	s.Equal(s.backend.URL(), s.client.BaseURL())
}

func (s *ClientSuite) TestListPurposes() {
	purposes, err := s.client.ListPurposes(context.Background())
	s.Require().NoError(err)
	s.Equal(catalog, purposes)
	s.Equal(1, s.backend.Calls(testutil.RoutePurposes))
}

func (s *ClientSuite) TestGetPurpose() {
	p, err := s.client.GetPurpose(context.Background(), 2)
	s.Require().NoError(err)
	s.Equal("Marketing", p.Name)

	_, err = s.client.GetPurpose(context.Background(), 99)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
}

func (s *ClientSuite) TestListConsentsRequiresUser() {
	_, err := s.client.ListConsents(context.Background(), " ")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	s.Zero(s.backend.Calls(testutil.RouteConsents))
}

func (s *ClientSuite) TestUpsertThenList() {
	ctx := context.Background()
	rec, err := s.client.UpsertConsent(ctx, models.UpsertConsentRequest{UserID: visitor, PurposeID: 1, Status: true})
	s.Require().NoError(err)
	s.Equal(id.PurposeID(1), rec.PurposeID)
	s.True(rec.Status)

	records, err := s.client.ListConsents(ctx, visitor)
	s.Require().NoError(err)
	s.Equal(models.ConsentMap{1: true}, models.NewConsentMap(records))
}

func (s *ClientSuite) TestBulkUpsert() {
	resp, err := s.client.BulkUpsertConsents(context.Background(), models.BulkConsentRequest{
		UserID:   visitor,
		Consents: models.UniformDecisions(catalog, false),
	})
	s.Require().NoError(err)
	s.Len(resp.Consents, 3)
	s.Equal(models.ConsentMap{1: false, 2: false, 3: false}, s.backend.Consents(visitor))
	s.Equal(1, s.backend.Calls(testutil.RouteBulk))
}

func (s *ClientSuite) TestStats() {
	s.backend.Seed(visitor, 1, true)
	s.backend.Seed(visitor, 2, false)

	stats, err := s.client.Stats(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(2), stats.TotalConsents)
	s.Equal(int64(1), stats.ActiveConsents)
	s.Equal(int64(1), stats.InactiveConsents)
	s.Equal(50.0, stats.ConsentRate)
	s.Len(stats.ByPurpose, 3)
}

func (s *ClientSuite) TestHistoryAndCheck() {
	ctx := context.Background()
	s.backend.Seed(visitor, 1, true)
	s.backend.Seed(visitor, 1, false)

	history, err := s.client.History(ctx, visitor)
	s.Require().NoError(err)
	s.Require().Len(history.ConsentHistory["Analytics"], 2)
	s.False(history.ConsentHistory["Analytics"][0].Status)

	check, err := s.client.Check(ctx, models.CheckRequest{UserID: visitor, PurposeIDs: []id.PurposeID{1, 2}})
	s.Require().NoError(err)
	s.Require().NotNil(check.ConsentStatus["Analytics"].Status)
	s.False(*check.ConsentStatus["Analytics"].Status)
	s.Nil(check.ConsentStatus["Marketing"].Status)
}

func (s *ClientSuite) TestHealth() {
	h, err := s.client.Health(context.Background())
	s.Require().NoError(err)
	s.Equal("healthy", h.Status)
}

func (s *ClientSuite) TestStatusMapping() {
	tests := []struct {
		status int
		code   dErrors.Code
	}{
		{http.StatusBadRequest, dErrors.CodeBadRequest},
		{http.StatusNotFound, dErrors.CodeNotFound},
		{http.StatusInternalServerError, dErrors.CodeUnavailable},
		{http.StatusServiceUnavailable, dErrors.CodeUnavailable},
	}
	for _, tt := range tests {
		s.backend.Fail(testutil.RouteStats, tt.status)
		_, err := s.client.Stats(context.Background())
		s.True(dErrors.HasCode(err, tt.code), "status %d: got %v", tt.status, err)
	}
	s.Equal(float64(len(tests)), promtest.ToFloat64(s.metrics.BackendErrors.WithLabelValues("stats")))
}

func TestClientUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url)
	_, err := c.ListPurposes(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable), "got %v", err)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c := New(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.Stats(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout), "got %v", err)
}

func TestClientMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).ListPurposes(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal), "got %v", err)
}

func TestClientSendsAcceptHeader(t *testing.T) {
	var accept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	purposes, err := c.ListPurposes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, purposes)
	assert.Equal(t, "application/json", accept)
}
