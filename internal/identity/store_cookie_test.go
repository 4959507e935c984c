package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentmgr/pkg/platform/sentinel"
	"consentmgr/pkg/requestcontext"
)

func TestCookieStoreMintsCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	store := NewCookieStore(rr, req, true)

	v, err := NewManager(store).Resolve(context.Background())
	require.NoError(t, err)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, DefaultKey, c.Name)
	assert.Equal(t, v.String(), c.Value)
	assert.Equal(t, int(DefaultTTL/time.Second), c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)

	again, err := store.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, v.String(), again)
}

func TestCookieStoreReturningVisitor(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: DefaultKey, Value: storedID})

	v, err := NewManager(NewCookieStore(rr, req, false)).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storedID, v.String())
	assert.Empty(t, rr.Result().Cookies(), "no cookie rewritten for a known visitor")
}

func TestCookieStoreAdoptsLegacyCookie(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(&http.Cookie{Name: LegacyKey, Value: legacyID})

	v, err := NewManager(NewCookieStore(rr, req, false)).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, legacyID, v.String())
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultKey, cookies[0].Name)
	assert.Equal(t, legacyID, cookies[0].Value)
}

func TestCookieStoreDelete(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultKey, Value: storedID})
	store := NewCookieStore(rr, req, false)

	require.NoError(t, store.Delete(context.Background(), DefaultKey))
	_, err := store.Get(context.Background(), DefaultKey)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestCookieStoreZeroTTLOutlivesBrowserSession(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	rr := httptest.NewRecorder()
	store := NewCookieStore(rr, httptest.NewRequest(http.MethodGet, "/session", nil), false)

	_, err := NewManager(store, WithTTL(0)).Resolve(ctx)
	require.NoError(t, err)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, int(MaxCookieAge/time.Second), cookies[0].MaxAge)
	assert.True(t, now.Add(MaxCookieAge).Equal(cookies[0].Expires), "expires %v", cookies[0].Expires)
}
