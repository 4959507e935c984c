package identity

import (
	"context"
	"errors"
	"net/http"
	"time"

	"consentmgr/pkg/platform/sentinel"
	"consentmgr/pkg/requestcontext"
)

// CookieStore reads identifiers from one request's cookies and writes them as
// Set-Cookie headers on its response. It is scoped to a single request.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	secure  bool
	pending map[string]*string
}

// NewCookieStore wraps a request/response pair. secure marks written cookies
// Secure.
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{w: w, r: r, secure: secure, pending: make(map[string]*string)}
}

// Get prefers a value written earlier in the same request.
func (s *CookieStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.pending[key]; ok {
		if v == nil {
			return "", sentinel.ErrNotFound
		}
		return *v, nil
	}
	c, err := s.r.Cookie(key)
	if errors.Is(err, http.ErrNoCookie) || (err == nil && c.Value == "") {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// MaxCookieAge is the longest lifetime browsers honor for a cookie. A zero
// ttl ("no expiry") is written with this lifetime.
const MaxCookieAge = 400 * 24 * time.Hour

// Set writes an HttpOnly, SameSite=Lax cookie.
func (s *CookieStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c := &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if ttl <= 0 || ttl > MaxCookieAge {
		ttl = MaxCookieAge
	}
	c.MaxAge = int(ttl / time.Second)
	c.Expires = requestcontext.Now(ctx).Add(ttl).UTC()
	http.SetCookie(s.w, c)
	s.pending[key] = &value
	return nil
}

func (s *CookieStore) Delete(_ context.Context, key string) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.pending[key] = nil
	return nil
}
