package testutil

import "net/http"

// WithVisitorCookie attaches the identity cookie a returning visitor sends.
func WithVisitorCookie(req *http.Request, name, visitorID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: name, Value: visitorID})
	return req
}
