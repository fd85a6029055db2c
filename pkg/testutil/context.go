package testutil

import (
	"net/http"

	"yinyom/internal/platform/middleware"
)

// WithAdminSubject stamps an authenticated admin onto the request context,
// simulating what the admin auth middleware does for a valid bearer token.
func WithAdminSubject(req *http.Request, subject string) *http.Request {
	return req.WithContext(middleware.ContextWithAdminSubject(req.Context(), subject))
}

// WithRequestID stamps a request ID onto the request context the way the
// request-ID middleware does.
func WithRequestID(req *http.Request, id string) *http.Request {
	return req.WithContext(middleware.ContextWithRequestID(req.Context(), id))
}
