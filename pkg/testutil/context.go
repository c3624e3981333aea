package testutil

import (
	"net/http"
	"time"

	"impact/pkg/requestcontext"
)

// WithAuth stamps the caller identity onto the request context the way the
// auth middleware would for an authenticated request.
func WithAuth(req *http.Request, memberCardID, role string) *http.Request {
	ctx := req.Context()
	if memberCardID != "" {
		ctx = requestcontext.WithMemberCardID(ctx, memberCardID)
	}
	if role != "" {
		ctx = requestcontext.WithRole(ctx, role)
	}
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithFrozenTime pins the request time so clock-sensitive paths, pass
// activation windows and check-in cooldowns, become deterministic.
func WithFrozenTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithClientMetadata adds client IP and user agent to the request context.
func WithClientMetadata(req *http.Request, clientIP, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), clientIP, userAgent))
}
