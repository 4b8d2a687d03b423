// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services read them. The package stays free of
// net/http so services import only what they need. The authenticated actor is
// deliberately NOT exposed here for the check-in core: pickup and search
// operations take the actor as an explicit argument so the timing-sensitive
// paths never resolve identity through ambient state. The accessors below
// carry observability values only.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	terminalIDKey  struct{}
)

// RequestID retrieves the request correlation ID, or "" if unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request correlation ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Now returns the request time if middleware pinned one, else time.Now().
// Tests inject a fixed time to exercise day-boundary code expiry.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return v
	}
	return time.Now()
}

// WithTime pins the request time for the rest of the request.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// TerminalID retrieves the check-in terminal identifier, or "" if unset.
// Used for guess-lockout accounting, never for authorization decisions.
func TerminalID(ctx context.Context) string {
	if v, ok := ctx.Value(terminalIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithTerminalID injects a terminal identifier.
func WithTerminalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, terminalIDKey{}, id)
}
