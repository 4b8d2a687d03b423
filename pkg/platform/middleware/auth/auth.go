// Package auth provides the JWT bearer middleware. It verifies the staff
// token and stashes the resulting actor so handlers can hand it to services
// explicitly. Services never read the actor from context themselves.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"steeple/pkg/domain"
	"steeple/pkg/requestcontext"
)

// ClaimsValidator validates a raw bearer token and returns the actor it
// represents.
type ClaimsValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// Claims is the subset of token claims the middleware needs.
type Claims struct {
	Actor      domain.Actor
	TerminalID string
}

type contextKeyActor struct{}

// ContextKeyActor is exported for handler tests that inject an actor directly.
var ContextKeyActor = contextKeyActor{}

// GetActor retrieves the authenticated actor from the context. The zero
// Actor means the request was not authenticated.
func GetActor(ctx context.Context) domain.Actor {
	actor, ok := ctx.Value(ContextKeyActor).(domain.Actor)
	if !ok {
		return domain.Actor{}
	}
	return actor
}

// WithActor injects an actor into a context. Test helper.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ContextKeyActor, actor)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// actor and terminal identity for downstream handlers.
func RequireAuth(validator ClaimsValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = WithActor(ctx, claims.Actor)
			if claims.TerminalID != "" {
				ctx = requestcontext.WithTerminalID(ctx, claims.TerminalID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
