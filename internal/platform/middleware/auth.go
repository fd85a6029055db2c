package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator checks an admin bearer token and returns its subject.
type TokenValidator interface {
	Validate(token string) (subject string, err error)
}

type contextKeyAdminSubject struct{}

// ContextWithAdminSubject stamps an authenticated admin onto the context, the
// same way RequireAdmin does after validating a token.
func ContextWithAdminSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, contextKeyAdminSubject{}, subject)
}

// GetAdminSubject retrieves the authenticated admin from the context.
func GetAdminSubject(ctx context.Context) string {
	sub, ok := ctx.Value(contextKeyAdminSubject{}).(string)
	if !ok {
		return ""
	}
	return sub
}

// RequireAdmin guards the admin subtree with bearer-token auth.
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			subject, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected admin token",
					"request_id", GetRequestID(r.Context()),
					"error", err.Error(),
				)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyAdminSubject{}, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
