package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-recipe-catalog/config"
	"github.com/FACorreiaa/go-recipe-catalog/internal/api"
	"github.com/FACorreiaa/go-recipe-catalog/internal/types"
)

type contextKey string

const principalKey contextKey = "principal"

// Authenticate rejects requests without a valid bearer token and stores the
// caller in the request context.
func Authenticate(logger *slog.Logger, jwtCfg config.JWTConfig) func(next http.Handler) http.Handler {
	if jwtCfg.SecretKey == "" {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString, msg := bearerToken(r)
			if msg != "" {
				l.WarnContext(ctx, "Rejected request without usable Authorization header", slog.String("reason", msg))
				api.ErrorResponse(w, r, http.StatusUnauthorized, msg)
				return
			}

			claims, err := ParseToken(jwtCfg, tokenString)
			if err != nil {
				l.WarnContext(ctx, "Token parsing/validation failed", slog.Any("error", err))
				api.HandleError(w, r, l, err)
				return
			}

			ctx = WithPrincipal(ctx, claims.Principal())
			l.DebugContext(ctx, "Authentication successful", slog.Int64("userID", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthenticate attaches the caller when a valid bearer token is sent
// and lets anonymous requests through untouched.
func OptionalAuthenticate(logger *slog.Logger, jwtCfg config.JWTConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, msg := bearerToken(r)
			if msg != "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := ParseToken(jwtCfg, tokenString)
			if err != nil {
				logger.DebugContext(r.Context(), "Ignoring invalid optional token", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), claims.Principal())))
		})
	}
}

// bearerToken returns the token, or the failure message when the header is
// missing or not of the form "Bearer <token>".
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", MsgTokenMissing
	}
	headerParts := strings.Fields(authHeader)
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
		return "", MsgTokenMalformed
	}
	return headerParts[1], ""
}

func WithPrincipal(ctx context.Context, p types.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipalFromContext returns the authenticated caller, if any.
func GetPrincipalFromContext(ctx context.Context) (types.Principal, bool) {
	p, ok := ctx.Value(principalKey).(types.Principal)
	return p, ok && p.ID > 0
}
