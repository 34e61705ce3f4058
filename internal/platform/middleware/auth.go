package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// RegistrarClaims is what the token validator yields: the identity recorded
// as the registrar on ledger writes.
type RegistrarClaims struct {
	Registrar string
}

// TokenValidator validates registrar bearer tokens for the write endpoints.
type TokenValidator interface {
	ValidateToken(tokenString string) (*RegistrarClaims, error)
}

type contextKeyRegistrar struct{}

// GetRegistrar retrieves the authenticated registrar identity from the context.
func GetRegistrar(ctx context.Context) string {
	registrar, ok := ctx.Value(contextKeyRegistrar{}).(string)
	if !ok {
		return ""
	}
	return registrar
}

// RequireRegistrar rejects requests without a valid registrar bearer token.
// Write capability enforcement beyond this sits with the ledger's own access
// control.
func RequireRegistrar(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				unauthorized(w)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "registrar token rejected",
					"request_id", GetRequestID(r.Context()),
					"error", err.Error(),
				)
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyRegistrar{}, claims.Registrar)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
