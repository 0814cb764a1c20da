package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/avara-hq/avara-backend/internal/config"
	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserID extracts the authenticated user id set by Auth. Empty only on
// routes mounted outside the auth group.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Auth verifies the bearer token and stores the subject claim in the
// request context as the user id.
func Auth(cfg config.AuthConfig) func(next http.Handler) http.Handler {
	keyFunc := func(token *jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(parserOpts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				respondUnauthorized(w, "missing bearer token")
				return
			}

			var claims jwt.RegisteredClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				ctxzap.Warn(r.Context(), "rejected bearer token", zap.Error(err))
				respondUnauthorized(w, "invalid token")
				return
			}

			if claims.Subject == "" {
				respondUnauthorized(w, "token has no subject")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(entity.ErrorResponse{
		Error:   http.StatusText(http.StatusUnauthorized),
		Message: message,
	})
}
