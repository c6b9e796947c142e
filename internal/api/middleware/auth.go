package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"lending-engine/internal/config"
)

type contextKey string

// CustomerIDKey carries the authenticated customer's ID through the request
// context once the bearer token has been verified.
const CustomerIDKey contextKey = "customerID"

func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerID, ok := validateJWT(r, cfg.JWTSecret, logger)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":{"message":"Unauthorized"}}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), CustomerIDKey, customerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CustomerIDFromContext returns the authenticated customer ID, or 0 when the
// request was not authenticated (auth disabled).
func CustomerIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(CustomerIDKey).(int64)
	return id
}

func validateJWT(r *http.Request, secret string, logger *slog.Logger) (int64, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Warn("AuthMiddleware: Missing Authorization header")
		return 0, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		logger.Warn("AuthMiddleware: Invalid Authorization header format")
		return 0, false
	}
	tokenString := parts[1]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			logger.Warn("AuthMiddleware: Unexpected signing method")
			return nil, http.ErrAbortHandler
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		logger.Warn("AuthMiddleware: Invalid token", "error", err)
		return 0, false
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		logger.Warn("AuthMiddleware: Token missing subject claim", "error", err)
		return 0, false
	}
	customerID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		logger.Warn("AuthMiddleware: Subject claim is not a customer ID", "subject", subject)
		return 0, false
	}

	return customerID, true
}
