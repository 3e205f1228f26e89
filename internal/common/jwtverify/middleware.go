package jwtverify

import (
	"context"
	"net/http"
	"strings"

	commonerrors "github.com/AlibekovAA/credential-service/internal/common/errors"
	commonhttp "github.com/AlibekovAA/credential-service/internal/common/http"
	"github.com/AlibekovAA/credential-service/internal/common/logger"
)

type Verifier interface {
	VerifyToken(tokenString string) (Claims, error)
}

type contextKey string

const claimsKey contextKey = "jwt_claims"

var errMissingAuthorization = commonerrors.NewDomainError(
	commonhttp.CodeMissingAuthorization,
	commonerrors.CategoryUnauthorized,
	http.StatusUnauthorized,
	"missing or invalid authorization",
)

func Middleware(verifier Verifier, log *logger.Logger) func(next http.Handler) http.Handler {
	errorHandler := commonhttp.NewErrorHandler(log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_missing_authorization",
				}).Warn("jwt auth failed: missing or invalid authorization header")
				errorHandler.HandleError(w, r, errMissingAuthorization)
				return
			}

			tokenString := strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
			claims, err := verifier.VerifyToken(tokenString)
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_invalid_token",
				}).Warnf("jwt auth failed: %v", err)
				errorHandler.HandleError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func FromContext(ctx context.Context) (Claims, bool) {
	val := ctx.Value(claimsKey)
	claims, ok := val.(Claims)
	return claims, ok
}
