package jwtverify

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	commonerrors "github.com/AlibekovAA/credential-service/internal/common/errors"
)

// SessionClaims is the signed payload of a session token. userId duplicates
// sub for clients that read the legacy claim name.
type SessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

type Claims struct {
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ParseToken verifies an HS256 session token against secret. now supplies the
// reference time for expiry checks; there is no leeway.
func ParseToken(tokenString string, secret []byte, now func() time.Time) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, commonerrors.ErrMissingSigningSecret
	}
	if now == nil {
		now = time.Now
	}

	var sc SessionClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &sc, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, commonerrors.ErrInvalidTokenSigningMethod
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return Claims{}, commonerrors.ErrInvalidToken.WithCause(err)
	}
	if !parsed.Valid {
		return Claims{}, commonerrors.ErrInvalidToken
	}

	if sc.Subject == "" || sc.ExpiresAt == nil {
		return Claims{}, commonerrors.ErrMissingTokenClaims
	}
	if sc.UserID != "" && sc.UserID != sc.Subject {
		return Claims{}, commonerrors.ErrMissingTokenClaims
	}

	claims := Claims{
		UserID:    sc.Subject,
		TokenID:   sc.ID,
		ExpiresAt: sc.ExpiresAt.Time,
	}
	if sc.IssuedAt != nil {
		claims.IssuedAt = sc.IssuedAt.Time
	}
	return claims, nil
}
