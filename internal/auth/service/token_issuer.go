package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	authdomain "github.com/AlibekovAA/credential-service/internal/auth/domain"
	"github.com/AlibekovAA/credential-service/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/credential-service/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/credential-service/internal/common/errors"
	"github.com/AlibekovAA/credential-service/internal/common/jwtverify"
	userdomain "github.com/AlibekovAA/credential-service/internal/user/domain"
)

// TokenIssuer signs and verifies HS256 session tokens with one process-wide
// secret. An empty secret makes every call fail with ErrConfiguration.
type TokenIssuer struct {
	secret      []byte
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	ttl         time.Duration
}

func NewTokenIssuer(
	secret string,
	idGenerator commoncrypto.IDGenerator,
	ttl time.Duration,
	clock clock.Clock,
) *TokenIssuer {
	return &TokenIssuer{
		secret:      []byte(secret),
		idGenerator: idGenerator,
		clock:       clock,
		ttl:         ttl,
	}
}

func (ti *TokenIssuer) Configured() bool {
	return len(ti.secret) > 0
}

func (ti *TokenIssuer) Issue(userID userdomain.ID) (authdomain.Session, error) {
	if !ti.Configured() {
		return authdomain.Session{}, ErrConfiguration.WithCause(commonerrors.ErrMissingSigningSecret)
	}

	jti, err := ti.idGenerator.NewID()
	if err != nil {
		return authdomain.Session{}, newUnexpectedError(err)
	}

	now := ti.clock.Now().Truncate(time.Second)
	expiresAt := now.Add(ti.ttl)
	claims := jwtverify.SessionClaims{
		UserID: string(userID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(userID),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return authdomain.Session{}, newUnexpectedError(err)
	}

	incrementSessionTokensIssued()
	return authdomain.Session{
		Token:     token,
		TokenID:   jti,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

func (ti *TokenIssuer) Verify(tokenString string) (jwtverify.Claims, error) {
	if !ti.Configured() {
		return jwtverify.Claims{}, ErrConfiguration.WithCause(commonerrors.ErrMissingSigningSecret)
	}

	claims, err := jwtverify.ParseToken(tokenString, ti.secret, ti.clock.Now)
	if err != nil {
		return jwtverify.Claims{}, ErrInvalidToken.WithCause(err)
	}
	return claims, nil
}
