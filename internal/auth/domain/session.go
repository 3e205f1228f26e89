package domain

import (
	"time"

	userdomain "github.com/AlibekovAA/credential-service/internal/user/domain"
)

// Session is an issued bearer token. Sessions are stateless and never stored.
type Session struct {
	Token     string
	TokenID   string
	UserID    userdomain.ID
	IssuedAt  time.Time
	ExpiresAt time.Time
}
