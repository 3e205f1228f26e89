package repository

import (
	"context"
	"errors"

	"github.com/AlibekovAA/credential-service/internal/user/domain"
)

// Repository is the user-record store. Implementations enforce email and
// username uniqueness atomically: Create returns ErrIdentityExists when either
// value is already taken, even under concurrent registration.
type Repository interface {
	Create(ctx context.Context, user domain.User) error
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	FindByID(ctx context.Context, id domain.ID) (domain.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Close() error
}

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrIdentityExists = errors.New("email or username already exists")
)
