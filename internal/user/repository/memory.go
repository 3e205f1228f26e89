package repository

import (
	"context"
	"sync"

	"github.com/AlibekovAA/credential-service/internal/user/domain"
)

// MemoryRepository keeps users in process memory. Check and insert happen in
// one critical section.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[domain.ID]domain.User
	byUsername map[string]domain.ID
	byEmail    map[string]domain.ID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[domain.ID]domain.User),
		byUsername: make(map[string]domain.ID),
		byEmail:    make(map[string]domain.ID),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, user domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return ErrIdentityExists
	}
	if _, ok := r.byUsername[user.Username]; ok {
		return ErrIdentityExists
	}
	if _, ok := r.byID[user.ID]; ok {
		return ErrIdentityExists
	}

	r.byID[user.ID] = user
	r.byUsername[user.Username] = user.ID
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, emailTaken := r.byEmail[email]
	_, usernameTaken := r.byUsername[username]
	return emailTaken || usernameTaken, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
