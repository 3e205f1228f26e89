package crypto

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/AlibekovAA/credential-service/internal/observability/metrics"
)

type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, hash string, password string) error
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(_ context.Context, password string) (string, error) {
	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	metrics.PasswordHashDurationSeconds.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(_ context.Context, hash string, password string) error {
	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	metrics.PasswordHashDurationSeconds.WithLabelValues("compare").Observe(time.Since(start).Seconds())
	return err
}

// BoundedHasher caps the number of concurrent hash operations.
type BoundedHasher struct {
	next PasswordHasher
	sem  *semaphore.Weighted
}

func NewBoundedHasher(next PasswordHasher, concurrency int) *BoundedHasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BoundedHasher{
		next: next,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
}

func (h *BoundedHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()
	return h.next.Hash(ctx, password)
}

func (h *BoundedHasher) Compare(ctx context.Context, hash string, password string) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()
	return h.next.Compare(ctx, hash, password)
}

func (h *BoundedHasher) acquire(ctx context.Context) error {
	metrics.PasswordHashQueueDepth.Inc()
	defer metrics.PasswordHashQueueDepth.Dec()
	return h.sem.Acquire(ctx, 1)
}

func (h *BoundedHasher) release() {
	h.sem.Release(1)
}
