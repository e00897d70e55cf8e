package memory

import (
	"context"
	"sync"

	"github.com/gocart/payments/internal/payments/domain"
	"github.com/gocart/payments/internal/payments/ports"
)

// UserRepository is an in-memory user store mirroring the postgres adapter.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserRepository constructs a new in-memory user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

// Seed inserts a user directly.
func (r *UserRepository) Seed(user domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

// Get returns the stored user, if present.
func (r *UserRepository) Get(id string) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	return user, ok
}

// ClearCart resets the user's cart to empty.
func (r *UserRepository) ClearCart(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ports.ErrNotFound
	}

	user.Cart = map[string]int{}
	r.users[id] = user
	return nil
}
