package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"fashionsphere-service/internal/domain/user"
	xerrors "fashionsphere-service/internal/pkg/errors"
)

type UserRepository struct {
	mu    sync.RWMutex
	items []user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if strings.EqualFold(r.items[i].Email, u.Email) {
			return xerrors.ErrConflict
		}
	}
	if u.ID == "" {
		u.ID = newID()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.items = append(r.items, *u)
	return nil
}

func (r *UserRepository) find(match func(u *user.User) bool) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.items {
		if match(&r.items[i]) {
			u := r.items[i]
			return &u, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.ID == id })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	return r.find(func(u *user.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) SetSaleNotification(_ context.Context, id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].SaleNotification = enabled
			r.items[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return xerrors.ErrNotFound
}

func (r *UserRepository) ListSaleSubscribers(_ context.Context) ([]user.Recipient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []user.Recipient
	for _, u := range r.items {
		if u.SaleNotification {
			out = append(out, user.Recipient{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}
	return out, nil
}
