package memory

import (
	"context"
	"sync"
	"time"

	"fashionsphere-service/internal/domain/waitlist"
)

type WaitlistRepository struct {
	mu      sync.Mutex
	entries []waitlist.Entry
	users   *UserRepository
}

// NewWaitlistRepository resolves subscriber names and addresses through users.
func NewWaitlistRepository(users *UserRepository) *WaitlistRepository {
	return &WaitlistRepository{users: users}
}

func (r *WaitlistRepository) Toggle(_ context.Context, productID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.ProductID == productID && e.UserID == userID {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return false, nil
		}
	}
	r.entries = append(r.entries, waitlist.Entry{
		ID:        newID(),
		ProductID: productID,
		UserID:    userID,
		CreatedAt: time.Now(),
	})
	return true, nil
}

func (r *WaitlistRepository) Exists(_ context.Context, productID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.ProductID == productID && e.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// ListByProduct skips entries whose account no longer exists.
func (r *WaitlistRepository) ListByProduct(ctx context.Context, productID string) ([]waitlist.Subscriber, error) {
	r.mu.Lock()
	var matched []waitlist.Entry
	for _, e := range r.entries {
		if e.ProductID == productID {
			matched = append(matched, e)
		}
	}
	r.mu.Unlock()

	out := make([]waitlist.Subscriber, 0, len(matched))
	for _, e := range matched {
		u, err := r.users.FindByID(ctx, e.UserID)
		if err != nil {
			continue
		}
		out = append(out, waitlist.Subscriber{EntryID: e.ID, UserID: u.ID, Name: u.Name, Email: u.Email})
	}
	return out, nil
}

func (r *WaitlistRepository) DeleteByProduct(_ context.Context, productID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	var removed int64
	for _, e := range r.entries {
		if e.ProductID == productID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return removed, nil
}

// Count is the number of entries for a product.
func (r *WaitlistRepository) Count(productID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		if e.ProductID == productID {
			n++
		}
	}
	return n
}
