package memory

import (
	"context"
	"sync"
	"time"

	"fashionsphere-service/internal/domain/product"
	xerrors "fashionsphere-service/internal/pkg/errors"
)

type ProductRepository struct {
	mu    sync.RWMutex
	items []product.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

func (r *ProductRepository) indexOf(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = newID()
	}
	if r.indexOf(p.ID) >= 0 {
		return xerrors.ErrConflict
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.items = append(r.items, *p)
	return nil
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, xerrors.ErrNotFound
	}
	p := r.items[i]
	return &p, nil
}

func (r *ProductRepository) ListAll(_ context.Context) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]product.Product, len(r.items))
	copy(out, r.items)
	return out, nil
}

// Update applies fn to the stored product atomically and returns the product as it was
// before and after the change.
func (r *ProductRepository) Update(_ context.Context, id string, fn func(p *product.Product) error) (product.Product, *product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return product.Product{}, nil, xerrors.ErrNotFound
	}
	before := r.items[i]
	after := before
	if err := fn(&after); err != nil {
		return product.Product{}, nil, err
	}
	after.ID = before.ID
	after.CreatedAt = before.CreatedAt
	after.UpdatedAt = time.Now()
	r.items[i] = after

	out := after
	return before, &out, nil
}

// ApplyDiscount derives the discount price from the stored price and reports whether
// the stored value changed.
func (r *ProductRepository) ApplyDiscount(_ context.Context, id string, percentage float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false, xerrors.ErrNotFound
	}
	target := product.DiscountPriceFor(r.items[i].Price, percentage)
	if r.items[i].DiscountPrice == target {
		return false, nil
	}
	r.items[i].DiscountPrice = target
	r.items[i].UpdatedAt = time.Now()
	return true, nil
}

func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return xerrors.ErrNotFound
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return nil
}
