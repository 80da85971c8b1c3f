// Package memory holds process-local stores with the same contracts as the postgres ones.
// They back STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"fashionsphere-service/internal/domain/campaign"
	xerrors "fashionsphere-service/internal/pkg/errors"
)

type CampaignRepository struct {
	mu    sync.RWMutex
	items []campaign.Campaign // insertion order is the listing order
}

func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{}
}

func (r *CampaignRepository) indexOf(id string) int {
	for i := range r.items {
		if r.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *CampaignRepository) Create(_ context.Context, c *campaign.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = newID()
	}
	if r.indexOf(c.ID) >= 0 {
		return xerrors.ErrConflict
	}
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.items = append(r.items, *c)
	return nil
}

func (r *CampaignRepository) FindByID(_ context.Context, id string) (*campaign.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, xerrors.ErrNotFound
	}
	c := r.items[i]
	return &c, nil
}

func (r *CampaignRepository) FindActive(_ context.Context) (*campaign.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c := campaign.FindActive(r.items); c != nil {
		out := *c
		return &out, nil
	}
	return nil, xerrors.ErrNotFound
}

func (r *CampaignRepository) ListAll(_ context.Context) ([]campaign.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]campaign.Campaign, len(r.items))
	copy(out, r.items)
	return out, nil
}

// Update stores the editable fields; the active flag is left alone.
func (r *CampaignRepository) Update(_ context.Context, c *campaign.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(c.ID)
	if i < 0 {
		return xerrors.ErrNotFound
	}
	stored := &r.items[i]
	stored.Name = c.Name
	stored.DiscountPercentage = c.DiscountPercentage
	stored.StartDate = c.StartDate
	stored.EndDate = c.EndDate
	stored.UpdatedAt = time.Now()
	c.IsActive = stored.IsActive
	c.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *CampaignRepository) DeleteIfInactive(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return xerrors.ErrNotFound
	}
	if r.items[i].IsActive {
		return xerrors.ErrCampaignActive
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return nil
}

// SetWinner flips every flag under one write lock, so readers see either the old or the
// new winner and never zero or two active campaigns.
func (r *CampaignRepository) SetWinner(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(id) < 0 {
		return "", xerrors.ErrNotFound
	}
	return r.setWinnerLocked(id), nil
}

func (r *CampaignRepository) ClearActive(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.setWinnerLocked(""), nil
}

func (r *CampaignRepository) setWinnerLocked(id string) string {
	previous := ""
	now := time.Now()
	for i := range r.items {
		c := &r.items[i]
		if c.IsActive {
			previous = c.ID
		}
		want := c.ID == id
		if c.IsActive != want {
			c.IsActive = want
			c.UpdatedAt = now
		}
	}
	return previous
}
