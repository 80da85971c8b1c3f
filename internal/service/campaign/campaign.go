// internal/service/campaign/campaign.go
package campaign

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"fashionsphere-service/internal/domain/campaign"
	xerrors "fashionsphere-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, c *campaign.Campaign) error
	FindByID(ctx context.Context, id string) (*campaign.Campaign, error)
	FindActive(ctx context.Context) (*campaign.Campaign, error)
	ListAll(ctx context.Context) ([]campaign.Campaign, error)
	Update(ctx context.Context, c *campaign.Campaign) error
	DeleteIfInactive(ctx context.Context, id string) error
}

type CampaignService struct {
	store    Store
	onChange func()
	now      func() time.Time
	logger   *zap.Logger
}

func NewCampaignService(store Store, logger *zap.Logger) *CampaignService {
	return &CampaignService{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// OnChange registers fn to run after every successful create, update or delete.
// fn must not block.
func (s *CampaignService) OnChange(fn func()) {
	s.onChange = fn
}

func (s *CampaignService) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// ========== Admin Operations ==========

// CreateCampaign stores a new sale. It starts inactive; the reconciler decides activity.
func (s *CampaignService) CreateCampaign(ctx context.Context, req *campaign.CreateCampaignRequest) (*campaign.Campaign, error) {
	c := &campaign.Campaign{
		Name:               strings.TrimSpace(req.Name),
		DiscountPercentage: req.DiscountPercentage,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
	}
	if err := validate(c); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	s.logger.Info("campaign created",
		zap.String("campaign_id", c.ID),
		zap.String("name", c.Name),
		zap.Float64("discount_percentage", c.DiscountPercentage))
	s.changed()
	return c, nil
}

// UpdateCampaign applies a partial update. The active flag is never editable here.
func (s *CampaignService) UpdateCampaign(ctx context.Context, id string, req *campaign.UpdateCampaignRequest) (*campaign.Campaign, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.DiscountPercentage != nil {
		c.DiscountPercentage = *req.DiscountPercentage
	}
	if req.StartDate != nil {
		c.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		c.EndDate = *req.EndDate
	}
	if err := validate(c); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	s.logger.Info("campaign updated", zap.String("campaign_id", c.ID))
	s.changed()
	return c, nil
}

// DeleteCampaign removes an inactive sale. Deleting the active one is rejected with
// ErrCampaignActive.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.store.DeleteIfInactive(ctx, id); err != nil {
		if !xerrors.Is(err, xerrors.ErrNotFound) && !xerrors.Is(err, xerrors.ErrCampaignActive) {
			return fmt.Errorf("failed to delete campaign: %w", err)
		}
		return err
	}

	s.logger.Info("campaign deleted", zap.String("campaign_id", id))
	s.changed()
	return nil
}

// ========== Queries ==========

// ListCampaigns returns campaigns that have not ended yet, latest start first.
func (s *CampaignService) ListCampaigns(ctx context.Context) (*campaign.CampaignListResponse, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	now := s.now()
	sales := make([]campaign.Campaign, 0, len(all))
	for i := range all {
		if !all[i].Expired(now) {
			sales = append(sales, all[i])
		}
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].StartDate.After(sales[j].StartDate)
	})

	return &campaign.CampaignListResponse{Sales: sales}, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*campaign.Campaign, error) {
	return s.store.FindByID(ctx, id)
}

// GetActiveSale returns the public view of the running sale, or ErrNotFound.
func (s *CampaignService) GetActiveSale(ctx context.Context) (*campaign.Summary, error) {
	c, err := s.store.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	return c.Summary(), nil
}

// ActivePercentage is the discount of the running sale, 0 when none is active.
func (s *CampaignService) ActivePercentage(ctx context.Context) (float64, error) {
	c, err := s.store.FindActive(ctx)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.DiscountPercentage, nil
}

// ========== Helpers ==========

func validate(c *campaign.Campaign) error {
	if c.Name == "" {
		return xerrors.Invalid("name is required")
	}
	if c.DiscountPercentage <= 0 || c.DiscountPercentage > 100 {
		return xerrors.Invalid("discount percentage must be greater than 0 and at most 100")
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return xerrors.Invalid("start and end dates are required")
	}
	if c.EndDate.Before(c.StartDate) {
		return xerrors.Invalid("end date must not be before start date")
	}
	return nil
}
