package campaign

import (
	"context"
	"testing"
	"time"

	"fashionsphere-service/internal/domain/campaign"
	xerrors "fashionsphere-service/internal/pkg/errors"
	"fashionsphere-service/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (*CampaignService, *memory.CampaignRepository, *int) {
	t.Helper()
	store := memory.NewCampaignRepository()
	svc := NewCampaignService(store, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, time.January, 20, 12, 0, 0, 0, time.UTC) }
	calls := 0
	svc.OnChange(func() { calls++ })
	return svc, store, &calls
}

func at(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateCampaign_Validation(t *testing.T) {
	svc, _, calls := newService(t)

	tests := []struct {
		name string
		req  campaign.CreateCampaignRequest
	}{
		{"blank name", campaign.CreateCampaignRequest{Name: "  ", DiscountPercentage: 10, StartDate: at(1, 1), EndDate: at(1, 2)}},
		{"zero percent", campaign.CreateCampaignRequest{Name: "x", DiscountPercentage: 0, StartDate: at(1, 1), EndDate: at(1, 2)}},
		{"over 100", campaign.CreateCampaignRequest{Name: "x", DiscountPercentage: 100.5, StartDate: at(1, 1), EndDate: at(1, 2)}},
		{"end before start", campaign.CreateCampaignRequest{Name: "x", DiscountPercentage: 10, StartDate: at(1, 2), EndDate: at(1, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCampaign(context.Background(), &tt.req)
			assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
		})
	}
	assert.Zero(t, *calls)

	c, err := svc.CreateCampaign(context.Background(), &campaign.CreateCampaignRequest{
		Name: "Same day", DiscountPercentage: 100, StartDate: at(1, 1), EndDate: at(1, 1),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.IsActive)
	assert.Equal(t, 1, *calls)
}

func TestDeleteCampaign_RejectsActive(t *testing.T) {
	svc, store, calls := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCampaign(ctx, &campaign.CreateCampaignRequest{
		Name: "Sale", DiscountPercentage: 20, StartDate: at(1, 1), EndDate: at(1, 31),
	})
	require.NoError(t, err)
	_, err = store.SetWinner(ctx, c.ID)
	require.NoError(t, err)

	err = svc.DeleteCampaign(ctx, c.ID)
	assert.ErrorIs(t, err, xerrors.ErrCampaignActive)
	_, err = store.FindByID(ctx, c.ID)
	require.NoError(t, err)

	_, err = store.ClearActive(ctx)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCampaign(ctx, c.ID))
	assert.ErrorIs(t, svc.DeleteCampaign(ctx, c.ID), xerrors.ErrNotFound)
	assert.Equal(t, 2, *calls)
}

func TestUpdateCampaign_PartialAndKeepsActiveFlag(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCampaign(ctx, &campaign.CreateCampaignRequest{
		Name: "Sale", DiscountPercentage: 20, StartDate: at(1, 1), EndDate: at(1, 31),
	})
	require.NoError(t, err)
	_, err = store.SetWinner(ctx, c.ID)
	require.NoError(t, err)

	pct := 45.0
	updated, err := svc.UpdateCampaign(ctx, c.ID, &campaign.UpdateCampaignRequest{DiscountPercentage: &pct})
	require.NoError(t, err)
	assert.Equal(t, 45.0, updated.DiscountPercentage)
	assert.Equal(t, "Sale", updated.Name)

	stored, err := store.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Equal(t, 45.0, stored.DiscountPercentage)

	end := at(1, 1).Add(-time.Hour)
	_, err = svc.UpdateCampaign(ctx, c.ID, &campaign.UpdateCampaignRequest{EndDate: &end})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestListCampaigns_HidesExpiredNewestFirst(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	create := func(name string, start, end time.Time) {
		_, err := svc.CreateCampaign(ctx, &campaign.CreateCampaignRequest{
			Name: name, DiscountPercentage: 10, StartDate: start, EndDate: end,
		})
		require.NoError(t, err)
	}
	create("expired", at(1, 1), at(1, 10))
	create("running", at(1, 15), at(2, 15))
	create("upcoming", at(3, 1), at(3, 31))

	resp, err := svc.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, resp.Sales, 2)
	assert.Equal(t, "upcoming", resp.Sales[0].Name)
	assert.Equal(t, "running", resp.Sales[1].Name)
}

func TestActivePercentage(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()

	pct, err := svc.ActivePercentage(ctx)
	require.NoError(t, err)
	assert.Zero(t, pct)

	c, err := svc.CreateCampaign(ctx, &campaign.CreateCampaignRequest{
		Name: "Sale", DiscountPercentage: 35, StartDate: at(1, 1), EndDate: at(1, 31),
	})
	require.NoError(t, err)
	_, err = store.SetWinner(ctx, c.ID)
	require.NoError(t, err)

	pct, err = svc.ActivePercentage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 35.0, pct)

	summary, err := svc.GetActiveSale(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.ID, summary.ID)
}
