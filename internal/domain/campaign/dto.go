// internal/domain/campaign/dto.go
package campaign

import "time"

type CreateCampaignRequest struct {
	Name               string    `json:"name" binding:"required,max=255"`
	DiscountPercentage float64   `json:"discountPercentage" binding:"required,gt=0,lte=100"`
	StartDate          time.Time `json:"startDate" binding:"required"`
	EndDate            time.Time `json:"endDate" binding:"required"`
}

// UpdateCampaignRequest carries a partial update; nil fields keep their stored value.
type UpdateCampaignRequest struct {
	Name               *string    `json:"name" binding:"omitempty,max=255"`
	DiscountPercentage *float64   `json:"discountPercentage" binding:"omitempty,gt=0,lte=100"`
	StartDate          *time.Time `json:"startDate"`
	EndDate            *time.Time `json:"endDate"`
}

type CampaignListResponse struct {
	Sales []Campaign `json:"sales"`
}

// Summary is the part of a campaign carried in reports and events.
type Summary struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	DiscountPercentage float64   `json:"discountPercentage"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
}

func (c *Campaign) Summary() *Summary {
	return &Summary{
		ID:                 c.ID,
		Name:               c.Name,
		DiscountPercentage: c.DiscountPercentage,
		StartDate:          c.StartDate,
		EndDate:            c.EndDate,
	}
}
