// internal/domain/campaign/entity.go
package campaign

import "time"

// Campaign is a time-bounded percentage sale applied to the whole catalog.
type Campaign struct {
	ID                 string    `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	DiscountPercentage float64   `json:"discountPercentage" db:"discount_percentage"`
	StartDate          time.Time `json:"startDate" db:"start_date"`
	EndDate            time.Time `json:"endDate" db:"end_date"`
	IsActive           bool      `json:"isActive" db:"is_active"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ValidAt reports whether now falls inside [StartDate, EndDate], both ends inclusive.
func (c *Campaign) ValidAt(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Expired reports whether the campaign ended before now.
func (c *Campaign) Expired(now time.Time) bool {
	return c.EndDate.Before(now)
}

// SelectWinner returns the campaign with the highest discount among those valid at now.
// On a tie the first campaign in the given order wins. Returns nil when nothing is valid.
func SelectWinner(campaigns []Campaign, now time.Time) *Campaign {
	var winner *Campaign
	for i := range campaigns {
		c := &campaigns[i]
		if !c.ValidAt(now) {
			continue
		}
		if winner == nil || c.DiscountPercentage > winner.DiscountPercentage {
			winner = c
		}
	}
	return winner
}

// FindActive returns the campaign currently flagged active, if any.
func FindActive(campaigns []Campaign) *Campaign {
	for i := range campaigns {
		if campaigns[i].IsActive {
			return &campaigns[i]
		}
	}
	return nil
}
