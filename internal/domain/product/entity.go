// internal/domain/product/entity.go
package product

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string         `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	Description   string         `json:"description" db:"description"`
	Price         float64        `json:"price" db:"price"`
	DiscountPrice float64        `json:"discountPrice" db:"discount_price"`
	CountInStock  int            `json:"countInStock" db:"count_in_stock"`
	Category      string         `json:"category" db:"category"`
	Brand         string         `json:"brand" db:"brand"`
	Sizes         pq.StringArray `json:"sizes" db:"sizes"`
	Colors        pq.StringArray `json:"colors" db:"colors"`
	SKU           string         `json:"sku" db:"sku"`
	IsPublished   bool           `json:"isPublished" db:"is_published"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// DiscountPriceFor returns price reduced by percentage, rounded half away from zero to
// two decimals. A non-positive percentage means no sale, stored as a zero discount price.
func DiscountPriceFor(price, percentage float64) float64 {
	if percentage <= 0 {
		return 0
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(percentage).Div(hundred))
	v, _ := decimal.NewFromFloat(price).Mul(factor).Round(2).Float64()
	return v
}

// RestockSignal is raised by the catalog update path after it persisted a stock change.
type RestockSignal struct {
	ProductID     string
	ProductName   string
	PreviousStock int
	NewStock      int
}

// IsRestock reports the zero to positive stock transition.
func (s RestockSignal) IsRestock() bool {
	return s.PreviousStock == 0 && s.NewStock > 0
}
