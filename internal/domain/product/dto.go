// internal/domain/product/dto.go
package product

type CreateProductRequest struct {
	Name         string   `json:"name" binding:"required,max=255"`
	Description  string   `json:"description"`
	Price        float64  `json:"price" binding:"gte=0"`
	CountInStock int      `json:"countInStock" binding:"gte=0"`
	Category     string   `json:"category"`
	Brand        string   `json:"brand"`
	Sizes        []string `json:"sizes"`
	Colors       []string `json:"colors"`
	SKU          string   `json:"sku"`
	IsPublished  *bool    `json:"isPublished"`
}

// UpdateProductRequest is a partial update. The discount price is not settable: it is
// derived from the active sale.
type UpdateProductRequest struct {
	Name         *string  `json:"name" binding:"omitempty,max=255"`
	Description  *string  `json:"description"`
	Price        *float64 `json:"price" binding:"omitempty,gte=0"`
	CountInStock *int     `json:"countInStock" binding:"omitempty,gte=0"`
	Category     *string  `json:"category"`
	Brand        *string  `json:"brand"`
	Sizes        []string `json:"sizes"`
	Colors       []string `json:"colors"`
	SKU          *string  `json:"sku"`
	IsPublished  *bool    `json:"isPublished"`
}

type ProductDetailResponse struct {
	Product  *Product `json:"product"`
	WaitList bool     `json:"waitList"`
}
