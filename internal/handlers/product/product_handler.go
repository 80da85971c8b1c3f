// internal/handlers/product/product_handler.go
package product

import (
	"net/http"

	"fashionsphere-service/internal/domain/product"
	"fashionsphere-service/internal/domain/waitlist"
	"fashionsphere-service/internal/middleware"
	"fashionsphere-service/internal/pkg/response"
	productUsecase "fashionsphere-service/internal/service/product"
	waitlistUsecase "fashionsphere-service/internal/service/waitlist"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService  *productUsecase.ProductService
	waitlistService *waitlistUsecase.WaitlistService
}

func NewProductHandler(productService *productUsecase.ProductService, waitlistService *waitlistUsecase.WaitlistService) *ProductHandler {
	return &ProductHandler{
		productService:  productService,
		waitlistService: waitlistService,
	}
}

// ========== Storefront ==========

// ListProducts returns the catalog; unpublished items are only visible to admins
func (h *ProductHandler) ListProducts(c *gin.Context) {
	items, err := h.productService.ListProducts(c.Request.Context(), middleware.IsAdmin(c))
	if err != nil {
		response.FromError(c, "failed to list products", err)
		return
	}
	response.Success(c, http.StatusOK, "products retrieved", gin.H{
		"products": items,
		"total":    len(items),
	})
}

// GetProduct includes whether the caller is on the product's wait-list
func (h *ProductHandler) GetProduct(c *gin.Context) {
	result, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		response.FromError(c, "product not found", err)
		return
	}
	response.Success(c, http.StatusOK, "product retrieved", result)
}

// ToggleWaitList adds or removes the caller from a product's wait-list
func (h *ProductHandler) ToggleWaitList(c *gin.Context) {
	var req waitlist.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.waitlistService.Toggle(c.Request.Context(), req.ProductID, middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to update wait-list", err)
		return
	}
	response.Success(c, http.StatusOK, result.Message, result)
}

// ========== Admin Only Endpoints ==========

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create product", err)
		return
	}
	response.Success(c, http.StatusCreated, "product created successfully", result)
}

// UpdateProduct applies a partial update. Raising stock from zero notifies the
// product's wait-list before the response is written.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req product.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	result, err := h.productService.UpdateProduct(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, "failed to update product", err)
		return
	}
	response.Success(c, http.StatusOK, "product updated successfully", result)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, "failed to delete product", err)
		return
	}
	response.Success(c, http.StatusOK, "product deleted successfully", nil)
}
