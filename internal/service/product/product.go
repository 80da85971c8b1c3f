// internal/service/product/product.go
package product

import (
	"context"
	"fmt"
	"strings"

	"fashionsphere-service/internal/domain/product"
	"fashionsphere-service/internal/domain/report"
	xerrors "fashionsphere-service/internal/pkg/errors"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, p *product.Product) error
	FindByID(ctx context.Context, id string) (*product.Product, error)
	ListAll(ctx context.Context) ([]product.Product, error)
	Update(ctx context.Context, id string, fn func(p *product.Product) error) (product.Product, *product.Product, error)
	ApplyDiscount(ctx context.Context, id string, percentage float64) (bool, error)
	Delete(ctx context.Context, id string) error
}

// settleAttempts bounds how often a freshly priced product is re-priced because the
// active sale changed while it was being written.
const settleAttempts = 3

// SalePricer reports the percentage of the sale currently applied to the catalog.
type SalePricer interface {
	ActivePercentage(ctx context.Context) (float64, error)
}

type RestockReconciler interface {
	Reconcile(ctx context.Context, sig product.RestockSignal) (*report.Restock, error)
}

type WaitlistLookup interface {
	Exists(ctx context.Context, productID, userID string) (bool, error)
}

type ProductService struct {
	store    Store
	pricer   SalePricer
	restock  RestockReconciler
	waitlist WaitlistLookup
	logger   *zap.Logger
}

func NewProductService(store Store, pricer SalePricer, restock RestockReconciler, waitlist WaitlistLookup, logger *zap.Logger) *ProductService {
	return &ProductService{
		store:    store,
		pricer:   pricer,
		restock:  restock,
		waitlist: waitlist,
		logger:   logger,
	}
}

// ========== Admin Operations ==========

func (s *ProductService) CreateProduct(ctx context.Context, req *product.CreateProductRequest) (*product.Product, error) {
	pct, err := s.pricer.ActivePercentage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active sale: %w", err)
	}

	p := &product.Product{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: product.DiscountPriceFor(req.Price, pct),
		CountInStock:  req.CountInStock,
		Category:      req.Category,
		Brand:         req.Brand,
		Sizes:         pq.StringArray(req.Sizes),
		Colors:        pq.StringArray(req.Colors),
		SKU:           req.SKU,
		IsPublished:   true,
	}
	if req.IsPublished != nil {
		p.IsPublished = *req.IsPublished
	}
	if err := validate(p); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.settleDiscount(ctx, p, pct)
	s.logger.Info("product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// UpdateProduct applies a partial update. A stock change from zero to a positive
// quantity consumes the product's waiting list before returning; failures there are
// logged and never fail the update itself.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req *product.UpdateProductRequest) (*product.Product, error) {
	var pct float64
	if req.Price != nil {
		var err error
		if pct, err = s.pricer.ActivePercentage(ctx); err != nil {
			return nil, fmt.Errorf("failed to load active sale: %w", err)
		}
	}

	before, after, err := s.store.Update(ctx, id, func(p *product.Product) error {
		applyUpdate(p, req)
		if req.Price != nil {
			p.DiscountPrice = product.DiscountPriceFor(p.Price, pct)
		}
		return validate(p)
	})
	if err != nil {
		return nil, err
	}
	if req.Price != nil {
		s.settleDiscount(ctx, after, pct)
	}

	sig := product.RestockSignal{
		ProductID:     after.ID,
		ProductName:   after.Name,
		PreviousStock: before.CountInStock,
		NewStock:      after.CountInStock,
	}
	if sig.IsRestock() {
		s.handleRestock(ctx, sig)
	}
	return after, nil
}

// settleDiscount re-reads the active sale after p was written with used. A
// reconciliation that switched the sale in between may already have priced the
// product, so the discount is derived again until it matches the sale still active.
func (s *ProductService) settleDiscount(ctx context.Context, p *product.Product, used float64) {
	for i := 0; i < settleAttempts; i++ {
		current, err := s.pricer.ActivePercentage(ctx)
		if err != nil {
			s.logger.Warn("active sale re-check failed", zap.String("product_id", p.ID), zap.Error(err))
			return
		}
		if current == used {
			return
		}
		if _, err := s.store.ApplyDiscount(ctx, p.ID, current); err != nil {
			s.logger.Warn("re-pricing product failed", zap.String("product_id", p.ID), zap.Error(err))
			return
		}
		s.logger.Info("product re-priced for changed sale",
			zap.String("product_id", p.ID),
			zap.Float64("discount_percentage", current))
		p.DiscountPrice = product.DiscountPriceFor(p.Price, current)
		used = current
	}
	s.logger.Warn("active sale kept changing while pricing product", zap.String("product_id", p.ID))
}

func (s *ProductService) handleRestock(ctx context.Context, sig product.RestockSignal) {
	if s.restock == nil {
		return
	}
	// The stock change is already committed; a dropped client must not cut the
	// waiting list consumption short.
	rep, err := s.restock.Reconcile(context.WithoutCancel(ctx), sig)
	if err != nil {
		s.logger.Error("restock reconciliation failed",
			zap.String("product_id", sig.ProductID),
			zap.Error(err))
		return
	}
	s.logger.Info("product restocked",
		zap.String("product_id", sig.ProductID),
		zap.Int("previous_stock", sig.PreviousStock),
		zap.Int("new_stock", sig.NewStock),
		zap.Int("notified", rep.Sent))
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// ========== Queries ==========

// ListProducts returns the catalog; unpublished products only for admins.
func (s *ProductService) ListProducts(ctx context.Context, includeUnpublished bool) ([]product.Product, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if includeUnpublished {
		return all, nil
	}
	published := make([]product.Product, 0, len(all))
	for _, p := range all {
		if p.IsPublished {
			published = append(published, p)
		}
	}
	return published, nil
}

// GetProduct returns the product and, for a signed-in user, whether they are on its
// waiting list.
func (s *ProductService) GetProduct(ctx context.Context, id, userID string) (*product.ProductDetailResponse, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &product.ProductDetailResponse{Product: p}
	if userID != "" && s.waitlist != nil {
		onList, err := s.waitlist.Exists(ctx, id, userID)
		if err != nil {
			s.logger.Warn("wait-list lookup failed", zap.String("product_id", id), zap.Error(err))
		}
		resp.WaitList = onList
	}
	return resp, nil
}

// ========== Helpers ==========

func applyUpdate(p *product.Product, req *product.UpdateProductRequest) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.CountInStock != nil {
		p.CountInStock = *req.CountInStock
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.Sizes != nil {
		p.Sizes = pq.StringArray(req.Sizes)
	}
	if req.Colors != nil {
		p.Colors = pq.StringArray(req.Colors)
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.IsPublished != nil {
		p.IsPublished = *req.IsPublished
	}
}

func validate(p *product.Product) error {
	if p.Name == "" {
		return xerrors.Invalid("name is required")
	}
	if p.Price < 0 {
		return xerrors.Invalid("price must not be negative")
	}
	if p.CountInStock < 0 {
		return xerrors.Invalid("count in stock must not be negative")
	}
	return nil
}
