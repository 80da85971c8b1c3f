// internal/service/waitlist/waitlist.go
package waitlist

import (
	"context"
	"fmt"

	"fashionsphere-service/internal/domain/product"
	"fashionsphere-service/internal/domain/waitlist"

	"go.uber.org/zap"
)

type Store interface {
	Toggle(ctx context.Context, productID, userID string) (bool, error)
	Exists(ctx context.Context, productID, userID string) (bool, error)
}

type ProductLookup interface {
	FindByID(ctx context.Context, id string) (*product.Product, error)
}

type WaitlistService struct {
	store    Store
	products ProductLookup
	logger   *zap.Logger
}

func NewWaitlistService(store Store, products ProductLookup, logger *zap.Logger) *WaitlistService {
	return &WaitlistService{store: store, products: products, logger: logger}
}

// Toggle flips the user's subscription to restock alerts for a product.
func (s *WaitlistService) Toggle(ctx context.Context, productID, userID string) (*waitlist.ToggleResponse, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	subscribed, err := s.store.Toggle(ctx, productID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle wait-list: %w", err)
	}

	s.logger.Debug("wait-list toggled",
		zap.String("product_id", productID),
		zap.String("user_id", userID),
		zap.Bool("subscribed", subscribed))

	resp := &waitlist.ToggleResponse{WaitList: subscribed, Message: "Removed from wait-list"}
	if subscribed {
		resp.Message = "Added to wait-list"
	}
	return resp, nil
}

func (s *WaitlistService) IsSubscribed(ctx context.Context, productID, userID string) (bool, error) {
	return s.store.Exists(ctx, productID, userID)
}
