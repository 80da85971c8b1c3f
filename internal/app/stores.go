// internal/app/stores.go
package app

import (
	"context"
	"fmt"

	"fashionsphere-service/internal/config"
	"fashionsphere-service/internal/db"
	"fashionsphere-service/internal/repository/memory"
	"fashionsphere-service/internal/repository/postgres"
	authUsecase "fashionsphere-service/internal/service/auth"
	campaignUsecase "fashionsphere-service/internal/service/campaign"
	"fashionsphere-service/internal/service/discount"
	productUsecase "fashionsphere-service/internal/service/product"
	"fashionsphere-service/internal/service/restock"
	waitlistUsecase "fashionsphere-service/internal/service/waitlist"

	"github.com/jackc/pgx/v5/pgxpool"
)

// stores is the persistence surface shared by the services and the engines.
type stores struct {
	campaigns interface {
		campaignUsecase.Store
		discount.CampaignStore
	}
	products interface {
		productUsecase.Store
		discount.CatalogStore
	}
	users interface {
		authUsecase.UserStore
		discount.SubscriberSource
	}
	waitlist interface {
		waitlistUsecase.Store
		restock.WaitlistStore
	}

	pool *pgxpool.Pool
}

func openStores(ctx context.Context, cfg *config.AppConfig) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		users := memory.NewUserRepository()
		return &stores{
			campaigns: memory.NewCampaignRepository(),
			products:  memory.NewProductRepository(),
			users:     users,
			waitlist:  memory.NewWaitlistRepository(users),
		}, nil
	}

	pool, err := db.ConnectDB(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return &stores{
		campaigns: postgres.NewCampaignRepository(pool),
		products:  postgres.NewProductRepository(pool),
		users:     postgres.NewUserRepository(pool),
		waitlist:  postgres.NewWaitlistRepository(pool),
		pool:      pool,
	}, nil
}

func (s *stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
