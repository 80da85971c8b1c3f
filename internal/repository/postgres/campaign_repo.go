// internal/repository/postgres/campaign_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fashionsphere-service/internal/domain/campaign"
	xerrors "fashionsphere-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

const campaignColumns = `id, name, discount_percentage, start_date, end_date, is_active, created_at, updated_at`

type CampaignRepository struct {
	db *pgxpool.Pool
}

func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func scanCampaign(row pgx.Row) (*campaign.Campaign, error) {
	var c campaign.Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.DiscountPercentage, &c.StartDate, &c.EndDate,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new campaign; it always starts inactive.
func (r *CampaignRepository) Create(ctx context.Context, c *campaign.Campaign) error {
	if c.ID == "" {
		c.ID = ulid.Make().String()
	}
	query := `
		INSERT INTO campaigns (id, name, discount_percentage, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, FALSE)
		RETURNING is_active, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, c.ID, c.Name, c.DiscountPercentage, c.StartDate, c.EndDate).
		Scan(&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// FindByID retrieves a campaign by ID
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*campaign.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	c, err := scanCampaign(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	return c, nil
}

// FindActive returns the campaign currently flagged active
func (r *CampaignRepository) FindActive(ctx context.Context) (*campaign.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE is_active`

	c, err := scanCampaign(r.db.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active campaign: %w", err)
	}
	return c, nil
}

// ListAll returns every campaign, oldest first. Winner tie-breaks depend on this order.
func (r *CampaignRepository) ListAll(ctx context.Context) ([]campaign.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []campaign.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}
	return campaigns, nil
}

// Update stores the editable fields. The active flag belongs to reconciliation.
func (r *CampaignRepository) Update(ctx context.Context, c *campaign.Campaign) error {
	query := `
		UPDATE campaigns
		SET name = $1, discount_percentage = $2, start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING is_active, updated_at
	`
	err := r.db.QueryRow(ctx, query, c.Name, c.DiscountPercentage, c.StartDate, c.EndDate, c.ID).
		Scan(&c.IsActive, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	return nil
}

// DeleteIfInactive removes the campaign unless it is the active one.
func (r *CampaignRepository) DeleteIfInactive(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM campaigns WHERE id = $1 AND NOT is_active`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	// Nothing deleted: tell missing apart from active.
	var active bool
	err = r.db.QueryRow(ctx, `SELECT is_active FROM campaigns WHERE id = $1`, id).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check campaign: %w", err)
	}
	return xerrors.ErrCampaignActive
}

// SetWinner makes id the only active campaign in one transaction and returns the id that
// was active before ("" when none).
func (r *CampaignRepository) SetWinner(ctx context.Context, id string) (string, error) {
	return r.swapActive(ctx, id)
}

// ClearActive deactivates every campaign and returns the id that was active before.
func (r *CampaignRepository) ClearActive(ctx context.Context) (string, error) {
	return r.swapActive(ctx, "")
}

func (r *CampaignRepository) swapActive(ctx context.Context, id string) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var previous string
	err = tx.QueryRow(ctx, `SELECT id FROM campaigns WHERE is_active FOR UPDATE`).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("failed to lock active campaign: %w", err)
	}

	if id != "" {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1)`, id).Scan(&exists); err != nil {
			return "", fmt.Errorf("failed to check campaign: %w", err)
		}
		if !exists {
			return "", xerrors.ErrNotFound
		}
	}

	// One statement: concurrent readers see the old winner or the new one, never both.
	_, err = tx.Exec(ctx, `
		UPDATE campaigns
		SET is_active = (id = $1), updated_at = NOW()
		WHERE is_active <> (id = $1)
	`, id)
	if err != nil {
		return "", fmt.Errorf("failed to swap active campaign: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit active campaign: %w", err)
	}
	return previous, nil
}
