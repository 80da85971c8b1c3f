// internal/repository/postgres/waitlist_repo.go
package postgres

import (
	"context"
	"fmt"

	"fashionsphere-service/internal/domain/waitlist"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

type WaitlistRepository struct {
	db *pgxpool.Pool
}

func NewWaitlistRepository(db *pgxpool.Pool) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// Toggle removes the (product, user) entry if present, otherwise creates it.
// It reports whether the user is subscribed afterwards.
func (r *WaitlistRepository) Toggle(ctx context.Context, productID, userID string) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`DELETE FROM waiting_list WHERE product_id = $1 AND user_id = $2`, productID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove wait-list entry: %w", err)
	}

	subscribed := false
	if result.RowsAffected() == 0 {
		// A concurrent toggle may insert first; the unique key keeps a single row either way.
		_, err = tx.Exec(ctx, `
			INSERT INTO waiting_list (id, product_id, user_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (product_id, user_id) DO NOTHING
		`, ulid.Make().String(), productID, userID)
		if err != nil {
			return false, fmt.Errorf("failed to add wait-list entry: %w", err)
		}
		subscribed = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit wait-list toggle: %w", err)
	}
	return subscribed, nil
}

func (r *WaitlistRepository) Exists(ctx context.Context, productID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM waiting_list WHERE product_id = $1 AND user_id = $2)`,
		productID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check wait-list entry: %w", err)
	}
	return exists, nil
}

// ListByProduct resolves each entry to the subscriber's current name and address.
// Entries whose account was deleted are skipped.
func (r *WaitlistRepository) ListByProduct(ctx context.Context, productID string) ([]waitlist.Subscriber, error) {
	rows, err := r.db.Query(ctx, `
		SELECT w.id, u.id, u.name, u.email
		FROM waiting_list w
		JOIN users u ON u.id = w.user_id
		WHERE w.product_id = $1
		ORDER BY w.created_at, w.id
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wait-list: %w", err)
	}
	defer rows.Close()

	subscribers := []waitlist.Subscriber{}
	for rows.Next() {
		var s waitlist.Subscriber
		if err := rows.Scan(&s.EntryID, &s.UserID, &s.Name, &s.Email); err != nil {
			return nil, fmt.Errorf("failed to scan wait-list entry: %w", err)
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}

func (r *WaitlistRepository) DeleteByProduct(ctx context.Context, productID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM waiting_list WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear wait-list: %w", err)
	}
	return result.RowsAffected(), nil
}
