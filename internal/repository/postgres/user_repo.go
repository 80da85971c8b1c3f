// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fashionsphere-service/internal/domain/user"
	xerrors "fashionsphere-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

const userColumns = `id, name, email, password_hash, role, is_verified, sale_notification, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsVerified, &u.SaleNotification, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = ulid.Make().String()
	}
	query := `
		INSERT INTO users (id, name, email, password_hash, role, is_verified, sale_notification)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.IsVerified, u.SaleNotification,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return xerrors.ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, `LOWER(email) = LOWER($1)`, email)
}

func (r *UserRepository) SetSaleNotification(ctx context.Context, id string, enabled bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET sale_notification = $1, updated_at = NOW() WHERE id = $2`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update sale notification: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ListSaleSubscribers returns every account opted in to sale emails
func (r *UserRepository) ListSaleSubscribers(ctx context.Context) ([]user.Recipient, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email FROM users WHERE sale_notification ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sale subscribers: %w", err)
	}
	defer rows.Close()

	recipients := []user.Recipient{}
	for rows.Next() {
		var rcpt user.Recipient
		if err := rows.Scan(&rcpt.ID, &rcpt.Name, &rcpt.Email); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		recipients = append(recipients, rcpt)
	}
	return recipients, rows.Err()
}
