// internal/service/auth/admin_create.go
package auth

import (
	"context"
	"fmt"
	"strings"

	"fashionsphere-service/internal/domain/user"
	xerrors "fashionsphere-service/internal/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdminExists creates the bootstrap admin account if the email is not taken yet
// (called on startup). An existing account with that email is left as it is.
func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.logger.Info("no bootstrap admin configured, skipping creation")
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			s.logger.Warn("bootstrap admin email belongs to a customer account", zap.String("email", email))
		}
		return nil
	}
	if !xerrors.Is(err, xerrors.ErrNotFound) {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if name == "" {
		name = "Administrator"
	}

	admin := &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         user.RoleAdmin,
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.String("user_id", admin.ID), zap.String("email", email))
	return nil
}
