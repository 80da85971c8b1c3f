// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"strings"

	"fashionsphere-service/internal/domain/user"
	xerrors "fashionsphere-service/internal/pkg/errors"
	"fashionsphere-service/internal/pkg/jwt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	Create(ctx context.Context, u *user.User) error
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	SetSaleNotification(ctx context.Context, id string, enabled bool) error
}

// AttemptLimiter throttles password guesses. Optional.
type AttemptLimiter interface {
	Allow(ctx context.Context, ip, email string) (bool, int64, error)
	Reset(ctx context.Context, ip, email string) error
}

type AuthService struct {
	users       UserStore
	jwtManager  *jwt.Manager
	rateLimiter AttemptLimiter
	logger      *zap.Logger
}

func NewAuthService(users UserStore, jwtManager *jwt.Manager, rateLimiter AttemptLimiter, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:       users,
		jwtManager:  jwtManager,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// ========== Registration ==========

// Register creates a customer account and signs it in
func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashedPassword),
		Role:         user.RoleCustomer,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if xerrors.Is(err, xerrors.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", xerrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return s.issue(u)
}

// ========== Login ==========

func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest, ipAddress string) (*user.AuthResponse, error) {
	if s.rateLimiter != nil {
		allowed, _, err := s.rateLimiter.Allow(ctx, ipAddress, req.Email)
		if err != nil {
			// Redis trouble must not lock everybody out
			s.logger.Warn("login rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, fmt.Errorf("%w: too many login attempts, please try again in 15 minutes", xerrors.ErrRateLimited)
		}
	}

	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized)
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Reset(ctx, ipAddress, req.Email); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.Error(err))
		}
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *user.User) (*user.AuthResponse, error) {
	token, err := s.jwtManager.Generator.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &user.AuthResponse{User: u, Token: token.Value, ExpiresAt: token.ExpiresAt}, nil
}

// ========== Profile ==========

func (s *AuthService) GetMe(ctx context.Context, userID string) (*user.User, error) {
	return s.users.FindByID(ctx, userID)
}

// SetSaleNotification opts the account in or out of sale announcement emails
func (s *AuthService) SetSaleNotification(ctx context.Context, userID string, enabled bool) (*user.User, error) {
	if err := s.users.SetSaleNotification(ctx, userID, enabled); err != nil {
		return nil, err
	}
	s.logger.Info("sale notification preference updated",
		zap.String("user_id", userID),
		zap.Bool("enabled", enabled))
	return s.users.FindByID(ctx, userID)
}
