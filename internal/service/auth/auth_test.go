package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"fashionsphere-service/internal/domain/user"
	xerrors "fashionsphere-service/internal/pkg/errors"
	"fashionsphere-service/internal/pkg/jwt"
	"fashionsphere-service/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingLimiter struct {
	limit    int64
	attempts map[string]int64
	resets   int
}

func (l *countingLimiter) Allow(_ context.Context, ip, email string) (bool, int64, error) {
	l.attempts[ip+email]++
	n := l.attempts[ip+email]
	return n <= l.limit, l.limit - n, nil
}

func (l *countingLimiter) Reset(_ context.Context, ip, email string) error {
	l.resets++
	delete(l.attempts, ip+email)
	return nil
}

func newAuth(t *testing.T, limiter AttemptLimiter) (*AuthService, *jwt.Manager, *memory.UserRepository) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	manager := jwt.NewManager(key, &key.PublicKey, jwt.Config{
		Issuer: "fashionsphere", Audience: "fashionsphere-web", TTL: time.Hour,
	})
	users := memory.NewUserRepository()
	return NewAuthService(users, manager, limiter, zap.NewNop()), manager, users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, manager, _ := newAuth(t, nil)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &user.RegisterRequest{Name: "Ada", Email: "Ada@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, user.RoleCustomer, reg.User.Role)

	claims, err := manager.Verifier.VerifyAccessToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID())
	assert.False(t, claims.IsAdmin())

	_, err = svc.Register(ctx, &user.RegisterRequest{Name: "Ada 2", Email: "ada@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, xerrors.ErrConflict)

	login, err := svc.Login(ctx, &user.LoginRequest{Email: "ada@example.com", Password: "secret1"}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = svc.Login(ctx, &user.LoginRequest{Email: "ada@example.com", Password: "wrong"}, "10.0.0.1")
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)

	_, err = svc.Login(ctx, &user.LoginRequest{Email: "nobody@example.com", Password: "x"}, "10.0.0.1")
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := &countingLimiter{limit: 2, attempts: map[string]int64{}}
	svc, _, _ := newAuth(t, limiter)
	ctx := context.Background()

	_, err := svc.Register(ctx, &user.RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "secret1"})
	require.NoError(t, err)

	bad := &user.LoginRequest{Email: "bo@example.com", Password: "nope"}
	for i := 0; i < 2; i++ {
		_, err = svc.Login(ctx, bad, "1.2.3.4")
		assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
	}
	_, err = svc.Login(ctx, &user.LoginRequest{Email: "bo@example.com", Password: "secret1"}, "1.2.3.4")
	assert.ErrorIs(t, err, xerrors.ErrRateLimited)

	_, err = svc.Login(ctx, &user.LoginRequest{Email: "bo@example.com", Password: "secret1"}, "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.resets)
}

func TestSetSaleNotification(t *testing.T) {
	svc, _, users := newAuth(t, nil)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &user.RegisterRequest{Name: "Cy", Email: "cy@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.False(t, reg.User.SaleNotification)

	u, err := svc.SetSaleNotification(ctx, reg.User.ID, true)
	require.NoError(t, err)
	assert.True(t, u.SaleNotification)

	subs, err := users.ListSaleSubscribers(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "cy@example.com", subs[0].Email)

	_, err = svc.SetSaleNotification(ctx, "missing", true)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestEnsureAdminExists(t *testing.T) {
	svc, manager, users := newAuth(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdminExists(ctx, "Admin@Shop.com", "hunter22", ""))
	require.NoError(t, svc.EnsureAdminExists(ctx, "admin@shop.com", "other", ""))

	admin, err := users.FindByEmail(ctx, "admin@shop.com")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	login, err := svc.Login(ctx, &user.LoginRequest{Email: "admin@shop.com", Password: "hunter22"}, "")
	require.NoError(t, err)
	claims, err := manager.Verifier.VerifyAccessToken(login.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())

	require.NoError(t, svc.EnsureAdminExists(ctx, "", "", ""))
}
