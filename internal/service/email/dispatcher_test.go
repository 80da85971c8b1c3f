package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type transportFunc func(ctx context.Context, to, subject, body string) error

func (f transportFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}

func TestDispatcher_PassesThroughResult(t *testing.T) {
	boom := errors.New("smtp down")
	var got []string
	d := NewDispatcher(transportFunc(func(_ context.Context, to, _, _ string) error {
		got = append(got, to)
		if to == "bad@example.com" {
			return boom
		}
		return nil
	}), DispatcherConfig{}, zap.NewNop())

	require.NoError(t, d.Send(context.Background(), "ok@example.com", "s", "b"))
	assert.ErrorIs(t, d.Send(context.Background(), "bad@example.com", "s", "b"), boom)
	assert.Equal(t, []string{"ok@example.com", "bad@example.com"}, got)
}

func TestDispatcher_AppliesSendTimeout(t *testing.T) {
	d := NewDispatcher(transportFunc(func(ctx context.Context, _, _, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}), DispatcherConfig{SendTimeout: 20 * time.Millisecond}, zap.NewNop())

	start := time.Now()
	err := d.Send(context.Background(), "slow@example.com", "s", "b")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatcher_StopsWaitingWhenContextCancelled(t *testing.T) {
	d := NewDispatcher(transportFunc(func(context.Context, string, string, string) error {
		return nil
	}), DispatcherConfig{RatePerSecond: 0.001, Burst: 1}, zap.NewNop())

	require.NoError(t, d.Send(context.Background(), "a@example.com", "s", "b"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, d.Send(ctx, "b@example.com", "s", "b"))
}
