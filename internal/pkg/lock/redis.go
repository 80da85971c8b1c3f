package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token, so an expired
// holder can never free a lock that was since taken by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript pushes the expiry out while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

const retryInterval = 50 * time.Millisecond

// Redis is a lock shared by every replica pointing at the same Redis. A held lock is
// renewed every third of its TTL until released, so the TTL only bounds how long a
// crashed holder blocks others.
type Redis struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func NewRedis(client *redis.Client, prefix string, logger *zap.Logger) *Redis {
	return &Redis{client: client, prefix: prefix, logger: logger.Named("lock")}
}

func (r *Redis) TryAcquire(ctx context.Context, key string, ttl time.Duration) (Release, bool, error) {
	token := ulid.Make().String()
	fullKey := r.prefix + key

	ok, err := r.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, false, nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(fullKey, token, ttl, stop, done)
	return r.release(fullKey, token, stop, done), true, nil
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (Release, error) {
	deadline := time.Now().Add(wait)
	for {
		release, ok, err := r.TryAcquire(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return release, nil
		}
		if wait > 0 && time.Now().After(deadline) {
			return nil, ErrTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (r *Redis) keepAlive(key, token string, ttl time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if ttl < 3*time.Millisecond {
		<-stop
		return
	}
	ticker := time.NewTicker(ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), ttl/3)
		n, err := extendScript.Run(ctx, r.client, []string{key}, token, ttl.Milliseconds()).Int64()
		cancel()
		switch {
		case err != nil:
			// Keep trying: the key is still ours until the TTL runs out.
			r.logger.Warn("lock renewal failed", zap.String("key", key), zap.Error(err))
		case n == 0:
			r.logger.Error("lock lost before release", zap.String("key", key))
			return
		}
	}
}

func (r *Redis) release(key, token string, stop chan<- struct{}, done <-chan struct{}) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// The caller's context may already be cancelled; releasing must still happen.
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			n, err := releaseScript.Run(ctx, r.client, []string{key}, token).Int64()
			switch {
			case err != nil:
				r.logger.Error("lock release failed, key stays held until its TTL",
					zap.String("key", key), zap.Error(err))
			case n == 0:
				r.logger.Warn("lock already expired or taken over at release", zap.String("key", key))
			}
		})
	}
}
