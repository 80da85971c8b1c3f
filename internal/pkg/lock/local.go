package lock

import (
	"context"
	"sync"
	"time"
)

// Local is a keyed mutex for a single process. TTLs are ignored: holders always release.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

func (l *Local) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *Local) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *Local) release(key string, s *slot) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}
}

func (l *Local) TryAcquire(_ context.Context, key string, _ time.Duration) (Release, bool, error) {
	s := l.ref(key)
	select {
	case s.ch <- struct{}{}:
		return l.release(key, s), true, nil
	default:
		l.unref(key, s)
		return nil, false, nil
	}
}

func (l *Local) Acquire(ctx context.Context, key string, _ time.Duration, wait time.Duration) (Release, error) {
	s := l.ref(key)

	var timeout <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case s.ch <- struct{}{}:
		return l.release(key, s), nil
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	case <-timeout:
		l.unref(key, s)
		return nil, ErrTimeout
	}
}
