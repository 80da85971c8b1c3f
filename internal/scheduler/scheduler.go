// Package scheduler triggers discount reconciliation on a cron cadence and on demand,
// guaranteeing that at most one run is in flight across the deployment.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fashionsphere-service/internal/domain/report"
	xerrors "fashionsphere-service/internal/pkg/errors"
	"fashionsphere-service/internal/pkg/lock"
	"fashionsphere-service/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const runLockKey = "sale:reconcile:run"

type Runner interface {
	Reconcile(ctx context.Context, now time.Time) (*report.Reconciliation, error)
}

// ReportStore shares the last report between replicas. Optional.
type ReportStore interface {
	SaveLast(ctx context.Context, rep *report.Reconciliation) error
	Last(ctx context.Context) (*report.Reconciliation, error)
}

type Config struct {
	Schedule   string        `env:"SCHEDULE,default=0 0 * * *"`
	Timezone   string        `env:"TIMEZONE,default=UTC"`
	RunOnStart bool          `env:"RUN_ON_START,default=true"`
	LockTTL    time.Duration `env:"LOCK_TTL,default=10m"`
	RunTimeout time.Duration `env:"RUN_TIMEOUT,default=5m"`
}

type Scheduler struct {
	cfg     Config
	cron    *cron.Cron
	runner  Runner
	locker  lock.Locker
	reports ReportStore
	logger  *zap.Logger
	now     func() time.Time

	running sync.Mutex
	trigger chan struct{}
	stop    chan struct{}
	wg      sync.WaitGroup

	lastMu sync.RWMutex
	last   *report.Reconciliation
}

// New validates the cadence and builds an idle scheduler. locker guards runs across
// replicas and may be nil for a single process.
func New(cfg Config, runner Runner, locker lock.Locker, reports ReportStore, logger *zap.Logger) (*Scheduler, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}

	cl := newCronLogger(logger)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	s := &Scheduler{
		cfg:     cfg,
		cron:    c,
		runner:  runner,
		locker:  locker,
		reports: reports,
		logger:  logger.Named("scheduler"),
		now:     time.Now,
		trigger: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}

	if _, err := c.AddFunc(cfg.Schedule, s.scheduledRun); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins the cron cadence and the trigger loop.
func (s *Scheduler) Start() {
	s.cron.Start()

	s.wg.Add(1)
	go s.triggerLoop()

	if s.cfg.RunOnStart {
		s.Trigger()
	}
	s.logger.Info("sale scheduler started",
		zap.String("schedule", s.cfg.Schedule),
		zap.String("timezone", s.cfg.Timezone))
}

// Stop halts new runs and waits for an in-flight run or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	close(s.stop)

	loopDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(loopDone)
	}()

	for _, done := range []<-chan struct{}{cronDone.Done(), loopDone} {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Trigger asks for a run soon without waiting. Requests made while one is pending
// collapse into it.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

func (s *Scheduler) triggerLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case <-s.trigger:
			s.background("trigger")
		}
	}
}

func (s *Scheduler) scheduledRun() {
	s.background("cron")
}

func (s *Scheduler) background(source string) {
	ctx := context.Background()
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	_, err := s.RunNow(ctx)
	switch {
	case err == nil:
	case xerrors.Is(err, xerrors.ErrRunInProgress):
		s.logger.Info("reconciliation skipped, a run is in progress", zap.String("source", source))
	default:
		s.logger.Error("reconciliation run failed", zap.String("source", source), zap.Error(err))
	}
}

// RunNow reconciles immediately. It returns ErrRunInProgress instead of waiting when
// another run holds the local or the distributed guard.
func (s *Scheduler) RunNow(ctx context.Context) (*report.Reconciliation, error) {
	if !s.running.TryLock() {
		metrics.RecordRun(report.OutcomeSkipped, 0)
		return nil, xerrors.ErrRunInProgress
	}
	defer s.running.Unlock()

	if s.locker != nil {
		release, ok, err := s.locker.TryAcquire(ctx, runLockKey, s.cfg.LockTTL)
		if err != nil {
			metrics.RecordRun(report.OutcomeSkipped, 0)
			return nil, fmt.Errorf("acquire reconciliation lock: %w", err)
		}
		if !ok {
			metrics.RecordRun(report.OutcomeSkipped, 0)
			return nil, xerrors.ErrRunInProgress
		}
		defer release()
	}

	rep, err := s.runner.Reconcile(ctx, s.now())
	if rep != nil {
		metrics.RecordRun(rep.Outcome, rep.Duration().Seconds())
		s.remember(rep)
	}
	return rep, err
}

func (s *Scheduler) remember(rep *report.Reconciliation) {
	s.lastMu.Lock()
	s.last = rep
	s.lastMu.Unlock()

	if s.reports == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.reports.SaveLast(ctx, rep); err != nil {
		s.logger.Warn("failed to store reconciliation report", zap.Error(err))
	}
}

// LastReport returns the most recent run, preferring the shared copy so any replica
// can answer. ErrNotFound when nothing ran yet.
func (s *Scheduler) LastReport(ctx context.Context) (*report.Reconciliation, error) {
	if s.reports != nil {
		rep, err := s.reports.Last(ctx)
		if err == nil {
			return rep, nil
		}
		if !xerrors.Is(err, xerrors.ErrNotFound) {
			s.logger.Warn("shared report unavailable, using local copy", zap.Error(err))
		}
	}

	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return nil, xerrors.ErrNotFound
	}
	return s.last, nil
}
