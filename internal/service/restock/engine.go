// internal/service/restock/engine.go
package restock

import (
	"context"
	"fmt"
	"time"

	"fashionsphere-service/internal/domain/product"
	"fashionsphere-service/internal/domain/report"
	"fashionsphere-service/internal/domain/waitlist"
	"fashionsphere-service/internal/domain/websocket"
	xerrors "fashionsphere-service/internal/pkg/errors"
	"fashionsphere-service/internal/pkg/lock"
	"fashionsphere-service/internal/pkg/metrics"
	"fashionsphere-service/internal/service/email"

	"go.uber.org/zap"
)

type WaitlistStore interface {
	ListByProduct(ctx context.Context, productID string) ([]waitlist.Subscriber, error)
	DeleteByProduct(ctx context.Context, productID string) (int64, error)
}

type Notifier interface {
	Send(ctx context.Context, to, subject, bodyHTML string) error
}

type Publisher interface {
	Publish(eventType websocket.EventType, data interface{})
}

type Config struct {
	LockTTL  time.Duration `env:"LOCK_TTL,default=2m"`
	LockWait time.Duration `env:"LOCK_WAIT,default=30s"`
}

// Engine consumes the waiting list of a product once it comes back in stock.
type Engine struct {
	store     WaitlistStore
	notifier  Notifier
	locker    lock.Locker
	publisher Publisher
	cfg       Config
	logger    *zap.Logger
}

func NewEngine(store WaitlistStore, notifier Notifier, locker lock.Locker, cfg Config, logger *zap.Logger) *Engine {
	if locker == nil {
		locker = lock.NewLocal()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
	}
}

func (e *Engine) WithPublisher(p Publisher) *Engine {
	e.publisher = p
	return e
}

func lockKey(productID string) string {
	return "restock:" + productID
}

// Reconcile notifies every subscriber waiting on sig.ProductID and then clears the
// product's waiting list, whatever the individual send outcomes were. The transition
// itself is trusted as given. Runs for the same product are serialized.
func (e *Engine) Reconcile(ctx context.Context, sig product.RestockSignal) (*report.Restock, error) {
	log := e.logger.With(zap.String("product_id", sig.ProductID), zap.Int("new_stock", sig.NewStock))
	rep := &report.Restock{
		ProductID:   sig.ProductID,
		ProductName: sig.ProductName,
		NewStock:    sig.NewStock,
	}

	release, err := e.locker.Acquire(ctx, lockKey(sig.ProductID), e.cfg.LockTTL, e.cfg.LockWait)
	if err != nil {
		metrics.RestockEvents.WithLabelValues(report.OutcomeFailed).Inc()
		log.Error("restock lock not acquired", zap.Error(err))
		return rep, fmt.Errorf("acquire restock lock: %w", err)
	}
	defer release()

	subscribers, err := e.store.ListByProduct(ctx, sig.ProductID)
	if err != nil {
		metrics.RestockEvents.WithLabelValues(report.OutcomeFailed).Inc()
		err = xerrors.ReadFailure("waiting list", err)
		log.Error("restock aborted", zap.Error(err))
		return rep, err
	}
	rep.Subscribers = len(subscribers)

	for _, s := range subscribers {
		err := e.send(ctx, s, sig)
		metrics.RecordNotification("restock", err)
		if err != nil {
			rep.Failures = append(rep.Failures, report.ItemFailure{ID: s.UserID, Error: err.Error()})
			log.Warn("restock notification failed", zap.String("user_id", s.UserID), zap.Error(err))
			continue
		}
		rep.Sent++
	}

	removed, err := e.store.DeleteByProduct(ctx, sig.ProductID)
	if err != nil {
		metrics.RestockEvents.WithLabelValues(report.OutcomeFailed).Inc()
		log.Error("clearing waiting list failed", zap.Error(err))
		return rep, fmt.Errorf("clear waiting list: %w", err)
	}
	rep.Removed = removed

	outcome := report.OutcomeSuccess
	if len(rep.Failures) > 0 {
		outcome = report.OutcomePartial
	}
	metrics.RestockEvents.WithLabelValues(outcome).Inc()

	if e.publisher != nil {
		e.publisher.Publish(websocket.EventTypeProductRestocked, websocket.RestockEventData{
			ProductID:    sig.ProductID,
			ProductName:  sig.ProductName,
			CountInStock: sig.NewStock,
		})
	}

	log.Info("restock reconciled",
		zap.Int("subscribers", rep.Subscribers),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", len(rep.Failures)),
		zap.Int64("removed", rep.Removed))
	return rep, nil
}

func (e *Engine) send(ctx context.Context, s waitlist.Subscriber, sig product.RestockSignal) error {
	if e.notifier == nil {
		return nil
	}
	body, err := email.RenderRestockAlert(s.Name, sig.ProductName, sig.NewStock)
	if err != nil {
		return err
	}
	return e.notifier.Send(ctx, s.Email, email.RestockSubject, body)
}
