// internal/service/discount/reconciler.go
package discount

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fashionsphere-service/internal/domain/campaign"
	"fashionsphere-service/internal/domain/product"
	"fashionsphere-service/internal/domain/report"
	"fashionsphere-service/internal/domain/user"
	"fashionsphere-service/internal/domain/websocket"
	xerrors "fashionsphere-service/internal/pkg/errors"
	"fashionsphere-service/internal/pkg/metrics"
	"fashionsphere-service/internal/service/email"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type CampaignStore interface {
	ListAll(ctx context.Context) ([]campaign.Campaign, error)
	// SetWinner makes id the only active campaign and returns the previously active id.
	SetWinner(ctx context.Context, id string) (string, error)
	// ClearActive deactivates every campaign and returns the previously active id.
	ClearActive(ctx context.Context) (string, error)
}

type CatalogStore interface {
	ListAll(ctx context.Context) ([]product.Product, error)
	// ApplyDiscount derives the discount price from the product's current price and
	// reports whether the stored value changed.
	ApplyDiscount(ctx context.Context, id string, percentage float64) (bool, error)
}

type SubscriberSource interface {
	ListSaleSubscribers(ctx context.Context) ([]user.Recipient, error)
}

type Notifier interface {
	Send(ctx context.Context, to, subject, bodyHTML string) error
}

// Publisher pushes live events to connected clients.
type Publisher interface {
	Publish(eventType websocket.EventType, data interface{})
}

type NotifyPolicy string

const (
	// NotifyOnChange emails subscribers only when a different campaign becomes active.
	NotifyOnChange NotifyPolicy = "on_change"
	// NotifyEveryRun emails subscribers on every run that finds a valid campaign.
	NotifyEveryRun NotifyPolicy = "every_run"
)

func ParseNotifyPolicy(s string) (NotifyPolicy, error) {
	switch NotifyPolicy(s) {
	case "", NotifyOnChange:
		return NotifyOnChange, nil
	case NotifyEveryRun:
		return NotifyEveryRun, nil
	}
	return "", xerrors.Invalid("unknown notify policy %q", s)
}

type Options struct {
	Concurrency  int
	NotifyPolicy NotifyPolicy
}

// Reconciler recomputes catalog discount prices and campaign activity from the
// campaign set. It is not re-entrant: callers serialize runs.
type Reconciler struct {
	campaigns   CampaignStore
	catalog     CatalogStore
	subscribers SubscriberSource
	notifier    Notifier
	publisher   Publisher
	opts        Options
	logger      *zap.Logger
}

func NewReconciler(
	campaigns CampaignStore,
	catalog CatalogStore,
	subscribers SubscriberSource,
	notifier Notifier,
	opts Options,
	logger *zap.Logger,
) *Reconciler {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.NotifyPolicy == "" {
		opts.NotifyPolicy = NotifyOnChange
	}
	return &Reconciler{
		campaigns:   campaigns,
		catalog:     catalog,
		subscribers: subscribers,
		notifier:    notifier,
		opts:        opts,
		logger:      logger,
	}
}

// WithPublisher enables live sale events.
func (r *Reconciler) WithPublisher(p Publisher) *Reconciler {
	r.publisher = p
	return r
}

// Reconcile runs one reconciliation at now. A returned error means the run was fatal;
// the report is still returned and describes how far it got.
func (r *Reconciler) Reconcile(ctx context.Context, now time.Time) (*report.Reconciliation, error) {
	rep := &report.Reconciliation{
		RunID:     ulid.Make().String(),
		Now:       now,
		StartedAt: time.Now(),
	}
	log := r.logger.With(zap.String("run_id", rep.RunID), zap.Time("now", now))

	campaigns, err := r.campaigns.ListAll(ctx)
	if err != nil {
		return r.fail(rep, log, xerrors.ReadFailure("campaigns", err))
	}
	products, err := r.catalog.ListAll(ctx)
	if err != nil {
		return r.fail(rep, log, xerrors.ReadFailure("catalog", err))
	}

	winner := campaign.SelectWinner(campaigns, now)
	percentage := 0.0
	if winner != nil {
		percentage = winner.DiscountPercentage
		rep.WinnerID = winner.ID
		rep.WinnerName = winner.Name
		rep.DiscountPercentage = winner.DiscountPercentage
	} else {
		rep.NoActiveCampaign = true
	}

	// Activity flips before prices so that catalog edits reading the active sale from
	// here on already price with the new winner.
	var previous string
	if winner != nil {
		previous, err = r.campaigns.SetWinner(ctx, winner.ID)
	} else {
		previous, err = r.campaigns.ClearActive(ctx)
	}
	if err != nil {
		return r.fail(rep, log, fmt.Errorf("update campaign activity: %w", err))
	}
	rep.PreviousActiveID = previous
	rep.WinnerChanged = previous != rep.WinnerID

	r.applyPrices(ctx, products, percentage, rep, log)

	if winner != nil && (r.opts.NotifyPolicy == NotifyEveryRun || rep.WinnerChanged) {
		r.notify(ctx, winner, rep, log)
	}
	r.publish(winner, rep)

	rep.Finish(time.Now())
	log.Info("discount reconciliation finished",
		zap.String("outcome", rep.Outcome),
		zap.String("winner_id", rep.WinnerID),
		zap.Float64("discount_percentage", rep.DiscountPercentage),
		zap.Bool("winner_changed", rep.WinnerChanged),
		zap.Int("products_updated", rep.ProductsUpdated),
		zap.Int("products_unchanged", rep.ProductsUnchanged),
		zap.Int("price_failures", len(rep.PriceFailures)),
		zap.Int("notifications_sent", rep.NotificationsSent),
		zap.Int("notification_failures", len(rep.NotificationFailures)),
		zap.Duration("took", rep.Duration()))
	return rep, nil
}

func (r *Reconciler) fail(rep *report.Reconciliation, log *zap.Logger, err error) (*report.Reconciliation, error) {
	rep.Outcome = report.OutcomeFailed
	rep.Error = err.Error()
	rep.Finish(time.Now())
	log.Error("discount reconciliation aborted", zap.Error(err))
	return rep, err
}

// applyPrices re-derives the discount price of every listed product. The store
// computes from the current row, so the snapshot only supplies ids. Failures are
// recorded per product and never stop the others.
func (r *Reconciler) applyPrices(ctx context.Context, products []product.Product, percentage float64, rep *report.Reconciliation, log *zap.Logger) {
	rep.ProductsTotal = len(products)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.opts.Concurrency)

	for i := range products {
		id := products[i].ID
		g.Go(func() error {
			changed, err := r.catalog.ApplyDiscount(ctx, id, percentage)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				metrics.PriceUpdateFailures.Inc()
				rep.PriceFailures = append(rep.PriceFailures, report.ItemFailure{ID: id, Error: err.Error()})
				log.Warn("discount price update failed", zap.String("product_id", id), zap.Error(err))
			case changed:
				rep.ProductsUpdated++
			default:
				rep.ProductsUnchanged++
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Reconciler) notify(ctx context.Context, winner *campaign.Campaign, rep *report.Reconciliation, log *zap.Logger) {
	if r.notifier == nil || r.subscribers == nil {
		return
	}

	recipients, err := r.subscribers.ListSaleSubscribers(ctx)
	if err != nil {
		log.Warn("loading sale subscribers failed, skipping notifications", zap.Error(err))
		rep.NotificationFailures = append(rep.NotificationFailures, report.ItemFailure{ID: "subscribers", Error: err.Error()})
		return
	}
	if len(recipients) == 0 {
		return
	}

	body, err := email.RenderSaleNotification(winner.Name, winner.DiscountPercentage, winner.StartDate, winner.EndDate)
	if err != nil {
		log.Error("rendering sale notification failed", zap.Error(err))
		rep.NotificationFailures = append(rep.NotificationFailures, report.ItemFailure{ID: "template", Error: err.Error()})
		return
	}

	for _, rcpt := range recipients {
		err := r.notifier.Send(ctx, rcpt.Email, email.SaleSubject, body)
		metrics.RecordNotification("sale", err)
		if err != nil {
			rep.NotificationFailures = append(rep.NotificationFailures, report.ItemFailure{ID: rcpt.ID, Error: err.Error()})
			continue
		}
		rep.NotificationsSent++
	}
}

func (r *Reconciler) publish(winner *campaign.Campaign, rep *report.Reconciliation) {
	if r.publisher == nil || !rep.WinnerChanged {
		return
	}
	if winner == nil {
		r.publisher.Publish(websocket.EventTypeSaleCleared, websocket.SaleEventData{CampaignID: rep.PreviousActiveID})
		return
	}
	r.publisher.Publish(websocket.EventTypeSaleApplied, websocket.SaleEventData{
		CampaignID:         winner.ID,
		Name:               winner.Name,
		DiscountPercentage: winner.DiscountPercentage,
		StartDate:          winner.StartDate,
		EndDate:            winner.EndDate,
	})
}
