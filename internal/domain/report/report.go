// internal/domain/report/report.go
package report

import "time"

// ItemFailure is a non-fatal failure on a single product or recipient.
type ItemFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Run outcomes
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Reconciliation describes one discount reconciliation run.
type Reconciliation struct {
	RunID      string    `json:"runId"`
	Now        time.Time `json:"now"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`

	NoActiveCampaign   bool    `json:"noActiveCampaign"`
	WinnerID           string  `json:"winnerId,omitempty"`
	WinnerName         string  `json:"winnerName,omitempty"`
	DiscountPercentage float64 `json:"discountPercentage"`
	PreviousActiveID   string  `json:"previousActiveId,omitempty"`
	WinnerChanged      bool    `json:"winnerChanged"`

	ProductsTotal     int           `json:"productsTotal"`
	ProductsUpdated   int           `json:"productsUpdated"`
	ProductsUnchanged int           `json:"productsUnchanged"`
	PriceFailures     []ItemFailure `json:"priceFailures,omitempty"`

	NotificationsSent    int           `json:"notificationsSent"`
	NotificationFailures []ItemFailure `json:"notificationFailures,omitempty"`
}

// Finish stamps the end of the run and derives the outcome when none was set.
func (r *Reconciliation) Finish(at time.Time) {
	r.FinishedAt = at
	if r.Outcome != "" {
		return
	}
	if len(r.PriceFailures) > 0 {
		r.Outcome = OutcomePartial
		return
	}
	r.Outcome = OutcomeSuccess
}

// Duration of the run
func (r *Reconciliation) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Restock describes the waiting-list consumption for one restock event.
type Restock struct {
	ProductID   string        `json:"productId"`
	ProductName string        `json:"productName"`
	NewStock    int           `json:"newStock"`
	Subscribers int           `json:"subscribers"`
	Sent        int           `json:"sent"`
	Failures    []ItemFailure `json:"failures,omitempty"`
	Removed     int64         `json:"removed"`
}
