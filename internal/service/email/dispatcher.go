// internal/service/email/dispatcher.go
package email

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Transport is anything able to deliver one rendered message.
type Transport interface {
	Send(ctx context.Context, to, subject, bodyHTML string) error
}

type DispatcherConfig struct {
	RatePerSecond float64       `env:"RATE_PER_SECOND,default=5"`
	Burst         int           `env:"BURST,default=5"`
	SendTimeout   time.Duration `env:"SEND_TIMEOUT,default=15s"`
}

// Dispatcher throttles outbound mail and bounds every send with a timeout so a slow
// mail server cannot stall a reconciliation run.
type Dispatcher struct {
	transport Transport
	limiter   *rate.Limiter
	timeout   time.Duration
	logger    *zap.Logger
}

func NewDispatcher(transport Transport, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Dispatcher{
		transport: transport,
		limiter:   rate.NewLimiter(limit, burst),
		timeout:   cfg.SendTimeout,
		logger:    logger,
	}
}

func (d *Dispatcher) Send(ctx context.Context, to, subject, bodyHTML string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.transport.Send(sendCtx, to, subject, bodyHTML); err != nil {
		d.logger.Warn("email send failed",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return err
	}
	d.logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// LogTransport only logs messages. Used when no SMTP host is configured.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(_ context.Context, to, subject, bodyHTML string) error {
	t.logger.Info("email (log transport)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(bodyHTML)))
	return nil
}
