package notify

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// Throttled drops alerts that exceed a token-bucket rate
type Throttled struct {
	next    core.Notifier
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewThrottled limits next to perMinute alerts with the given burst
func NewThrottled(next core.Notifier, perMinute float64, burst int, logger *zap.Logger) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60), burst),
		logger:  logger,
	}
}

// Notify forwards the alert when a token is available
func (t *Throttled) Notify(ctx context.Context, summary core.Summary) error {
	if !t.limiter.Allow() {
		t.logger.Info("Alert dropped by rate limit",
			zap.String("id", summary.MessageID),
			zap.String("sender", summary.Sender))
		return ErrThrottled
	}
	return t.next.Notify(ctx, summary)
}
