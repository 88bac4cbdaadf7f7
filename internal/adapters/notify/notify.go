// Package notify delivers alerts for flagged messages.
package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
)

// ErrThrottled is returned when an alert is dropped by the rate limiter
var ErrThrottled = errors.New("notification throttled")

// LogNotifier writes one warning line per flagged message
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs alerts
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the summary
func (n *LogNotifier) Notify(_ context.Context, summary core.Summary) error {
	n.logger.Warn("Flagged message",
		zap.String("id", summary.MessageID),
		zap.String("sender", summary.Sender),
		zap.String("category", string(summary.Category)),
		zap.Float64("confidence", summary.Confidence),
		zap.String("excerpt", summary.Excerpt))
	return nil
}

// NoopNotifier discards alerts
type NoopNotifier struct{}

// Notify does nothing
func (NoopNotifier) Notify(context.Context, core.Summary) error {
	return nil
}

// Multi fans an alert out to several notifiers
type Multi struct {
	notifiers []core.Notifier
}

// NewMulti creates a fan-out notifier
func NewMulti(notifiers ...core.Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

// Notify delivers to every notifier and joins their errors
func (m *Multi) Notify(ctx context.Context, summary core.Summary) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
