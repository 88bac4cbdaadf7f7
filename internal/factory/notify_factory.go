package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/adapters/notify"
	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/core"
)

// NotifyFactory creates alert sinks based on configuration
type NotifyFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifyFactory creates a new notify factory
func NewNotifyFactory(cfg *config.Config, logger *zap.Logger) *NotifyFactory {
	return &NotifyFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates the sinks listed in notify.type, fanned out when
// there are several and rate limited when notify.rate_per_minute is positive
func (f *NotifyFactory) CreateNotifier() (core.Notifier, error) {
	nc, err := f.cfg.GetNotify()
	if err != nil {
		return nil, fmt.Errorf("invalid notify configuration: %w", err)
	}

	var sinks []core.Notifier
	for _, t := range nc.Types {
		switch t {
		case "log":
			sinks = append(sinks, notify.NewLogNotifier(f.logger))
		case "smtp":
			n, err := notify.NewSMTPNotifier(nc.SMTP.Address, nc.SMTP.Helo, nc.SMTP.From, nc.SMTP.To, nc.SMTP.Timeout, f.logger)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, n)
		case "none":
		default:
			return nil, fmt.Errorf("unsupported notify type: %s", t)
		}
	}

	var n core.Notifier
	switch len(sinks) {
	case 0:
		return notify.NoopNotifier{}, nil
	case 1:
		n = sinks[0]
	default:
		n = notify.NewMulti(sinks...)
	}

	if nc.RatePerMinute > 0 {
		n = notify.NewThrottled(n, nc.RatePerMinute, nc.Burst, f.logger)
	}
	return n, nil
}
