package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/adapters/source"
	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/core"
)

// SourceFactory creates monitoring sources based on configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSource creates the source named by monitor.source
func (f *SourceFactory) CreateSource() (core.MonitoringSource, error) {
	mc, err := f.cfg.GetMonitor()
	if err != nil {
		return nil, fmt.Errorf("invalid monitor configuration: %w", err)
	}

	switch mc.Source {
	case "simulated":
		return source.NewSimulated(mc.SimulatedInterval, f.logger), nil
	case "spool":
		return source.NewSpool(mc.SpoolDir, f.logger)
	case "kafka":
		kc := f.cfg.GetKafka()
		return source.NewKafka(kc.Brokers, kc.Topic, kc.GroupID, kc.Version, kc.Oldest, f.logger)
	case "smtp":
		return source.NewSMTP(mc.SMTP.ListenAddress, mc.SMTP.Domain, mc.SMTP.RejectFlagged, mc.SMTP.MaxMessageBytes, f.logger), nil
	case "none":
		return source.None{}, nil
	default:
		return nil, fmt.Errorf("unsupported monitor source: %s", mc.Source)
	}
}
