package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/adapters/store"
	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/factory"
	"github.com/mikey/msg-spam-filter/internal/logging"
	"github.com/mikey/msg-spam-filter/internal/scoring"
	"github.com/mikey/msg-spam-filter/internal/utils"
	"github.com/mikey/msg-spam-filter/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	return buildContainer(config.New)
}

func buildContainer(newConfig func() (*config.Config, error)) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(newConfig); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewScoringFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNotifyFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewSourceFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewReviewerFactory); err != nil {
		return nil, err
	}

	// Register scoring engine, also as the pipeline's analyzer
	if err := container.Provide(func(f *factory.ScoringFactory) (*scoring.Engine, error) {
		return f.CreateEngine()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(e *scoring.Engine) core.Analyzer {
		return e
	}); err != nil {
		return nil, err
	}

	// Register adapters
	if err := container.Provide(func(f *factory.StoreFactory) (store.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.NotifyFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.SourceFactory) (core.MonitoringSource, error) {
		return f.CreateSource()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ReviewerFactory) (core.Reviewer, error) {
		return f.CreateReviewer(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register trusted senders
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *whitelist.Checker {
		senders := cfg.GetTrustedSenders()
		if len(senders) > 0 {
			logger.Info("Loaded trusted senders", zap.Strings("senders", senders))
		}
		return whitelist.NewChecker(senders, logger)
	}); err != nil {
		return nil, err
	}

	// Register pipeline settings
	if err := container.Provide(func(cfg *config.Config) (config.PipelineConfig, error) {
		return cfg.GetPipeline()
	}); err != nil {
		return nil, err
	}

	// Register pipeline
	if err := container.Provide(newPipeline); err != nil {
		return nil, err
	}

	return container, nil
}

func newPipeline(
	analyzer core.Analyzer,
	messageStore store.Store,
	notifier core.Notifier,
	source core.MonitoringSource,
	reviewer core.Reviewer,
	trusted *whitelist.Checker,
	pc config.PipelineConfig,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *core.Pipeline {
	opts := []core.Option{
		core.WithTrustedSenders(trusted),
		core.WithReviewTimeout(pc.ReviewTimeout),
	}
	if reviewer != nil {
		opts = append(opts, core.WithReviewer(reviewer))
	}

	return core.NewPipeline(analyzer, messageStore, notifier, source, textProcessor, logger, opts...)
}
