package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/adapters/bedrock"
	"github.com/mikey/msg-spam-filter/internal/adapters/gemini"
	"github.com/mikey/msg-spam-filter/internal/adapters/openai"
	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/utils"
)

// ReviewerFactory creates LLM reviewers
type ReviewerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewReviewerFactory creates a new reviewer factory
func NewReviewerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ReviewerFactory {
	return &ReviewerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateReviewer creates the reviewer named by llm.provider.
// It returns nil without error when reviews are disabled.
func (f *ReviewerFactory) CreateReviewer(ctx context.Context) (core.Reviewer, error) {
	provider := f.cfg.GetLLM().Provider

	var (
		reviewer core.Reviewer
		err      error
	)
	switch provider {
	case "", "none":
		return nil, nil
	case "bedrock":
		reviewer, err = bedrock.NewFromConfig(ctx, f.cfg.GetBedrock(), f.logger, f.textProcessor)
	case "gemini":
		reviewer, err = gemini.NewFromConfig(ctx, f.cfg.GetGemini(), f.logger, f.textProcessor)
	case "openai":
		reviewer, err = openai.NewFromConfig(f.cfg.GetOpenAI(), f.logger, f.textProcessor)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s reviewer: %w", provider, err)
	}

	f.logger.Info("LLM reviewer enabled", zap.String("provider", provider))
	return reviewer, nil
}
