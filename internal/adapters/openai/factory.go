package openai

import (
	"errors"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/utils"
)

// NewFromConfig creates a reviewer from the OpenAI configuration.
// A non-empty BaseURL points the client at a compatible endpoint.
func NewFromConfig(cfg config.OpenAIConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) (*Reviewer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return NewReviewer(
		openai.NewClientWithConfig(clientCfg),
		cfg.ModelName,
		cfg.MaxTokens,
		cfg.Temperature,
		cfg.TopP,
		cfg.MaxBodySize,
		logger,
		textProcessor,
	), nil
}
