package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/utils"
)

// NewFromConfig creates a Gemini client and a reviewer bound to the configured model
func NewFromConfig(ctx context.Context, cfg config.GeminiConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) (*Reviewer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(cfg.TopP)
	model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	model.ResponseMIMEType = "application/json"

	return &Reviewer{
		client:        client,
		model:         model,
		modelName:     cfg.ModelName,
		maxBodySize:   cfg.MaxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		now:           time.Now,
	}, nil
}
