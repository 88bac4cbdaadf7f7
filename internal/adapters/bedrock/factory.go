package bedrock

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/utils"
)

// NewFromConfig loads the AWS configuration for the region and creates a reviewer
func NewFromConfig(ctx context.Context, cfg config.BedrockConfig, logger *zap.Logger, textProcessor *utils.TextProcessor) (*Reviewer, error) {
	if cfg.ModelID == "" {
		return nil, errors.New("bedrock model ID is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return NewReviewer(
		bedrockruntime.NewFromConfig(awsCfg),
		cfg.ModelID,
		cfg.MaxTokens,
		cfg.Temperature,
		cfg.TopP,
		cfg.MaxBodySize,
		logger,
		textProcessor,
	), nil
}
