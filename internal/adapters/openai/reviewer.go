package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/utils"
)

// Reviewer asks an OpenAI chat model for a second opinion
type Reviewer struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	now           func() time.Time
}

// NewReviewer creates a new OpenAI reviewer
func NewReviewer(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Reviewer {
	return &Reviewer{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		now:           time.Now,
	}
}

// Review sends the message to the model and parses its verdict
func (r *Reviewer) Review(ctx context.Context, msg *core.Message) (*core.Review, error) {
	body := r.textProcessor.ReviewBody(msg.Body, r.maxBodySize)
	prompt := utils.FormatReviewPrompt(string(msg.Source), msg.Sender, msg.Subject, body)

	req := openai.ChatCompletionRequest{
		Model: r.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a spam and phishing detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
		TopP:        r.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty response from OpenAI")
	}

	parsed, err := utils.ParseReviewResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("OpenAI review received",
		zap.String("id", msg.ID),
		zap.String("model", r.modelName),
		zap.String("completion_id", resp.ID),
		zap.String("verdict", parsed.Verdict))

	return core.NewReview(parsed.Verdict, parsed.Confidence, parsed.Explanation, r.modelName, r.now())
}
