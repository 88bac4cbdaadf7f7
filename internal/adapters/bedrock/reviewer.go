package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/utils"
)

// invoker is the part of the Bedrock runtime client the reviewer needs
type invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Reviewer asks an Amazon Bedrock model for a second opinion
type Reviewer struct {
	client        invoker
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	now           func() time.Time
}

// NewReviewer creates a new Bedrock reviewer
func NewReviewer(
	client invoker,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *Reviewer {
	return &Reviewer{
		client:        client,
		modelID:       modelID,
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

	payload, err := r.requestBody(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := r.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(r.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := r.responseText(resp.Body)
	if err != nil {
		return nil, err
	}

	parsed, err := utils.ParseReviewResponse(text)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Bedrock review received",
		zap.String("id", msg.ID),
		zap.String("model", r.modelID),
		zap.String("verdict", parsed.Verdict))

	return core.NewReview(parsed.Verdict, parsed.Confidence, parsed.Explanation, r.modelID, r.now())
}

func (r *Reviewer) requestBody(prompt string) ([]byte, error) {
	switch {
	case r.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"anthropic_version": "bedrock-2023-05-31",
			"max_tokens":        r.maxTokens,
			"temperature":       r.temperature,
			"top_p":             r.topP,
			"messages": []map[string]interface{}{
				{"role": "user", "content": prompt},
			},
		})
	case r.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": r.maxTokens,
				"temperature":   r.temperature,
				"topP":          r.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  r.maxTokens,
			"temperature": r.temperature,
			"top_p":       r.topP,
		})
	}
}

func (r *Reviewer) responseText(body []byte) (string, error) {
	switch {
	case r.isAnthropicModel():
		var claudeResp struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		var sb strings.Builder
		for _, c := range claudeResp.Content {
			if c.Type == "text" {
				sb.WriteString(c.Text)
			}
		}
		if sb.Len() == 0 {
			return "", errors.New("empty response from Claude model")
		}
		return sb.String(), nil

	case r.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", errors.New("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Output     string `json:"output"`
			Text       string `json:"text"`
			Response   string `json:"response"`
			Generation string `json:"generation"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, s := range []string{genericResp.Output, genericResp.Text, genericResp.Response, genericResp.Generation} {
			if s != "" {
				return s, nil
			}
		}
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (r *Reviewer) isAnthropicModel() bool {
	return strings.HasPrefix(r.modelID, "anthropic.claude") || strings.Contains(r.modelID, ".anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (r *Reviewer) isAmazonTitanModel() bool {
	return strings.HasPrefix(r.modelID, "amazon.titan")
}
