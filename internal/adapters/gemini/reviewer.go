package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/utils"
)

// generator is the part of genai.GenerativeModel the reviewer needs
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Reviewer asks a Google Gemini model for a second opinion
type Reviewer struct {
	client        *genai.Client
	model         generator
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	now           func() time.Time
}

// Close closes the Gemini client
func (r *Reviewer) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Review sends the message to the model and parses its verdict
func (r *Reviewer) Review(ctx context.Context, msg *core.Message) (*core.Review, error) {
	body := r.textProcessor.ReviewBody(msg.Body, r.maxBodySize)
	prompt := utils.FormatReviewPrompt(string(msg.Source), msg.Sender, msg.Subject, body)

	resp, err := r.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, errors.New("empty response from Gemini")
	}

	parsed, err := utils.ParseReviewResponse(text)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Gemini review received",
		zap.String("id", msg.ID),
		zap.String("model", r.modelName),
		zap.String("verdict", parsed.Verdict))

	return core.NewReview(parsed.Verdict, parsed.Confidence, parsed.Explanation, r.modelName, r.now())
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}
