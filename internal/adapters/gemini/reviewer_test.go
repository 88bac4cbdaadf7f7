package gemini

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/utils"
)

type fakeModel struct {
	resp   *genai.GenerateContentResponse
	err    error
	prompt string
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if text, ok := parts[0].(genai.Text); ok {
			f.prompt = string(text)
		}
	}
	return f.resp, f.err
}

func answer(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func newTestReviewer(model generator) *Reviewer {
	return &Reviewer{
		model:         model,
		modelName:     "gemini-pro",
		logger:        zap.NewNop(),
		textProcessor: utils.NewTextProcessor(zap.NewNop()),
		now:           func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func TestReviewer_Review(t *testing.T) {
	fake := &fakeModel{resp: answer(
		genai.Text(`{"verdict":"fraud","confidence":0.9,`),
		genai.Text(`"explanation":"advance fee"}`),
	)}
	r := newTestReviewer(fake)

	review, err := r.Review(context.Background(), &core.Message{
		Source:  core.SourceEmail,
		Sender:  "prince@example.com",
		Subject: "Business proposal",
		Body:    "I need your help moving funds",
	})
	require.NoError(t, err)
	assert.Equal(t, core.CategoryFraud, review.Verdict)
	assert.Equal(t, 0.9, review.Confidence)
	assert.Equal(t, "gemini-pro", review.Model)
	assert.Contains(t, fake.prompt, "Subject: Business proposal")
	assert.NoError(t, r.Close())
}

func TestReviewer_EmptyAndFailures(t *testing.T) {
	_, err := newTestReviewer(&fakeModel{resp: &genai.GenerateContentResponse{}}).Review(context.Background(), &core.Message{})
	assert.ErrorContains(t, err, "empty response")

	_, err = newTestReviewer(&fakeModel{err: errors.New("quota")}).Review(context.Background(), &core.Message{})
	assert.ErrorContains(t, err, "quota")

	_, err = newTestReviewer(&fakeModel{resp: answer(genai.Text("I think it is fine"))}).Review(context.Background(), &core.Message{})
	assert.ErrorIs(t, err, utils.ErrNoJSON)
}

func TestNewFromConfig_RequiresKey(t *testing.T) {
	_, err := NewFromConfig(context.Background(), config.GeminiConfig{ModelName: "gemini-pro"}, zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
	assert.Error(t, err)
}
