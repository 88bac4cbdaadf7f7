package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/msg-spam-filter/internal/config"
	"github.com/mikey/msg-spam-filter/internal/core"
	"github.com/mikey/msg-spam-filter/internal/utils"
)

func fakeAPI(t *testing.T, content string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  seen.Model,
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestReviewer(t *testing.T, url string) *Reviewer {
	t.Helper()
	r, err := NewFromConfig(config.OpenAIConfig{
		APIKey:      "test-key",
		BaseURL:     url + "/v1",
		ModelName:   "gpt-4o-mini",
		MaxTokens:   200,
		Temperature: 0.1,
		TopP:        0.9,
		MaxBodySize: 4096,
	}, zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
	require.NoError(t, err)
	return r
}

func TestReviewer_Review(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := fakeAPI(t, `{"verdict":"SPAM","confidence":0.75,"explanation":"promotional blast"}`, &seen)

	review, err := newTestReviewer(t, srv.URL).Review(context.Background(), &core.Message{
		ID:     "m1",
		Source: core.SourceSMS,
		Sender: "PROMO",
		Body:   "WIN a FREE trip",
	})
	require.NoError(t, err)
	assert.Equal(t, core.CategorySpam, review.Verdict)
	assert.Equal(t, 0.75, review.Confidence)
	assert.Equal(t, "gpt-4o-mini", review.Model)

	assert.Equal(t, "gpt-4o-mini", seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Contains(t, seen.Messages[1].Content, "Body:\nWIN a FREE trip")
	require.NotNil(t, seen.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, seen.ResponseFormat.Type)
}

func TestReviewer_UnparseableAnswer(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := fakeAPI(t, "cannot help with that", &seen)

	_, err := newTestReviewer(t, srv.URL).Review(context.Background(), &core.Message{Body: "x"})
	assert.ErrorIs(t, err, utils.ErrNoJSON)
}

func TestNewFromConfig_RequiresKey(t *testing.T) {
	_, err := NewFromConfig(config.OpenAIConfig{ModelName: "gpt-4"}, zap.NewNop(), utils.NewTextProcessor(zap.NewNop()))
	assert.Error(t, err)
}
