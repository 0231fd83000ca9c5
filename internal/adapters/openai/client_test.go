package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicronn/jira-scg-utils/internal/config"
)

func TestSummarizeBurnDowns(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-test", body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Contains(t, body.Messages[1].Content, "LAB-1")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",
		  "choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  LAB-1 is converging.  "}}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(config.Config{OpenAIKey: "sk-test", OpenAIModel: "gpt-test"}, zerolog.Nop(),
		option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))

	out, err := c.SummarizeBurnDowns(context.Background(), map[string]any{"epic": "LAB-1", "remaining": 8})

	require.NoError(t, err)
	assert.Equal(t, "LAB-1 is converging.", out)
}

func TestSummarizeBurnDowns_NoKey(t *testing.T) {
	t.Parallel()

	c := NewClient(config.Config{}, zerolog.Nop())

	assert.False(t, c.Enabled())
	_, err := c.SummarizeBurnDowns(context.Background(), nil)
	assert.Error(t, err)
}
