package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/config"
)

const narrativePrompt = "You are an engineering portfolio analyst. Given weekly burn-down figures per epic " +
	"(remaining story points, new work, unestimated issues), write a short plain-text narrative: " +
	"which epics are converging, which are growing, and where estimation is lagging. At most six sentences."

type Client struct {
	key   string
	model string
	cli   openai.Client
	log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger, opts ...option.RequestOption) *Client {
	model := cfg.OpenAIModel
	if strings.TrimSpace(model) == "" {
		model = "gpt-4.1-mini"
	}
	base := []option.RequestOption{option.WithAPIKey(cfg.OpenAIKey)}
	if cfg.OpenAITimeout > 0 {
		base = append(base, option.WithRequestTimeout(cfg.OpenAITimeout))
	}
	return &Client{
		key:   cfg.OpenAIKey,
		model: model,
		cli:   openai.NewClient(append(base, opts...)...),
		log:   log.With().Str("adapter", "openai").Logger(),
	}
}

// Enabled is false without an API key; callers skip the narrative then.
func (c *Client) Enabled() bool { return strings.TrimSpace(c.key) != "" }

// SummarizeBurnDowns asks the model for a narrative over payload, sent as JSON.
func (c *Client) SummarizeBurnDowns(ctx context.Context, payload any) (string, error) {
	if !c.Enabled() {
		return "", errors.New("openai: missing key")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	c.log.Info().Str("model", c.model).Int("bytes", len(b)).Msg("openai summarize call")

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(narrativePrompt),
			openai.UserMessage(string(b)),
		},
		Temperature: openai.Float(0.2),
	}
	resp, err := c.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
