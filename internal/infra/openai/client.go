package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Ibrakam/Sales-Machine/internal/config"
	"github.com/Ibrakam/Sales-Machine/internal/usecase"
)

// Client adapts the OpenAI chat completions API to the pipeline's
// CompletionProvider contract. One blocking round trip per call, bounded
// by the configured timeout; retries are the caller's problem.
type Client struct {
	api         *openaisdk.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
}

func NewClient(cfg config.OpenAIConfig) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("openai: api key is not configured")
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	client := openaisdk.NewClient(opts...)
	return &Client{
		api:         &client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

func (c *Client) Complete(ctx context.Context, messages []usecase.ChatMessage) (*usecase.Completion, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.model),
		Messages:    toMessageParams(messages),
		Temperature: openaisdk.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(c.maxTokens)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return &usecase.Completion{
		Content: strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:   resp.Model,
		Usage:   toUsage(resp.Usage),
	}, nil
}

func toMessageParams(messages []usecase.ChatMessage) []openaisdk.ChatCompletionMessageParamUnion {
	params := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			params = append(params, openaisdk.SystemMessage(m.Content))
		case "assistant":
			params = append(params, openaisdk.AssistantMessage(m.Content))
		default:
			params = append(params, openaisdk.UserMessage(m.Content))
		}
	}
	return params
}

func toUsage(u openaisdk.CompletionUsage) *usecase.TokenUsage {
	if u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0 {
		return nil
	}
	prompt, completion, total := u.PromptTokens, u.CompletionTokens, u.TotalTokens
	return &usecase.TokenUsage{
		PromptTokens:     &prompt,
		CompletionTokens: &completion,
		TotalTokens:      &total,
	}
}
