package llm

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	. "github.com/roelfdiedericks/llmcli/internal/logging"
)

const defaultAnthropicMaxTokens = 4096

// anthropicClient sends single-turn prompts through the Messages API.
type anthropicClient struct {
	client *anthropic.Client
}

func newAnthropicClient(desc *ProviderDescriptor, apiKey string, timeout time.Duration) *anthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(newHTTPClient(desc.ConnectTimeout, timeout)),
		option.WithMaxRetries(0), // retries belong to the engine
	}
	if desc.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(desc.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &anthropicClient{client: &client}
}

func (c *anthropicClient) buildParams(req *Request) anthropic.MessageNewParams {
	maxTokens := req.Sampling.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	thinking := req.Level != nil && !req.Level.Off && req.Level.Budget > 0
	// max_tokens must be greater than thinking.budget_tokens
	if thinking {
		minRequired := req.Level.Budget + 4096
		if maxTokens < minRequired {
			L_debug("anthropic: adjusting max_tokens for thinking", "original", maxTokens, "required", minRequired)
			maxTokens = minRequired
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.ModelID),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if thinking {
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(req.Level.Budget))
	}
	if req.Sampling.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Sampling.Temperature)
	}
	return params
}

func (c *anthropicClient) Send(ctx context.Context, req *Request) (string, error) {
	params := c.buildParams(req)

	if !req.Stream {
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return "", err
		}
		var parts []string
		for _, block := range msg.Content {
			if text, ok := block.AsAny().(anthropic.TextBlock); ok {
				parts = append(parts, text.Text)
			}
		}
		return strings.Join(parts, "\n"), nil
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		event := stream.Current()
		if ev, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok {
				sb.WriteString(delta.Text)
				if req.OnDelta != nil {
					req.OnDelta(delta.Text)
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}
