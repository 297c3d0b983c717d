package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	. "github.com/roelfdiedericks/llmcli/internal/logging"
)

// openaiClient talks to OpenAI and OpenAI-compatible chat completion endpoints
// (DeepSeek, Groq, Mistral) selected by the descriptor's base URL.
type openaiClient struct {
	client *openai.Client
	name   string
}

func newOpenAIClient(desc *ProviderDescriptor, apiKey string, timeout time.Duration) *openaiClient {
	config := openai.DefaultConfig(apiKey)
	if desc.BaseURL != "" {
		config.BaseURL = desc.BaseURL
	}
	config.HTTPClient = newHTTPClient(desc.ConnectTimeout, timeout)
	return &openaiClient{client: openai.NewClientWithConfig(config), name: desc.Name}
}

func (c *openaiClient) buildRequest(req *Request) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model: req.ModelID,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Stream: req.Stream,
	}
	if req.Level != nil && !req.Level.Off {
		chatReq.ReasoningEffort = req.Level.EffortOrName()
	}
	if req.Sampling.MaxTokens > 0 {
		// Reasoning models reject max_tokens and take max_completion_tokens instead.
		if chatReq.ReasoningEffort != "" {
			chatReq.MaxCompletionTokens = req.Sampling.MaxTokens
		} else {
			chatReq.MaxTokens = req.Sampling.MaxTokens
		}
	}
	if req.Sampling.Temperature != nil {
		chatReq.Temperature = float32(*req.Sampling.Temperature)
	}
	return chatReq
}

func (c *openaiClient) Send(ctx context.Context, req *Request) (string, error) {
	chatReq := c.buildRequest(req)

	if !req.Stream {
		resp, err := c.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			logOpenAIError(c.name, err)
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		logOpenAIError(c.name, err)
		return "", err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logOpenAIError(c.name, err)
			return sb.String(), err
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if req.OnDelta != nil {
			req.OnDelta(delta)
		}
	}
	return sb.String(), nil
}

func logOpenAIError(name string, err error) {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	if errors.As(err, &apiErr) {
		L_debug("openai: api error",
			"provider", name,
			"status", apiErr.HTTPStatusCode,
			"type", apiErr.Type,
			"code", apiErr.Code,
			"message", apiErr.Message,
		)
	} else if errors.As(err, &reqErr) {
		L_debug("openai: request error", "provider", name, "status", reqErr.HTTPStatusCode, "error", reqErr.Err)
	}
}
