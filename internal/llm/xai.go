package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/roelfdiedericks/xai-go"

	. "github.com/roelfdiedericks/llmcli/internal/logging"
)

// xaiClient sends prompts to Grok through the native xAI SDK.
type xaiClient struct {
	client *xai.Client
}

func newXAIClient(desc *ProviderDescriptor, apiKey string, timeout time.Duration) (*xaiClient, error) {
	cfg := xai.Config{
		Endpoint: xaiEndpoint(desc.BaseURL),
		APIKey:   xai.NewSecureString(apiKey),
		Timeout:  timeout,
	}
	client, err := xai.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create xai client: %w", err)
	}
	L_trace("xai client: initialized", "provider", desc.Name, "endpoint", cfg.Endpoint, "timeout", timeout)
	return &xaiClient{client: client}, nil
}

// xaiEndpoint turns a base URL such as https://api.x.ai/v1 into the gRPC
// host:port the SDK dials. A bare host:port passes through; "" keeps the SDK default.
func xaiEndpoint(baseURL string) string {
	if baseURL == "" || !strings.Contains(baseURL, "://") {
		return baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	if u.Port() != "" {
		return u.Host
	}
	return net.JoinHostPort(u.Hostname(), "443")
}

// Close releases the gRPC connection.
func (c *xaiClient) Close() error {
	return c.client.Close()
}

func (c *xaiClient) buildRequest(req *Request) *xai.ChatRequest {
	chatReq := xai.NewChatRequest().WithModel(req.ModelID)
	if req.Sampling.MaxTokens > 0 {
		chatReq.WithMaxTokens(safeInt32(req.Sampling.MaxTokens))
	}
	if req.Level != nil {
		if effort := req.Level.XAIEffort(); effort != nil {
			chatReq.WithReasoningEffort(*effort)
		}
	}
	chatReq.UserMessage(xai.UserContent{Text: req.Prompt})
	return chatReq
}

func (c *xaiClient) Send(ctx context.Context, req *Request) (string, error) {
	chatReq := c.buildRequest(req)

	if !req.Stream {
		resp, err := c.client.CompleteChat(ctx, chatReq)
		if err != nil {
			return "", wrapXAIError(err)
		}
		return resp.Content, nil
	}

	stream, err := c.client.StreamChat(ctx, chatReq)
	if err != nil {
		return "", wrapXAIError(err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sb.String(), wrapXAIError(err)
		}
		if chunk.Delta == "" {
			continue
		}
		sb.WriteString(chunk.Delta)
		if req.OnDelta != nil {
			req.OnDelta(chunk.Delta)
		}
	}
	return sb.String(), nil
}

// wrapXAIError adds the overload vocabulary to transient gRPC failures
// (RST_STREAM, INTERNAL) so they retry like an HTTP 503.
func wrapXAIError(err error) error {
	if isTransientServerError(err) {
		return fmt.Errorf("xai: server unavailable: %w", err)
	}
	var xaiErr *xai.Error
	if errors.As(err, &xaiErr) && xaiErr.Code == xai.ErrNotFound {
		return fmt.Errorf("xai: model not found: %w", err)
	}
	return err
}

func isTransientServerError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rst_stream") ||
		strings.Contains(msg, "internal_error") ||
		strings.Contains(msg, "server_error") ||
		strings.Contains(msg, "code = internal")
}

func safeInt32(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < 0 {
		return 0
	}
	return int32(n)
}
