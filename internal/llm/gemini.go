package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiClient sends prompts through the Gemini API.
type geminiClient struct {
	client *genai.Client
}

func newGeminiClient(desc *ProviderDescriptor, apiKey string, timeout time.Duration) (*geminiClient, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(desc.ConnectTimeout, timeout),
	}
	if desc.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: desc.BaseURL}
	}
	// NewClient only validates configuration; no request is made here.
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &geminiClient{client: client}, nil
}

func buildGeminiConfig(req *Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}
	if req.Level != nil && !req.Level.Off && req.Level.Budget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(safeInt32(req.Level.Budget)),
		}
	}
	if req.Sampling.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Sampling.Temperature))
	}
	if req.Sampling.MaxTokens > 0 {
		config.MaxOutputTokens = safeInt32(req.Sampling.MaxTokens)
	}
	return config
}

func (c *geminiClient) Send(ctx context.Context, req *Request) (string, error) {
	config := buildGeminiConfig(req)
	contents := genai.Text(req.Prompt)

	if !req.Stream {
		resp, err := c.client.Models.GenerateContent(ctx, req.ModelID, contents, config)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}

	var sb strings.Builder
	for resp, err := range c.client.Models.GenerateContentStream(ctx, req.ModelID, contents, config) {
		if err != nil {
			return sb.String(), err
		}
		delta := resp.Text()
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
