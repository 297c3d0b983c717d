package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	. "github.com/roelfdiedericks/llmcli/internal/logging"
)

// Call is one attempt's input to the executor.
type Call struct {
	ModelKey string
	Prompt   string
	Level    QualityLevel
	Timeout  time.Duration
	Sampling Sampling
	Stream   bool         // caller asked for live output
	OnDelta  func(string) // receives fragments only when Stream is set
}

// Executor performs exactly one vendor request per Execute.
type Executor struct {
	desc    *ProviderDescriptor
	factory ClientFactory
}

// NewExecutor binds a descriptor to a client factory.
func NewExecutor(desc *ProviderDescriptor, factory ClientFactory) *Executor {
	return &Executor{desc: desc, factory: factory}
}

// BuildRequest shapes the vendor request for call. The quality parameter is
// attached only for models that accept it, and streaming is forced on for
// models that only answer over a stream.
func (e *Executor) BuildRequest(call Call) (*Request, error) {
	model, ok := e.desc.Model(call.ModelKey)
	if !ok {
		return nil, fmt.Errorf("unknown model %q for %s", call.ModelKey, e.desc.Name)
	}
	req := &Request{
		ModelID:  model.ID,
		Prompt:   call.Prompt,
		Sampling: call.Sampling,
		Stream:   call.Stream || model.RequiresStreaming,
	}
	if model.SupportsQuality && call.Level.Name != "" {
		lvl := call.Level
		req.Level = &lvl
	}
	if call.Stream {
		req.OnDelta = call.OnDelta
	}
	return req, nil
}

// Execute sends one request bounded by call.Timeout. Whitespace-only output is
// reported as ErrEmptyResponse.
func (e *Executor) Execute(ctx context.Context, call Call) (string, error) {
	req, err := e.BuildRequest(call)
	if err != nil {
		return "", err
	}

	client, err := e.factory(call.Timeout)
	if err != nil {
		return "", fmt.Errorf("failed to create %s client: %w", e.desc.Name, err)
	}
	if closer, ok := client.(io.Closer); ok {
		defer closer.Close()
	}

	attemptCtx := ctx
	if call.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}

	L_trace("llm: sending request",
		"provider", e.desc.Name,
		"model", req.ModelID,
		"stream", req.Stream,
		"forwarding", req.OnDelta != nil,
		"hasLevel", req.Level != nil,
	)

	text, err := client.Send(attemptCtx, req)
	if err != nil {
		// An SDK may surface the deadline as a transport error; keep it recognizable.
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
