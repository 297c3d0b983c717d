package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testDescriptor() *ProviderDescriptor {
	return &ProviderDescriptor{
		Name:      "test",
		Tool:      "test-cli",
		Driver:    DriverOpenAI,
		APIKeyEnv: "TEST_API_KEY",
		Models: map[string]ModelSpec{
			"plain":    {ID: "plain-1"},
			"smart":    {ID: "smart-1", SupportsQuality: true},
			"streamer": {ID: "streamer-1", SupportsQuality: true, RequiresStreaming: true},
		},
		DefaultModel: "smart",
		Levels:       threeRungs(),
		DefaultLevel: "high",
		LevelFlag:    LevelFlagReasoning,
		Timeouts: TimeoutMatrix{
			Entries: map[TimeoutKey]time.Duration{
				{Model: "smart", Level: "high"}:   30 * time.Second,
				{Model: "smart", Level: "medium"}: 20 * time.Second,
				{Model: "smart", Level: "low"}:    10 * time.Second,
			},
			Default: 15 * time.Second,
		},
	}
}

// fixedFactory returns a factory whose client is send, recording each timeout it was built with.
func fixedFactory(send ClientFunc, timeouts *[]time.Duration) ClientFactory {
	return func(timeout time.Duration) (Client, error) {
		if timeouts != nil {
			*timeouts = append(*timeouts, timeout)
		}
		return send, nil
	}
}

func TestBuildRequestQualityOnlyWhenSupported(t *testing.T) {
	e := NewExecutor(testDescriptor(), nil)
	high := QualityLevel{Name: "high", Effort: "high"}

	req, err := e.BuildRequest(Call{ModelKey: "smart", Prompt: "hi", Level: high})
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}
	if req.Level == nil || req.Level.Name != "high" || req.ModelID != "smart-1" {
		t.Errorf("smart request = %+v, want level high on smart-1", req)
	}

	req, err = e.BuildRequest(Call{ModelKey: "plain", Prompt: "hi", Level: high})
	if err != nil {
		t.Fatalf("BuildRequest error: %v", err)
	}
	if req.Level != nil {
		t.Errorf("plain model got quality parameter %+v", req.Level)
	}

	if _, err := e.BuildRequest(Call{ModelKey: "missing"}); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestBuildRequestStreaming(t *testing.T) {
	e := NewExecutor(testDescriptor(), nil)
	sink := func(string) {}

	tests := []struct {
		model      string
		stream     bool
		wantStream bool
		forwarding bool
	}{
		{"smart", false, false, false},
		{"smart", true, true, true},
		{"streamer", false, true, false}, // forced stream, nothing forwarded
		{"streamer", true, true, true},
	}
	for _, tt := range tests {
		req, err := e.BuildRequest(Call{ModelKey: tt.model, Stream: tt.stream, OnDelta: sink})
		if err != nil {
			t.Fatalf("BuildRequest error: %v", err)
		}
		if req.Stream != tt.wantStream || (req.OnDelta != nil) != tt.forwarding {
			t.Errorf("%s stream=%v: got Stream=%v forwarding=%v, want %v/%v",
				tt.model, tt.stream, req.Stream, req.OnDelta != nil, tt.wantStream, tt.forwarding)
		}
	}
}

func TestExecuteForcedStreamAccumulates(t *testing.T) {
	var forwarded []string
	client := ClientFunc(func(ctx context.Context, req *Request) (string, error) {
		var sb strings.Builder
		for _, frag := range []string{"thought ", "out ", "loud"} {
			sb.WriteString(frag)
			if req.OnDelta != nil {
				req.OnDelta(frag)
			}
		}
		return sb.String(), nil
	})
	e := NewExecutor(testDescriptor(), fixedFactory(client, nil))

	text, err := e.Execute(context.Background(), Call{
		ModelKey: "streamer",
		Prompt:   "think",
		Timeout:  time.Second,
		OnDelta:  func(s string) { forwarded = append(forwarded, s) },
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if text != "thought out loud" {
		t.Errorf("text = %q, want accumulated stream", text)
	}
	if len(forwarded) != 0 {
		t.Errorf("fragments forwarded without a stream request: %v", forwarded)
	}
}

func TestExecuteEmptyResponse(t *testing.T) {
	client := ClientFunc(func(context.Context, *Request) (string, error) { return " \n\t", nil })
	e := NewExecutor(testDescriptor(), fixedFactory(client, nil))
	_, err := e.Execute(context.Background(), Call{ModelKey: "plain", Timeout: time.Second})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Execute error = %v, want ErrEmptyResponse", err)
	}
}

func TestExecuteAppliesDeadline(t *testing.T) {
	client := ClientFunc(func(ctx context.Context, req *Request) (string, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("attempt context has no deadline")
		}
		<-ctx.Done()
		return "", errors.New("connection reset")
	})
	var timeouts []time.Duration
	e := NewExecutor(testDescriptor(), fixedFactory(client, &timeouts))

	_, err := e.Execute(context.Background(), Call{ModelKey: "plain", Timeout: 10 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Execute error = %v, want wrapped DeadlineExceeded", err)
	}
	if got := NewClassifier(ClassifyRules{}).Classify(err); got != ClassTimeout {
		t.Errorf("deadline error classified as %s, want timeout", got)
	}
	if len(timeouts) != 1 || timeouts[0] != 10*time.Millisecond {
		t.Errorf("factory timeouts = %v, want [10ms]", timeouts)
	}
}

func TestExecuteFactoryError(t *testing.T) {
	factory := func(time.Duration) (Client, error) { return nil, errors.New("no transport") }
	e := NewExecutor(testDescriptor(), factory)
	if _, err := e.Execute(context.Background(), Call{ModelKey: "plain"}); err == nil {
		t.Error("expected factory error")
	}
}

type closingClient struct {
	text   string
	err    error
	closed int
}

func (c *closingClient) Send(context.Context, *Request) (string, error) { return c.text, c.err }

func (c *closingClient) Close() error {
	c.closed++
	return nil
}

func TestExecuteClosesClient(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  error
	}{
		{"success", "ok", nil},
		{"failure", "", errors.New("503 overloaded")},
		{"empty", " ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &closingClient{text: tt.text, err: tt.err}
			e := NewExecutor(testDescriptor(), func(time.Duration) (Client, error) { return c, nil })
			e.Execute(context.Background(), Call{ModelKey: "plain", Timeout: time.Second})
			if c.closed != 1 {
				t.Errorf("Close called %d times, want 1", c.closed)
			}
		})
	}
}
