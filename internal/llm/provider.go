package llm

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Driver selects the vendor SDK a descriptor talks through.
type Driver string

const (
	DriverAnthropic Driver = "anthropic"
	DriverOpenAI    Driver = "openai" // OpenAI and OpenAI-compatible endpoints
	DriverXAI       Driver = "xai"
	DriverGemini    Driver = "gemini"
)

// LevelFlag names the command-line flag a tool exposes for its ladder.
type LevelFlag string

const (
	LevelFlagNone      LevelFlag = ""
	LevelFlagThinking  LevelFlag = "thinking"
	LevelFlagReasoning LevelFlag = "reasoning"
)

// ModelSpec describes one model a provider offers.
type ModelSpec struct {
	ID                string `toml:"id" yaml:"id"`
	SupportsQuality   bool   `toml:"supports_quality" yaml:"supports_quality"`
	RequiresStreaming bool   `toml:"requires_streaming" yaml:"requires_streaming"`
	Description       string `toml:"description" yaml:"description"`
}

// ProviderDescriptor is the static configuration of one vendor tool.
// Descriptors are values; Clone before mutating a built-in one.
type ProviderDescriptor struct {
	Name               string
	Tool               string
	Driver             Driver
	BaseURL            string
	APIKeyEnv          string
	ConnectTimeout     time.Duration
	Models             map[string]ModelSpec
	DefaultModel       string
	Levels             []QualityLevel
	DefaultLevel       string
	LevelFlag          LevelFlag
	Timeouts           TimeoutMatrix
	Jitter             bool
	DefaultStream      bool
	DefaultTemperature *float64
	DefaultMaxTokens   int
	ExtraRules         ClassifyRules
	StdinFirst         bool // piped stdin wins over flags and arguments
}

// Model looks up a model by key.
func (d *ProviderDescriptor) Model(key string) (ModelSpec, bool) {
	m, ok := d.Models[key]
	return m, ok
}

// ModelKeys returns model keys sorted alphabetically.
func (d *ProviderDescriptor) ModelKeys() []string {
	keys := make([]string, 0, len(d.Models))
	for k := range d.Models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LevelNames returns ladder names highest first.
func (d *ProviderDescriptor) LevelNames() []string {
	names := make([]string, len(d.Levels))
	for i, l := range d.Levels {
		names[i] = l.Name
	}
	return names
}

// Validate checks internal consistency.
func (d *ProviderDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("provider descriptor has no name")
	}
	switch d.Driver {
	case DriverAnthropic, DriverOpenAI, DriverXAI, DriverGemini:
	default:
		return fmt.Errorf("provider %s: unknown driver %q", d.Name, d.Driver)
	}
	if len(d.Models) == 0 {
		return fmt.Errorf("provider %s: no models", d.Name)
	}
	if _, ok := d.Models[d.DefaultModel]; !ok {
		return fmt.Errorf("provider %s: default model %q not in model table", d.Name, d.DefaultModel)
	}
	for key, m := range d.Models {
		if m.ID == "" {
			return fmt.Errorf("provider %s: model %q has no id", d.Name, key)
		}
	}
	if len(d.Levels) > 0 {
		found := false
		seen := make(map[string]bool, len(d.Levels))
		for _, l := range d.Levels {
			if seen[l.Name] {
				return fmt.Errorf("provider %s: duplicate level %q", d.Name, l.Name)
			}
			seen[l.Name] = true
			if l.Name == d.DefaultLevel {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("provider %s: default level %q not in ladder", d.Name, d.DefaultLevel)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (d ProviderDescriptor) Clone() ProviderDescriptor {
	out := d
	out.Models = make(map[string]ModelSpec, len(d.Models))
	for k, v := range d.Models {
		out.Models[k] = v
	}
	out.Levels = append([]QualityLevel(nil), d.Levels...)
	out.Timeouts = d.Timeouts.Clone()
	if d.DefaultTemperature != nil {
		t := *d.DefaultTemperature
		out.DefaultTemperature = &t
	}
	out.ExtraRules = ClassifyRules{}.Extend(d.ExtraRules)
	return out
}

// Sampling carries pass-through generation parameters.
type Sampling struct {
	Temperature *float64
	MaxTokens   int
}

// Request is a single-turn request handed to a Client.
// Level is nil when the model does not accept a quality parameter.
// OnDelta, if set, receives text fragments as they stream in.
type Request struct {
	ModelID  string
	Prompt   string
	Level    *QualityLevel
	Sampling Sampling
	Stream   bool
	OnDelta  func(string)
}

// Client sends one request to a vendor and returns the full text.
// When req.Stream is set the text is the concatenation of streamed fragments.
type Client interface {
	Send(ctx context.Context, req *Request) (string, error)
}

// ClientFactory builds a client whose transport deadline is timeout.
type ClientFactory func(timeout time.Duration) (Client, error)

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, req *Request) (string, error)

func (f ClientFunc) Send(ctx context.Context, req *Request) (string, error) {
	return f(ctx, req)
}
