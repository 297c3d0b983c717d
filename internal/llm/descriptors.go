package llm

import (
	"fmt"
	"sort"
	"time"
)

// Built-in provider names.
const (
	ProviderClaude   = "claude"
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderGrok     = "grok"
	ProviderGroq     = "groq"
	ProviderMistral  = "mistral"
)

const defaultConnectTimeout = 10 * time.Second

func floatPtr(f float64) *float64 { return &f }

// effortLadder is the three-rung reasoning ladder shared by OpenAI-style vendors.
func effortLadder() []QualityLevel {
	return []QualityLevel{
		{Name: "high", Effort: "high"},
		{Name: "medium", Effort: "medium"},
		{Name: "low", Effort: "low"},
	}
}

// Claude adds a per-model bonus to the base deadline whenever thinking is on.
func claudeTimeouts() TimeoutMatrix {
	base := map[string]int{"haiku": 60, "sonnet": 90, "opus": 120}
	bonus := map[string]int{"haiku": 60, "sonnet": 60, "opus": 90}
	m := TimeoutMatrix{
		Entries:       make(map[TimeoutKey]time.Duration),
		ModelDefaults: make(map[string]time.Duration),
		Default:       seconds(90),
	}
	for model, secs := range base {
		m.ModelDefaults[model] = seconds(secs)
		for _, lvl := range []string{"low", "medium", "high"} {
			m.Entries[TimeoutKey{Model: model, Level: lvl}] = seconds(secs + bonus[model])
		}
	}
	return m
}

func matrix(def int, cells map[TimeoutKey]int) TimeoutMatrix {
	m := TimeoutMatrix{Entries: make(map[TimeoutKey]time.Duration, len(cells)), Default: seconds(def)}
	for k, v := range cells {
		m.Entries[k] = seconds(v)
	}
	return m
}

func perModel(def int, models map[string]int) TimeoutMatrix {
	m := TimeoutMatrix{ModelDefaults: make(map[string]time.Duration, len(models)), Default: seconds(def)}
	for k, v := range models {
		m.ModelDefaults[k] = seconds(v)
	}
	return m
}

var builtins = map[string]func() ProviderDescriptor{
	ProviderClaude: func() ProviderDescriptor {
		return ProviderDescriptor{
			Name:           ProviderClaude,
			Tool:           "claude-cli",
			Driver:         DriverAnthropic,
			APIKeyEnv:      "ANTHROPIC_API_KEY",
			ConnectTimeout: defaultConnectTimeout,
			Models: map[string]ModelSpec{
				"sonnet": {ID: "claude-sonnet-4-5-20250929", SupportsQuality: true, Description: "balanced"},
				"opus":   {ID: "claude-opus-4-5-20251101", SupportsQuality: true, Description: "most capable"},
				"haiku":  {ID: "claude-haiku-4-5-20251001", SupportsQuality: true, Description: "fastest"},
			},
			DefaultModel: "sonnet",
			Levels: []QualityLevel{
				{Name: "high", Budget: 4096},
				{Name: "medium", Budget: 2048},
				{Name: "low", Budget: 1024},
				{Name: "none", Off: true},
			},
			DefaultLevel:       "none",
			LevelFlag:          LevelFlagThinking,
			Timeouts:           claudeTimeouts(),
			DefaultStream:      true,
			DefaultTemperature: floatPtr(1.0),
			DefaultMaxTokens:   4096,
		}
	},
	ProviderGemini: func() ProviderDescriptor {
		return ProviderDescriptor{
			Name:           ProviderGemini,
			Tool:           "gemini-cli",
			Driver:         DriverGemini,
			APIKeyEnv:      "GEMINI_API_KEY",
			ConnectTimeout: defaultConnectTimeout,
			Models: map[string]ModelSpec{
				"flash":     {ID: "gemini-3-flash-preview", SupportsQuality: true, Description: "fast"},
				"pro":       {ID: "gemini-3-pro-preview", SupportsQuality: true, Description: "most capable"},
				"2.5-flash": {ID: "gemini-2.5-flash", SupportsQuality: true, Description: "previous generation, fast"},
				"2.5-pro":   {ID: "gemini-2.5-pro", SupportsQuality: true, Description: "previous generation, capable"},
			},
			DefaultModel: "flash",
			Levels: []QualityLevel{
				{Name: "max", Budget: 10000},
				{Name: "high", Budget: 2000},
				{Name: "medium", Budget: 500},
				{Name: "low", Budget: 200},
				{Name: "minimal", Budget: 50},
			},
			DefaultLevel:       "medium",
			LevelFlag:          LevelFlagThinking,
			Timeouts:           TimeoutMatrix{Default: seconds(300)},
			DefaultStream:      true,
			DefaultTemperature: floatPtr(0.7),
		}
	},
	ProviderOpenAI: func() ProviderDescriptor {
		return ProviderDescriptor{
			Name:           ProviderOpenAI,
			Tool:           "openai-cli",
			Driver:         DriverOpenAI,
			APIKeyEnv:      "OPENAI_API_KEY",
			ConnectTimeout: defaultConnectTimeout,
			Models: map[string]ModelSpec{
				"gpt4o":  {ID: "gpt-4o", Description: "general purpose"},
				"o3":     {ID: "o3", SupportsQuality: true, Description: "reasoning"},
				"o4mini": {ID: "o4-mini", SupportsQuality: true, Description: "fast reasoning"},
			},
			DefaultModel: "gpt4o",
			Levels:       effortLadder(),
			DefaultLevel: "medium",
			LevelFlag:    LevelFlagReasoning,
			Timeouts: matrix(120, map[TimeoutKey]int{
				{"gpt4o", "low"}: 60, {"gpt4o", "medium"}: 60, {"gpt4o", "high"}: 60,
				{"o3", "low"}: 120, {"o3", "medium"}: 180, {"o3", "high"}: 300,
				{"o4mini", "low"}: 60, {"o4mini", "medium"}: 90, {"o4mini", "high"}: 120,
			}),
			Jitter:     true,
			StdinFirst: true,
		}
	},
	ProviderDeepSeek: func() ProviderDescriptor {
		return ProviderDescriptor{
			Name:           ProviderDeepSeek,
			Tool:           "deepseek-cli",
			Driver:         DriverOpenAI,
			BaseURL:        "https://api.deepseek.com",
			APIKeyEnv:      "DEEPSEEK_API_KEY",
			ConnectTimeout: defaultConnectTimeout,
			Models: map[string]ModelSpec{
				"chat":     {ID: "deepseek-chat", Description: "general chat"},
				"reasoner": {ID: "deepseek-reasoner", SupportsQuality: true, RequiresStreaming: true, Description: "reasoning"},
			},
			DefaultModel: "chat",
			Levels:       effortLadder(),
			DefaultLevel: "medium",
			LevelFlag:    LevelFlagReasoning,
			Timeouts: matrix(120, map[TimeoutKey]int{
				{"chat", "low"}: 60, {"chat", "medium"}: 60, {"chat", "high"}: 120,
				{"reasoner", "low"}: 180, {"reasoner", "medium"}: 300, {"reasoner", "high"}: 600,
			}),
			Jitter:     true,
			StdinFirst: true,
		}
	},
	ProviderGrok: func() ProviderDescriptor {
		return ProviderDescriptor{
			Name:           ProviderGrok,
			Tool:           "grok-cli",
			Driver:         DriverXAI,
			BaseURL:        "https://api.x.ai/v1",
			APIKeyEnv:      "XAI_API_KEY",
			ConnectTimeout: defaultConnectTimeout,
			Models: map[string]ModelSpec{
				"fast":   {ID: "grok-4-fast", Description: "fast and cheap, 2M context"},
				"grok4":  {ID: "grok-4", Description: "most capable, 2M context"},
				"mini":   {ID: "grok-3-mini", SupportsQuality: true, Description: "lightweight reasoning"},
				"vision": {ID: "grok-2-vision-1212", Description: "vision"},
			},
			DefaultModel: "fast",
			Levels: []QualityLevel{
				{Name: "high", Effort: "high"},
				{Name: "low", Effort: "low"},
			},
			DefaultLevel: "high",
			LevelFlag:    LevelFlagReasoning,
			Timeouts:     perModel(60, map[string]int{"fast": 60, "mini": 60, "grok4": 120, "vision": 90}),
			Jitter:       true,
			StdinFirst:   true,
		}
	},
	ProviderGroq: func() ProviderDescriptor {
		return ProviderDescriptor{
			Name:           ProviderGroq,
			Tool:           "groq-cli",
			Driver:         DriverOpenAI,
			BaseURL:        "https://api.groq.com/openai/v1",
			APIKeyEnv:      "GROQ_API_KEY",
			ConnectTimeout: defaultConnectTimeout,
			Models: map[string]ModelSpec{
				"8b":      {ID: "llama-3.1-8b-instant", Description: "fastest"},
				"70b":     {ID: "llama-3.1-70b-versatile", Description: "capable"},
				"mixtral": {ID: "mixtral-8x7b-32768", Description: "32k context"},
			},
			DefaultModel:  "8b",
			Timeouts:      perModel(60, map[string]int{"8b": 30, "70b": 45, "mixtral": 60}),
			Jitter:        true,
			DefaultStream: true,
			StdinFirst:    true,
		}
	},
	ProviderMistral: func() ProviderDescriptor {
		return ProviderDescriptor{
			Name:           ProviderMistral,
			Tool:           "mistral-cli",
			Driver:         DriverOpenAI,
			BaseURL:        "https://api.mistral.ai/v1",
			APIKeyEnv:      "MISTRAL_API_KEY",
			ConnectTimeout: 5 * time.Second,
			Models: map[string]ModelSpec{
				"large":     {ID: "mistral-large-latest", Description: "best reasoning"},
				"medium":    {ID: "mistral-medium-3", Description: "balanced, strong at code"},
				"small":     {ID: "mistral-small-latest", Description: "cost efficient"},
				"codestral": {ID: "codestral-latest", Description: "code"},
				"devstral":  {ID: "devstral-2", Description: "software engineering"},
			},
			DefaultModel: "medium",
			Timeouts: perModel(90, map[string]int{
				"large": 120, "medium": 90, "small": 60, "codestral": 90, "devstral": 90,
			}),
			DefaultStream:      true,
			DefaultTemperature: floatPtr(0.7),
			ExtraRules:         ClassifyRules{RateLimited: []string{"resource_exhausted"}},
		}
	},
}

// Builtin returns a fresh copy of a built-in descriptor.
func Builtin(name string) (ProviderDescriptor, error) {
	build, ok := builtins[name]
	if !ok {
		return ProviderDescriptor{}, fmt.Errorf("unknown provider %q", name)
	}
	return build(), nil
}

// MustBuiltin is Builtin for names known at compile time.
func MustBuiltin(name string) ProviderDescriptor {
	d, err := Builtin(name)
	if err != nil {
		panic(err)
	}
	return d
}

// BuiltinNames lists the built-in provider names.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
