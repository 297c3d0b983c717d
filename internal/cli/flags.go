package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/roelfdiedericks/llmcli/internal/config"
	"github.com/roelfdiedericks/llmcli/internal/llm"
)

// commonFlags are shared by every tool.
type commonFlags struct {
	Prompt      []string `arg:"" optional:"" help:"Prompt text. Words are joined with spaces. Read from stdin when omitted."`
	PromptFlag  string   `name:"prompt" short:"p" placeholder:"TEXT" help:"Prompt text (alternative to the positional argument)."`
	Model       string   `short:"m" enum:"${models}" default:"${default_model}" help:"Model to use (${enum})."`
	Timeout     float64  `placeholder:"SECONDS" default:"0" help:"Per-attempt timeout in seconds. 0 picks it from the model and level."`
	Retries     int      `default:"${retries}" help:"Maximum number of attempts."`
	Adaptive    bool     `negatable:"" default:"${adaptive}" help:"Lower the ${level_noun} level after a timeout or overload."`
	Stream      bool     `negatable:"" default:"${stream}" help:"Print the answer as it is generated."`
	Temperature float64  `default:"${temperature}" help:"Sampling temperature. Negative leaves the vendor default."`
	MaxTokens   int      `name:"max-tokens" default:"${max_tokens}" help:"Maximum tokens in the response. 0 leaves the vendor default."`
	Config      string   `placeholder:"PATH" help:"Config file (default: $$LLMCLI_CONFIG, ./llmcli.toml, ~/.llmcli/config.toml)."`
	InitConfig  bool     `name:"init-config" help:"Write a starter config with this tool's settings and exit."`
	Verbose     bool     `short:"v" help:"Print request details, debug logs and a metrics summary to stderr."`
}

type thinkingCLI struct {
	Common   commonFlags `embed:""`
	Thinking string      `short:"t" enum:"${levels}" default:"${default_level}" help:"Thinking level (${enum})."`
}

type reasoningCLI struct {
	Common    commonFlags `embed:""`
	Reasoning string      `short:"r" enum:"${levels}" default:"${default_level}" help:"Reasoning effort (${enum})."`
}

type plainCLI struct {
	Common commonFlags `embed:""`
}

// parsedFlags is implemented by the three tool shapes.
type parsedFlags interface {
	common() *commonFlags
	level() string
}

func (c *thinkingCLI) common() *commonFlags  { return &c.Common }
func (c *thinkingCLI) level() string         { return c.Thinking }
func (c *reasoningCLI) common() *commonFlags { return &c.Common }
func (c *reasoningCLI) level() string        { return c.Reasoning }
func (c *plainCLI) common() *commonFlags     { return &c.Common }
func (c *plainCLI) level() string            { return "" }

func (c *thinkingCLI) Validate() error  { return c.Common.validate() }
func (c *reasoningCLI) Validate() error { return c.Common.validate() }
func (c *plainCLI) Validate() error     { return c.Common.validate() }

func (c *commonFlags) validate() error {
	if c.Retries < 1 {
		return fmt.Errorf("--retries must be at least 1, got %d", c.Retries)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("--timeout must not be negative, got %g", c.Timeout)
	}
	return nil
}

// newFlags picks the flag shape matching the descriptor's ladder vocabulary.
func newFlags(desc *llm.ProviderDescriptor) parsedFlags {
	if len(desc.Levels) == 0 {
		return &plainCLI{}
	}
	switch desc.LevelFlag {
	case llm.LevelFlagThinking:
		return &thinkingCLI{}
	case llm.LevelFlagReasoning:
		return &reasoningCLI{}
	default:
		return &plainCLI{}
	}
}

func levelNoun(desc *llm.ProviderDescriptor) string {
	if desc.LevelFlag == llm.LevelFlagThinking {
		return "thinking"
	}
	return "reasoning"
}

// flagVars feeds descriptor and config defaults into the flag tags.
func flagVars(desc *llm.ProviderDescriptor, cfg *config.Config) kong.Vars {
	temperature := "-1"
	if desc.DefaultTemperature != nil {
		temperature = strconv.FormatFloat(*desc.DefaultTemperature, 'f', -1, 64)
	}
	retries := cfg.Defaults.Retries
	if retries < 1 {
		retries = llm.DefaultMaxAttempts
	}
	adaptive := true
	if cfg.Defaults.Adaptive != nil {
		adaptive = *cfg.Defaults.Adaptive
	}
	vars := kong.Vars{
		"models":        strings.Join(desc.ModelKeys(), ","),
		"default_model": desc.DefaultModel,
		"levels":        strings.Join(desc.LevelNames(), ","),
		"default_level": desc.DefaultLevel,
		"level_noun":    levelNoun(desc),
		"retries":       strconv.Itoa(retries),
		"adaptive":      strconv.FormatBool(adaptive),
		"stream":        strconv.FormatBool(desc.DefaultStream),
		"temperature":   temperature,
		"max_tokens":    strconv.Itoa(desc.DefaultMaxTokens),
	}
	return vars
}

// prescanConfig finds --config before the full parse, since the file
// supplies flag defaults.
func prescanConfig(args []string) string {
	for i, a := range args {
		if a == "--" {
			return ""
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
