// Package cli is the command surface shared by the vendor tools: flag parsing,
// prompt resolution, diagnostics and exit status.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/roelfdiedericks/llmcli/internal/config"
	"github.com/roelfdiedericks/llmcli/internal/llm"
	. "github.com/roelfdiedericks/llmcli/internal/logging"
	"github.com/roelfdiedericks/llmcli/internal/metrics"
	"github.com/roelfdiedericks/llmcli/internal/paths"
	"github.com/roelfdiedericks/llmcli/internal/tokens"
)

// Exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// FactoryBuilder creates the vendor client factory for a resolved descriptor.
type FactoryBuilder func(desc *llm.ProviderDescriptor, apiKey string) (llm.ClientFactory, error)

// Env is everything a run touches outside its arguments.
type Env struct {
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	StdinIsTTY bool
	Lookup     llm.LookupFunc
	DotEnv     []string // .env files loaded before the credential lookup
	Factory    FactoryBuilder
	Sleeper    llm.Sleeper
	Rand       func() float64
	Color      bool             // style diagnostics on stderr
	CountToken func(string) int // verbose prompt size; nil skips it
}

// DefaultEnv wires the real process streams and vendor SDKs.
func DefaultEnv() Env {
	return Env{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		StdinIsTTY: term.IsTerminal(int(os.Stdin.Fd())),
		Lookup:     os.LookupEnv,
		DotEnv:     paths.DotEnvPaths(),
		Factory:    llm.NewClientFactory,
		Color:      term.IsTerminal(int(os.Stderr.Fd())),
		CountToken: tokens.Estimate,
	}
}

// Main runs the built-in provider name against os.Args and returns the exit status.
// Interrupts cancel the in-flight attempt and any pending wait.
func Main(provider string) int {
	desc, err := llm.Builtin(provider)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, desc, os.Args[1:], DefaultEnv())
}

// kongExit carries kong's requested exit code out of Parse.
type kongExit struct{ code int }

// Run is one full invocation. Only the returned status leaves this function;
// nothing here calls os.Exit.
func Run(ctx context.Context, desc llm.ProviderDescriptor, args []string, env Env) (status int) {
	Init(&Options{Level: LevelWarn, Output: env.Stderr, Prefix: desc.Tool})
	metrics.Default().Reset()

	cfgPath, err := paths.ConfigPath(prescanConfig(args))
	if err != nil {
		// --init-config may name a file that does not exist yet.
		if !hasArg(args, "--init-config") {
			fmt.Fprintf(env.Stderr, "Error: %v\n", err)
			return ExitFailure
		}
		cfgPath = ""
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	desc, err = cfg.Apply(desc)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitFailure
	}

	flags := newFlags(&desc)
	parser, err := kong.New(flags,
		kong.Name(desc.Tool),
		kong.Description(fmt.Sprintf("Send a prompt to %s with adaptive retry.", desc.Name)),
		kong.Vars(flagVars(&desc, cfg)),
		kong.Writers(env.Stdout, env.Stderr),
		kong.Exit(func(code int) { panic(kongExit{code}) }),
	)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitFailure
	}

	defer func() {
		if r := recover(); r != nil {
			exit, ok := r.(kongExit)
			if !ok {
				panic(r)
			}
			status = exit.code
		}
	}()
	if _, err := parser.Parse(args); err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		fmt.Fprintf(env.Stderr, "Run '%s --help' for usage.\n", desc.Tool)
		return ExitFailure
	}

	c := flags.common()
	if c.Verbose {
		SetLevel(LevelDebug)
	}
	With("invocation", uuid.NewString()[:8])

	if c.InitConfig {
		return initConfig(&desc, c.Config, env)
	}

	prompt, err := resolvePrompt(c.PromptFlag, c.Prompt, env.Stdin, env.StdinIsTTY, desc.StdinFirst)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	if prompt == "" {
		fmt.Fprintf(env.Stderr, "Error: No prompt provided\n")
		fmt.Fprintf(env.Stderr, "Usage: %s 'prompt' [flags]\n", desc.Tool)
		fmt.Fprintf(env.Stderr, "       echo 'prompt' | %s [flags]\n", desc.Tool)
		return ExitFailure
	}

	llm.LoadDotEnv(env.DotEnv...)
	apiKey, failure := llm.ResolveCredential(&desc, env.Lookup)
	if failure != nil {
		fmt.Fprintf(env.Stderr, "Error: %s\n", failure.Error())
		return ExitFailure
	}

	factory, err := env.Factory(&desc, apiKey)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitFailure
	}

	policy := buildPolicy(&desc, flags)
	if c.Verbose {
		promptTokens := -1
		if env.CountToken != nil {
			promptTokens = env.CountToken(prompt)
		}
		printRequestInfo(env.Stderr, &desc, policy, promptTokens)
	}

	out := &streamWriter{w: env.Stdout}
	if policy.Stream {
		policy.OnDelta = out.write
	}
	reporter := &retryReporter{w: env.Stderr, noun: levelNoun(&desc), color: env.Color}
	runner := llm.NewRunner(&desc, factory, llm.RunnerOptions{
		Sleeper: env.Sleeper,
		Rand:    env.Rand,
		OnRetry: reporter.report,
	})

	start := time.Now()
	outcome := runner.Run(ctx, prompt, policy)
	L_elapsed(start, "request finished", "attempts", len(outcome.Attempts), "waits", outcome.Waits())

	if c.Verbose {
		printSummary(env.Stderr, outcome)
	}

	if !outcome.Completed() {
		if out.wroteAny() {
			// Partial streamed output stays on stdout; end the line before the error.
			fmt.Fprintln(env.Stdout)
		}
		reportFailure(env.Stderr, outcome.Failure, env.Color)
		return ExitFailure
	}

	if out.wroteAny() {
		fmt.Fprintln(env.Stdout)
	} else {
		fmt.Fprintln(env.Stdout, outcome.Text)
	}
	return ExitOK
}

func buildPolicy(desc *llm.ProviderDescriptor, flags parsedFlags) llm.RetryPolicy {
	c := flags.common()
	policy := llm.RetryPolicy{
		MaxAttempts: c.Retries,
		Adaptive:    c.Adaptive,
		ModelKey:    c.Model,
		StartLevel:  flags.level(),
		Stream:      c.Stream,
		Sampling:    llm.Sampling{MaxTokens: c.MaxTokens},
	}
	if policy.StartLevel == "" {
		policy.StartLevel = desc.DefaultLevel
	}
	if c.Timeout > 0 {
		policy.Timeout = time.Duration(c.Timeout * float64(time.Second))
	}
	if c.Temperature >= 0 {
		t := c.Temperature
		policy.Sampling.Temperature = &t
	}
	return policy
}

// printRequestInfo echoes the resolved request. promptTokens < 0 omits the size line.
func printRequestInfo(w io.Writer, desc *llm.ProviderDescriptor, policy llm.RetryPolicy, promptTokens int) {
	model, _ := desc.Model(policy.ModelKey)
	level := llm.NewLadder(desc.Levels, policy.StartLevel).Current()
	fmt.Fprintf(w, "Model: %s\n", model.ID)
	if model.SupportsQuality && len(desc.Levels) > 0 {
		label := "Reasoning"
		if desc.LevelFlag == llm.LevelFlagThinking {
			label = "Thinking"
		}
		fmt.Fprintf(w, "%s: %s\n", label, level.Name)
	}
	streaming := "off"
	if policy.Stream || model.RequiresStreaming {
		streaming = "on"
	}
	fmt.Fprintf(w, "Streaming: %s\n", streaming)
	fmt.Fprintf(w, "Timeout: %.0fs\n", desc.Timeouts.Resolve(policy.ModelKey, level.Name, policy.Timeout).Seconds())
	fmt.Fprintf(w, "Retries: %d (adaptive: %t)\n", policy.MaxAttempts, policy.Adaptive)
	if promptTokens >= 0 {
		fmt.Fprintf(w, "Prompt tokens: ~%d\n", promptTokens)
	}
	fmt.Fprintln(w, "---")
}

func printSummary(w io.Writer, outcome llm.Outcome) {
	fmt.Fprintf(w, "--- attempts: %d, waits: %d, total wait: %.1fs\n",
		len(outcome.Attempts), outcome.Waits(), outcome.TotalWait().Seconds())
	io.WriteString(w, metrics.Format(metrics.Default().Snapshot()))
}

func reportFailure(w io.Writer, f *llm.Failure, color bool) {
	fmt.Fprintln(w, paint(errorStyle, color, "Error: "+f.Error()))
	if f.Reason == llm.ReasonExhausted && f.Err != nil {
		fmt.Fprintf(w, "Last error (%s): %s\n", f.Class, llm.FormatErrorForUser(f.Err))
	}
}

func hasArg(args []string, name string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}
		if a == name {
			return true
		}
	}
	return false
}

func initConfig(desc *llm.ProviderDescriptor, explicit string, env Env) int {
	path := explicit
	if path == "" {
		p, err := paths.DataPath("config.toml")
		if err != nil {
			fmt.Fprintf(env.Stderr, "Error: %v\n", err)
			return ExitFailure
		}
		path = p
	}
	path, err := paths.ExpandTilde(path)
	if err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	if err := config.WriteStarter(path, *desc); err != nil {
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitFailure
	}
	fmt.Fprintf(env.Stdout, "Wrote %s\n", filepath.Clean(path))
	return ExitOK
}
