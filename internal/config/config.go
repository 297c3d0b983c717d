// Package config loads the optional llmcli override file and applies it to
// built-in provider descriptors.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roelfdiedericks/llmcli/internal/llm"
	. "github.com/roelfdiedericks/llmcli/internal/logging"
)

// Config is the on-disk override file.
type Config struct {
	Defaults  Defaults                  `toml:"defaults" yaml:"defaults"`
	Providers map[string]ProviderConfig `toml:"providers" yaml:"providers"`

	path string
}

// Defaults apply to flags the user did not set explicitly.
type Defaults struct {
	Retries  int   `toml:"retries" yaml:"retries"`
	Adaptive *bool `toml:"adaptive" yaml:"adaptive"`
}

// ProviderConfig overrides one provider's descriptor. Zero values leave the
// built-in setting alone.
type ProviderConfig struct {
	BaseURL               string                   `toml:"base_url" yaml:"base_url"`
	APIKeyEnv             string                   `toml:"api_key_env" yaml:"api_key_env"`
	DefaultModel          string                   `toml:"default_model" yaml:"default_model"`
	DefaultLevel          string                   `toml:"default_level" yaml:"default_level"`
	TimeoutSeconds        int                      `toml:"timeout_seconds" yaml:"timeout_seconds"`
	ConnectTimeoutSeconds int                      `toml:"connect_timeout_seconds" yaml:"connect_timeout_seconds"`
	ModelTimeouts         map[string]int           `toml:"model_timeouts" yaml:"model_timeouts"`
	Timeouts              map[string]int           `toml:"timeouts" yaml:"timeouts"` // "model/level" -> seconds
	Models                map[string]llm.ModelSpec `toml:"models" yaml:"models"`
	Errors                llm.ClassifyRules        `toml:"errors" yaml:"errors"`
	Jitter                *bool                    `toml:"jitter" yaml:"jitter"`
	Stream                *bool                    `toml:"stream" yaml:"stream"`
	Temperature           *float64                 `toml:"temperature" yaml:"temperature"`
	MaxTokens             int                      `toml:"max_tokens" yaml:"max_tokens"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	adaptive := true
	return &Config{
		Defaults:  Defaults{Retries: llm.DefaultMaxAttempts, Adaptive: &adaptive},
		Providers: map[string]ProviderConfig{},
	}
}

// Path returns the file the config was read from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

// Load reads path and layers it over Default. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	fileCfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := mergo.Merge(cfg, fileCfg, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config %s: %w", path, err)
	}
	// mergo skips zero values, so an explicit false has to be copied by hand.
	if fileCfg.Defaults.Adaptive != nil {
		adaptive := *fileCfg.Defaults.Adaptive
		cfg.Defaults.Adaptive = &adaptive
	}
	cfg.path = path
	warnUnknownProviders(cfg)

	L_debug("config: loaded", "path", path, "providers", len(cfg.Providers))
	return cfg, nil
}

// Parse decodes a config body. ext selects YAML for ".yaml"/".yml", TOML otherwise.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	}
	return cfg, nil
}

// Apply returns a copy of desc with the provider's overrides layered on top.
func (c *Config) Apply(desc llm.ProviderDescriptor) (llm.ProviderDescriptor, error) {
	out := desc.Clone()
	pc, ok := c.Providers[desc.Name]
	if !ok {
		return out, nil
	}

	if pc.BaseURL != "" {
		out.BaseURL = pc.BaseURL
	}
	if pc.APIKeyEnv != "" {
		out.APIKeyEnv = pc.APIKeyEnv
	}
	if pc.ConnectTimeoutSeconds > 0 {
		out.ConnectTimeout = time.Duration(pc.ConnectTimeoutSeconds) * time.Second
	}
	if pc.Jitter != nil {
		out.Jitter = *pc.Jitter
	}
	if pc.Stream != nil {
		out.DefaultStream = *pc.Stream
	}
	if pc.Temperature != nil {
		t := *pc.Temperature
		out.DefaultTemperature = &t
	}
	if pc.MaxTokens > 0 {
		out.DefaultMaxTokens = pc.MaxTokens
	}

	// Models merge field by field so a file can change only the id.
	for key, override := range pc.Models {
		base := out.Models[key]
		if err := mergo.Merge(&base, override, mergo.WithOverride); err != nil {
			return out, fmt.Errorf("provider %s model %s: %w", desc.Name, key, err)
		}
		out.Models[key] = base
	}

	if pc.DefaultModel != "" {
		out.DefaultModel = pc.DefaultModel
	}
	if pc.DefaultLevel != "" {
		out.DefaultLevel = pc.DefaultLevel
	}

	if pc.TimeoutSeconds > 0 {
		out.Timeouts.Default = time.Duration(pc.TimeoutSeconds) * time.Second
	}
	if len(pc.ModelTimeouts) > 0 && out.Timeouts.ModelDefaults == nil {
		out.Timeouts.ModelDefaults = make(map[string]time.Duration, len(pc.ModelTimeouts))
	}
	for model, secs := range pc.ModelTimeouts {
		out.Timeouts.ModelDefaults[model] = time.Duration(secs) * time.Second
	}
	if len(pc.Timeouts) > 0 && out.Timeouts.Entries == nil {
		out.Timeouts.Entries = make(map[llm.TimeoutKey]time.Duration, len(pc.Timeouts))
	}
	for cell, secs := range pc.Timeouts {
		model, level, ok := strings.Cut(cell, "/")
		if !ok || model == "" || level == "" {
			return out, fmt.Errorf("provider %s: timeout key %q must be \"model/level\"", desc.Name, cell)
		}
		out.Timeouts.Entries[llm.TimeoutKey{Model: model, Level: level}] = time.Duration(secs) * time.Second
	}

	out.ExtraRules = out.ExtraRules.Extend(pc.Errors)

	if err := out.Validate(); err != nil {
		return out, fmt.Errorf("config %s: %w", c.path, err)
	}
	return out, nil
}

// ProviderNames lists providers mentioned in the file, sorted.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for n := range c.Providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
