package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roelfdiedericks/llmcli/internal/llm"
	. "github.com/roelfdiedericks/llmcli/internal/logging"
)

// AtomicWrite writes data to path atomically using temp file + rename.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Same directory keeps the rename on one filesystem
	tmp, err := os.CreateTemp(dir, ".llmcli-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp to target: %w", err)
	}

	success = true
	return nil
}

// Snapshot renders desc as a ProviderConfig, the shape a config file uses.
func Snapshot(desc llm.ProviderDescriptor) ProviderConfig {
	pc := ProviderConfig{
		BaseURL:               desc.BaseURL,
		APIKeyEnv:             desc.APIKeyEnv,
		DefaultModel:          desc.DefaultModel,
		DefaultLevel:          desc.DefaultLevel,
		TimeoutSeconds:        int(desc.Timeouts.Default.Seconds()),
		ConnectTimeoutSeconds: int(desc.ConnectTimeout.Seconds()),
		Models:                desc.Models,
		Jitter:                &desc.Jitter,
		Stream:                &desc.DefaultStream,
		Temperature:           desc.DefaultTemperature,
		MaxTokens:             desc.DefaultMaxTokens,
	}
	if len(desc.Timeouts.ModelDefaults) > 0 {
		pc.ModelTimeouts = make(map[string]int, len(desc.Timeouts.ModelDefaults))
		for m, d := range desc.Timeouts.ModelDefaults {
			pc.ModelTimeouts[m] = int(d.Seconds())
		}
	}
	if len(desc.Timeouts.Entries) > 0 {
		pc.Timeouts = make(map[string]int, len(desc.Timeouts.Entries))
		for k, d := range desc.Timeouts.Entries {
			pc.Timeouts[k.Model+"/"+k.Level] = int(d.Seconds())
		}
	}
	return pc
}

// Encode renders cfg in the format implied by ext.
func Encode(cfg *Config, ext string) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// WriteStarter writes a config file describing desc's effective settings.
// An existing file is never overwritten.
func WriteStarter(path string, desc llm.ProviderDescriptor) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	cfg := Default()
	cfg.Providers[desc.Name] = Snapshot(desc)

	data, err := Encode(cfg, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := AtomicWrite(path, data, 0600); err != nil {
		return err
	}
	L_info("config: starter written", "path", path, "provider", desc.Name)
	return nil
}

// warnUnknownProviders logs provider sections that match no built-in tool.
func warnUnknownProviders(cfg *Config) {
	known := make(map[string]bool)
	for _, n := range llm.BuiltinNames() {
		known[n] = true
	}
	var unknown []string
	for _, n := range cfg.ProviderNames() {
		if !known[n] {
			unknown = append(unknown, n)
		}
	}
	sort.Strings(unknown)
	if len(unknown) > 0 {
		L_warn("config: unknown provider sections ignored", "path", cfg.path, "providers", strings.Join(unknown, ","))
	}
}
