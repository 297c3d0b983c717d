// Package paths provides centralized path resolution for the llmcli tools.
// This package has NO internal imports (only stdlib) to avoid import cycles.
// All functions return errors to allow callers to log appropriately.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigEnv names the environment variable that points at a config file.
const ConfigEnv = "LLMCLI_CONFIG"

// ConfigNames are the file names looked up, in order, in each directory.
var ConfigNames = []string{"llmcli.toml", "llmcli.yaml", "llmcli.yml"}

// BaseDir returns the llmcli base directory (~/.llmcli).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".llmcli"), nil
}

// DataPath returns a path within the base directory (~/.llmcli/<subpath>).
func DataPath(subpath string) (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, subpath), nil
}

// ConfigPath returns the active config path.
// Priority: explicit > $LLMCLI_CONFIG > ./llmcli.{toml,yaml,yml} > ~/.llmcli/config.{toml,yaml,yml}
// Returns ("", nil) if no config exists - this is a valid state, not an error.
// An explicit path or $LLMCLI_CONFIG that does not exist is an error.
func ConfigPath(explicit string) (string, error) {
	for _, p := range []string{explicit, os.Getenv(ConfigEnv)} {
		if p == "" {
			continue
		}
		expanded, err := ExpandTilde(p)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(expanded); err != nil {
			return "", fmt.Errorf("config file %s: %w", expanded, err)
		}
		return filepath.Abs(expanded)
	}

	for _, name := range ConfigNames {
		if _, err := os.Stat(name); err == nil {
			absPath, err := filepath.Abs(name)
			if err != nil {
				return "", fmt.Errorf("failed to get absolute path: %w", err)
			}
			return absPath, nil
		}
	}

	base, err := BaseDir()
	if err != nil {
		// No home directory is not fatal; there is simply no global config.
		return "", nil
	}
	for _, ext := range []string{".toml", ".yaml", ".yml"} {
		globalPath := filepath.Join(base, "config"+ext)
		if _, err := os.Stat(globalPath); err == nil {
			return globalPath, nil
		}
	}
	return "", nil
}

// DotEnvPaths lists .env files to load: the working directory first, then ~/.llmcli/.env.
func DotEnvPaths() []string {
	out := []string{".env"}
	if p, err := DataPath(".env"); err == nil {
		out = append(out, p)
	}
	return out
}

// ExpandTilde expands a path that starts with ~ to the user's home directory.
// Returns the path unchanged if it doesn't start with ~.
func ExpandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if len(path) == 1 {
		return home, nil
	}
	return filepath.Join(home, path[1:]), nil
}
