package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	. "github.com/roelfdiedericks/llmcli/internal/logging"
)

// ErrNoCredential is wrapped by ResolveCredential when the key is missing.
var ErrNoCredential = errors.New("credential not set")

type missingCredentialError string

func (e missingCredentialError) Error() string {
	return fmt.Sprintf("%s environment variable not set", string(e))
}

func (e missingCredentialError) Is(target error) bool {
	return target == ErrNoCredential
}

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			L_warn("dotenv: failed to load", "path", f, "error", err)
		}
	}
}

// ResolveCredential returns the API key for desc. It fails before any attempt
// is made so a missing key never costs a retry.
func ResolveCredential(desc *ProviderDescriptor, lookup LookupFunc) (string, *Failure) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	key, _ := lookup(desc.APIKeyEnv)
	key = strings.TrimSpace(key)
	if key == "" {
		return "", &Failure{
			Reason: ReasonCredential,
			Class:  ClassFatal,
			Err:    missingCredentialError(desc.APIKeyEnv),
		}
	}
	return key, nil
}
