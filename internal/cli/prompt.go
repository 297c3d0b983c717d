package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// maxPromptBytes bounds how much piped input is read.
const maxPromptBytes = 8 << 20

// resolvePrompt picks the prompt source. Flag beats positional words, which
// beat stdin. With stdinFirst, non-empty piped stdin wins outright.
// Stdin is only read when it is not a terminal.
func resolvePrompt(flag string, words []string, stdin io.Reader, stdinIsTTY, stdinFirst bool) (string, error) {
	readStdin := func() (string, error) {
		if stdin == nil || stdinIsTTY {
			return "", nil
		}
		data, err := io.ReadAll(io.LimitReader(stdin, maxPromptBytes+1))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		if len(data) > maxPromptBytes {
			return "", fmt.Errorf("stdin exceeds %d MiB", maxPromptBytes>>20)
		}
		if len(data) > 0 && !isText(data) {
			return "", fmt.Errorf("stdin does not look like text (%s)", mimetype.Detect(data).String())
		}
		return strings.TrimSpace(string(data)), nil
	}

	if stdinFirst {
		piped, err := readStdin()
		if err != nil {
			return "", err
		}
		if piped != "" {
			return piped, nil
		}
		stdin = nil
	}

	if p := strings.TrimSpace(flag); p != "" {
		return p, nil
	}
	if p := strings.TrimSpace(strings.Join(words, " ")); p != "" {
		return p, nil
	}
	return readStdin()
}

// isText reports whether data sniffs as text/plain or one of its subtypes
// (JSON, CSV, HTML and so on).
func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
