package cli

import (
	"errors"
	"strings"
	"testing"
)

func TestResolvePrompt(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		words      []string
		stdin      string
		tty        bool
		stdinFirst bool
		want       string
	}{
		{"flag", "from flag", []string{"from", "args"}, "from stdin", false, false, "from flag"},
		{"words joined", "", []string{"what", "is", "2+2?"}, "", false, false, "what is 2+2?"},
		{"stdin fallback", "", nil, "  piped\n", false, false, "piped"},
		{"tty stdin ignored", "", nil, "typed", true, false, ""},
		{"nothing", "", nil, "", false, false, ""},
		{"whitespace flag falls through", "   ", []string{"words"}, "", false, false, "words"},
		{"stdin-first wins", "from flag", []string{"args"}, "piped", false, true, "piped"},
		{"stdin-first empty pipe", "from flag", nil, "\n", false, true, "from flag"},
		{"stdin-first tty", "", []string{"args"}, "typed", true, true, "args"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePrompt(tt.flag, tt.words, strings.NewReader(tt.stdin), tt.tty, tt.stdinFirst)
			if err != nil {
				t.Fatalf("resolvePrompt error: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolvePrompt(%q, %q, %q) = %q, want %q", tt.flag, tt.words, tt.stdin, got, tt.want)
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestResolvePromptReadError(t *testing.T) {
	if _, err := resolvePrompt("", nil, failingReader{}, false, false); err == nil {
		t.Error("expected read error")
	}
	if _, err := resolvePrompt("", nil, nil, false, false); err != nil {
		t.Errorf("nil stdin error: %v", err)
	}
}

func TestResolvePromptRejectsBinary(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
	_, err := resolvePrompt("", nil, strings.NewReader(png), false, false)
	if err == nil || !strings.Contains(err.Error(), "image/png") {
		t.Errorf("binary stdin error = %v, want image/png rejection", err)
	}

	got, err := resolvePrompt("", nil, strings.NewReader(`{"question": "why?"}`), false, false)
	if err != nil || got != `{"question": "why?"}` {
		t.Errorf("JSON stdin = %q, %v, want accepted", got, err)
	}
}

func TestResolvePromptSizeLimit(t *testing.T) {
	exact := strings.Repeat("a", maxPromptBytes)
	got, err := resolvePrompt("", nil, strings.NewReader(exact), false, false)
	if err != nil || len(got) != maxPromptBytes {
		t.Errorf("stdin at the limit: len = %d, err = %v, want accepted", len(got), err)
	}

	_, err = resolvePrompt("", nil, strings.NewReader(exact+"b"), false, false)
	if err == nil || !strings.Contains(err.Error(), "exceeds 8 MiB") {
		t.Errorf("oversized stdin error = %v, want size rejection", err)
	}
}
