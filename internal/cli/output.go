package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/roelfdiedericks/llmcli/internal/llm"
)

var (
	retryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // Orange
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // Red
)

// paint renders s in style only when the stream is a terminal.
func paint(style lipgloss.Style, color bool, s string) string {
	if !color {
		return s
	}
	return style.Render(s)
}

// retryReporter writes one diagnostic line per retried failure.
type retryReporter struct {
	w     io.Writer
	noun  string // "thinking" or "reasoning"
	color bool
}

func (r *retryReporter) report(ev llm.RetryEvent) {
	prefix := paint(retryStyle, r.color, fmt.Sprintf("[Retry %d/%d]", ev.Attempt, ev.MaxAttempts))
	switch {
	case ev.Degraded:
		fmt.Fprintf(r.w, "%s %s - downgrading %s to '%s'\n", prefix, ev.Class.Label(), r.noun, ev.Level.Name)
	case ev.Class == llm.ClassRateLimited:
		fmt.Fprintf(r.w, "%s Rate limited - waiting %.1fs\n", prefix, ev.Wait.Seconds())
	default:
		fmt.Fprintf(r.w, "%s %s: %s - retrying in %.1fs\n", prefix, ev.Class.Label(), llm.FormatErrorForUser(ev.Err), ev.Wait.Seconds())
	}
}

// streamWriter forwards fragments to stdout and remembers whether any arrived.
type streamWriter struct {
	mu      sync.Mutex
	w       io.Writer
	written bool
}

func (s *streamWriter) write(fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fragment == "" {
		return
	}
	io.WriteString(s.w, fragment)
	s.written = true
}

func (s *streamWriter) wroteAny() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}
