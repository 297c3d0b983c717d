// Package logging is the shared charmbracelet/log setup for the llmcli tools.
// Dot-import it to call L_debug, L_warn and friends directly.
//
// Messages accept three shapes:
//
//	L_info("plain")
//	L_info("attempt %d of %d", 1, 3)      // printf, when msg has a verb
//	L_info("sent", "model", id, "ms", 12) // structured key/value pairs
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Levels, most severe first.
const (
	LevelError = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var (
	mu     sync.RWMutex
	logger *log.Logger
)

// Options selects where and how much to log.
type Options struct {
	Level      int
	TimeFormat string // empty omits timestamps
	ShowCaller bool
	Output     io.Writer // nil is stderr; stdout carries only answers
	Prefix     string
}

// DefaultOptions logs warnings and errors to stderr.
func DefaultOptions() *Options {
	return &Options{Level: LevelWarn}
}

// Init replaces the global logger. It may be called again, tests do.
func Init(cfg *Options) {
	if cfg == nil {
		cfg = DefaultOptions()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l := log.NewWithOptions(out, log.Options{
		Level:           charmLevel(cfg.Level),
		Prefix:          cfg.Prefix,
		ReportTimestamp: cfg.TimeFormat != "",
		TimeFormat:      cfg.TimeFormat,
		ReportCaller:    cfg.ShowCaller,
		CallerOffset:    2, // emit -> L_* -> caller
	})
	swap(l)
}

func swap(l *log.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

func charmLevel(level int) log.Level {
	switch {
	case level >= LevelDebug:
		return log.DebugLevel
	case level == LevelInfo:
		return log.InfoLevel
	case level == LevelWarn:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}

func get() *log.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init(nil)
		return get()
	}
	return l
}

// hasFmtVerb reports whether s holds a printf verb other than %%.
func hasFmtVerb(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if s[i+1] == '%' {
			i++
			continue
		}
		if strings.IndexByte("vsdtfgeopqxXbcUT+#", s[i+1]) >= 0 {
			return true
		}
	}
	return false
}

func emit(level log.Level, msg string, args []interface{}) {
	l := get()
	if len(args) > 0 && hasFmtVerb(msg) {
		l.Log(level, fmt.Sprintf(msg, args...))
		return
	}
	l.Log(level, msg, args...)
}

// L_trace is debug output too noisy for -v alone; it maps to debug.
func L_trace(msg string, args ...interface{}) { emit(log.DebugLevel, msg, args) }

func L_debug(msg string, args ...interface{}) { emit(log.DebugLevel, msg, args) }

func L_info(msg string, args ...interface{}) { emit(log.InfoLevel, msg, args) }

func L_warn(msg string, args ...interface{}) { emit(log.WarnLevel, msg, args) }

func L_error(msg string, args ...interface{}) { emit(log.ErrorLevel, msg, args) }

// L_elapsed logs at debug with an "elapsed" field measured from start.
func L_elapsed(start time.Time, msg string, args ...interface{}) {
	args = append(args, "elapsed", time.Since(start).Round(time.Millisecond).String())
	emit(log.DebugLevel, msg, args)
}

// SetLevel changes the level of the current logger.
func SetLevel(level int) {
	get().SetLevel(charmLevel(level))
}

// With attaches keyvals to every line logged after it.
func With(keyvals ...interface{}) {
	swap(get().With(keyvals...))
}
