// Package llm provides the adaptive retry engine and the vendor clients it drives.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ErrorClass categorizes a failed attempt for retry and degradation decisions.
type ErrorClass string

const (
	ClassTimeout     ErrorClass = "timeout"
	ClassRateLimited ErrorClass = "rate_limited"
	ClassOverloaded  ErrorClass = "overloaded"
	ClassFatal       ErrorClass = "fatal"
)

// ErrEmptyResponse is returned by the executor when an attempt produced no text.
// It classifies as a timeout so the ladder steps down on the next attempt.
var ErrEmptyResponse = errors.New("empty response from model")

// Retryable reports whether another attempt may follow an error of this class.
func (c ErrorClass) Retryable() bool {
	return c == ClassTimeout || c == ClassRateLimited || c == ClassOverloaded
}

// Degrades reports whether an error of this class lowers the quality level.
// Rate limits keep the level.
func (c ErrorClass) Degrades() bool {
	return c == ClassTimeout || c == ClassOverloaded
}

// Label returns the human-readable name used in retry diagnostics.
func (c ErrorClass) Label() string {
	switch c {
	case ClassTimeout:
		return "Timeout"
	case ClassRateLimited:
		return "Rate limited"
	case ClassOverloaded:
		return "Overloaded"
	default:
		return "Error"
	}
}

// ClassifyRules holds lower-case substrings matched against error messages.
type ClassifyRules struct {
	Timeout     []string `toml:"timeout" yaml:"timeout"`
	RateLimited []string `toml:"rate_limited" yaml:"rate_limited"`
	Overloaded  []string `toml:"overloaded" yaml:"overloaded"`
}

// DefaultClassifyRules returns the phrasing shared by all supported vendors.
func DefaultClassifyRules() ClassifyRules {
	return ClassifyRules{
		Timeout:     []string{"timeout", "timed out", "deadline"},
		RateLimited: []string{"429", "rate", "quota", "resource_exhausted"},
		Overloaded:  []string{"503", "overloaded", "unavailable", "502", "504", "gateway"},
	}
}

// Extend returns a copy of r with other's patterns appended.
func (r ClassifyRules) Extend(other ClassifyRules) ClassifyRules {
	return ClassifyRules{
		Timeout:     appendLower(r.Timeout, other.Timeout),
		RateLimited: appendLower(r.RateLimited, other.RateLimited),
		Overloaded:  appendLower(r.Overloaded, other.Overloaded),
	}
}

func appendLower(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	for _, p := range extra {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Classifier maps attempt errors to an ErrorClass. It is pure and safe for concurrent use.
type Classifier struct {
	rules ClassifyRules
}

// NewClassifier builds a classifier from the default rules plus extra.
func NewClassifier(extra ClassifyRules) *Classifier {
	return &Classifier{rules: DefaultClassifyRules().Extend(extra)}
}

// Classify returns the class of err. A nil error is not expected and classifies as fatal.
func (c *Classifier) Classify(err error) ErrorClass {
	if err == nil {
		return ClassFatal
	}
	if errors.Is(err, ErrEmptyResponse) || errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}
	return c.ClassifyMessage(err.Error(), StatusCode(err))
}

// ClassifyMessage classifies an error message and optional HTTP status (0 when unknown).
// Checks go from most to least specific: status code, then timeout, overload and
// rate-limit phrasing. Anything unmatched is fatal.
func (c *Classifier) ClassifyMessage(msg string, status int) ErrorClass {
	switch status {
	case 408, 504:
		return ClassTimeout
	case 429:
		return ClassRateLimited
	case 502, 503, 529:
		return ClassOverloaded
	}

	lower := strings.ToLower(msg)
	if containsAny(lower, c.rules.Timeout) {
		return ClassTimeout
	}
	if containsAny(lower, c.rules.Overloaded) {
		return ClassOverloaded
	}
	if containsAny(lower, c.rules.RateLimited) {
		return ClassRateLimited
	}
	return ClassFatal
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// StatusCode extracts the HTTP status from a vendor SDK error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return antErr.StatusCode
	}
	var genErr genai.APIError
	if errors.As(err, &genErr) {
		return genErr.Code
	}
	var genErrPtr *genai.APIError
	if errors.As(err, &genErrPtr) {
		return genErrPtr.Code
	}
	return 0
}

// FormatErrorForUser shortens an attempt error for the terminal diagnostic line.
func FormatErrorForUser(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return msg
}

// FailureReason says why an invocation terminated without text.
type FailureReason string

const (
	ReasonCredential FailureReason = "credential"
	ReasonFatal      FailureReason = "fatal"
	ReasonExhausted  FailureReason = "exhausted"
	ReasonCanceled   FailureReason = "canceled"
)

// Failure is the terminal error of an invocation.
type Failure struct {
	Reason   FailureReason
	Class    ErrorClass
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	switch f.Reason {
	case ReasonExhausted:
		return fmt.Sprintf("Max retries (%d) exceeded", f.Attempts)
	case ReasonCanceled:
		return "Interrupted"
	default:
		if f.Err == nil {
			return string(f.Reason)
		}
		return FormatErrorForUser(f.Err)
	}
}

func (f *Failure) Unwrap() error { return f.Err }
