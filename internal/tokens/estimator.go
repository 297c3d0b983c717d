// Package tokens estimates prompt sizes for verbose output.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	. "github.com/roelfdiedericks/llmcli/internal/logging"
)

// Encoding is cl100k_base. Vendors tokenize differently, so counts are approximate.
const Encoding = "cl100k_base"

// Estimator counts tokens with tiktoken, or chars/4 when the encoding could
// not be loaded (tiktoken fetches its tables on first use).
type Estimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.Mutex
}

var (
	shared     *Estimator
	sharedOnce sync.Once
)

// Get returns the process-wide estimator, loading the encoding on first call.
func Get() *Estimator {
	sharedOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(Encoding)
		if err != nil {
			L_debug("tokens: encoding unavailable, using character estimate", "error", err)
			shared = &Estimator{}
			return
		}
		shared = &Estimator{encoding: enc}
	})
	return shared
}

// Count returns the estimated token count of text.
func (e *Estimator) Count(text string) int {
	if e == nil || e.encoding == nil {
		return Approx(text)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.encoding.Encode(text, nil, nil))
}

// Approx is the character-based estimate.
func Approx(text string) int {
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// Estimate counts text with the shared estimator.
func Estimate(text string) int {
	return Get().Count(text)
}
