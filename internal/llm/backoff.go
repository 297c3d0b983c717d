package llm

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Sleeper waits between attempts. Tests swap in a recording implementation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// realSleeper waits on a timer and gives up early when ctx is done.
type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DefaultSleeper is the production sleeper.
var DefaultSleeper Sleeper = realSleeper{}

// Backoff computes waits between attempts.
// Timeouts and overloads wait 2^i seconds, rate limits 2^(i+2) seconds.
// Jitter adds a uniform [0,1) seconds.
type Backoff struct {
	Jitter  bool
	Rand    func() float64 // nil uses math/rand/v2
	Sleeper Sleeper        // nil uses DefaultSleeper
}

// maxBackoffExponent caps waits at 2^30 seconds, well inside time.Duration.
const maxBackoffExponent = 30

// Delay returns the wait after failed attempt index i (0-based) of the given class.
// The second result is false for classes that never retry.
func (b Backoff) Delay(i int, class ErrorClass) (time.Duration, bool) {
	var exp int
	switch class {
	case ClassTimeout, ClassOverloaded:
		exp = i
	case ClassRateLimited:
		exp = i + 2
	default:
		return 0, false
	}
	exp = min(exp, maxBackoffExponent)
	secs := math.Pow(2, float64(exp))
	if b.Jitter {
		secs += b.random()
	}
	return time.Duration(secs * float64(time.Second)), true
}

// Wait blocks for d or until ctx is done.
func (b Backoff) Wait(ctx context.Context, d time.Duration) error {
	s := b.Sleeper
	if s == nil {
		s = DefaultSleeper
	}
	return s.Sleep(ctx, d)
}

func (b Backoff) random() float64 {
	if b.Rand != nil {
		return b.Rand()
	}
	return rand.Float64()
}
