package llm

import (
	"context"
	"errors"
	"time"

	. "github.com/roelfdiedericks/llmcli/internal/logging"
	. "github.com/roelfdiedericks/llmcli/internal/metrics"
)

// DefaultMaxAttempts is the attempt budget when a policy leaves it unset.
const DefaultMaxAttempts = 3

// RetryPolicy is the caller's per-invocation configuration.
type RetryPolicy struct {
	MaxAttempts int
	Adaptive    bool
	ModelKey    string
	StartLevel  string
	Timeout     time.Duration // explicit per-attempt override, 0 resolves from the matrix
	Stream      bool
	Sampling    Sampling
	OnDelta     func(string)
}

// AttemptRecord is the observable trace of one attempt.
type AttemptRecord struct {
	Index    int
	Level    QualityLevel
	Timeout  time.Duration
	Duration time.Duration
	Class    ErrorClass // empty on success
	Err      error
	Wait     time.Duration // wait performed after this attempt, 0 if none
}

// Outcome is the tagged result of an invocation: Completed with Text, or
// Failed with a Failure.
type Outcome struct {
	Text     string
	Failure  *Failure
	Attempts []AttemptRecord
}

// Completed reports whether the invocation produced text.
func (o Outcome) Completed() bool {
	return o.Failure == nil
}

// Waits counts the backoff waits performed.
func (o Outcome) Waits() int {
	n := 0
	for _, a := range o.Attempts {
		if a.Wait > 0 {
			n++
		}
	}
	return n
}

// TotalWait sums all backoff waits.
func (o Outcome) TotalWait() time.Duration {
	var total time.Duration
	for _, a := range o.Attempts {
		total += a.Wait
	}
	return total
}

// RetryEvent is emitted once per retried failure, before the wait.
type RetryEvent struct {
	Attempt     int // 1-based number of the attempt that failed
	MaxAttempts int
	Class       ErrorClass
	Err         error
	Wait        time.Duration
	Degraded    bool
	Level       QualityLevel // level the next attempt will use
}

// RunnerOptions tune a Runner. Zero values pick production defaults.
type RunnerOptions struct {
	Sleeper Sleeper
	Rand    func() float64
	OnRetry func(RetryEvent)
}

// Runner drives the attempt, classify, wait-or-degrade loop.
// A Runner holds no per-invocation state and may be reused.
type Runner struct {
	desc       *ProviderDescriptor
	exec       *Executor
	classifier *Classifier
	backoff    Backoff
	onRetry    func(RetryEvent)
}

// NewRunner builds a runner for desc using factory to create vendor clients.
func NewRunner(desc *ProviderDescriptor, factory ClientFactory, opts RunnerOptions) *Runner {
	return &Runner{
		desc:       desc,
		exec:       NewExecutor(desc, factory),
		classifier: NewClassifier(desc.ExtraRules),
		backoff: Backoff{
			Jitter:  desc.Jitter,
			Rand:    opts.Rand,
			Sleeper: opts.Sleeper,
		},
		onRetry: opts.OnRetry,
	}
}

// Run executes prompt under policy until success, a fatal error, cancellation,
// or exhaustion of the attempt budget. No wait follows the final attempt.
func (r *Runner) Run(ctx context.Context, prompt string, policy RetryPolicy) Outcome {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	modelKey := policy.ModelKey
	if modelKey == "" {
		modelKey = r.desc.DefaultModel
	}
	model, _ := r.desc.Model(modelKey)
	ladder := NewLadder(r.desc.Levels, policy.StartLevel)
	canDegrade := policy.Adaptive && model.SupportsQuality && !ladder.Empty()

	metricPrefix := "llm/" + r.desc.Name + "/" + modelKey
	started := time.Now()

	var out Outcome
	var lastClass ErrorClass
	var lastErr error

	for i := 0; i < maxAttempts; i++ {
		level := ladder.Current()
		timeout := r.desc.Timeouts.Resolve(modelKey, level.Name, policy.Timeout)

		L_debug("llm: attempt started",
			"provider", r.desc.Name,
			"model", modelKey,
			"attempt", i+1,
			"max", maxAttempts,
			"level", level.Name,
			"timeout", timeout,
		)

		attemptStart := time.Now()
		text, err := r.exec.Execute(ctx, Call{
			ModelKey: modelKey,
			Prompt:   prompt,
			Level:    level,
			Timeout:  timeout,
			Sampling: policy.Sampling,
			Stream:   policy.Stream,
			OnDelta:  policy.OnDelta,
		})
		rec := AttemptRecord{
			Index:    i,
			Level:    level,
			Timeout:  timeout,
			Duration: time.Since(attemptStart),
			Err:      err,
		}
		MetricDuration(metricPrefix, "attempt", rec.Duration)
		MetricInc(metricPrefix, "attempts")

		if err == nil {
			out.Attempts = append(out.Attempts, rec)
			out.Text = text
			MetricSuccess(metricPrefix, "request_status")
			MetricDuration(metricPrefix, "request", time.Since(started))
			L_debug("llm: attempt succeeded", "provider", r.desc.Name, "attempt", i+1, "chars", len(text))
			return out
		}

		if ctx.Err() != nil {
			out.Attempts = append(out.Attempts, rec)
			return r.fail(out, metricPrefix, &Failure{Reason: ReasonCanceled, Attempts: i + 1, Err: ctx.Err()})
		}

		class := r.classifier.Classify(err)
		rec.Class = class
		lastClass, lastErr = class, err
		MetricFailWithReason(metricPrefix, "attempt_status", string(class))
		L_debug("llm: attempt failed",
			"provider", r.desc.Name,
			"attempt", i+1,
			"class", class,
			"error", err,
		)

		if !class.Retryable() {
			out.Attempts = append(out.Attempts, rec)
			return r.fail(out, metricPrefix, &Failure{Reason: ReasonFatal, Class: class, Attempts: i + 1, Err: err})
		}
		if i+1 >= maxAttempts {
			out.Attempts = append(out.Attempts, rec)
			break
		}

		degraded := false
		if canDegrade && class.Degrades() {
			_, degraded = ladder.Degrade()
		}
		wait, _ := r.backoff.Delay(i, class)
		rec.Wait = wait
		out.Attempts = append(out.Attempts, rec)

		if r.onRetry != nil {
			r.onRetry(RetryEvent{
				Attempt:     i + 1,
				MaxAttempts: maxAttempts,
				Class:       class,
				Err:         err,
				Wait:        wait,
				Degraded:    degraded,
				Level:       ladder.Current(),
			})
		}
		MetricDuration(metricPrefix, "wait", wait)
		if degraded {
			MetricInc(metricPrefix, "degradations")
		}

		if err := r.backoff.Wait(ctx, wait); err != nil {
			return r.fail(out, metricPrefix, &Failure{Reason: ReasonCanceled, Attempts: i + 1, Err: err})
		}
	}

	L_info("llm: retries exhausted", "provider", r.desc.Name, "attempts", maxAttempts, "class", lastClass)
	return r.fail(out, metricPrefix, &Failure{Reason: ReasonExhausted, Class: lastClass, Attempts: maxAttempts, Err: lastErr})
}

func (r *Runner) fail(out Outcome, metricPrefix string, f *Failure) Outcome {
	out.Failure = f
	MetricFailWithReason(metricPrefix, "request_status", string(f.Reason))
	return out
}

// IsCanceled reports whether an outcome ended because the caller gave up.
func IsCanceled(o Outcome) bool {
	return o.Failure != nil && (o.Failure.Reason == ReasonCanceled || errors.Is(o.Failure.Err, context.Canceled))
}
