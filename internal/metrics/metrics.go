// Package metrics keeps in-process counters and timings for one invocation.
// Paths are "topic/name", for example "llm/openai/o3/attempt".
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Kind tells which field of a Sample is populated.
type Kind string

const (
	KindTiming  Kind = "timing"
	KindCounter Kind = "counter"
	KindOutcome Kind = "outcome"
)

// Timing aggregates observed durations.
type Timing struct {
	Count int64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Avg is the mean observation, 0 when nothing was observed.
func (t Timing) Avg() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

// OutcomeStats counts successes and failures, failures bucketed by reason.
type OutcomeStats struct {
	Success  int64
	Failures int64
	Reasons  map[string]int64
}

// Rate is the success percentage.
func (o OutcomeStats) Rate() float64 {
	total := o.Success + o.Failures
	if total == 0 {
		return 0
	}
	return float64(o.Success) / float64(total) * 100
}

// Sample is one metric in a snapshot.
type Sample struct {
	Path    string
	Kind    Kind
	Timing  Timing
	Count   int64
	Outcome OutcomeStats
}

// Registry holds every metric behind one lock.
type Registry struct {
	mu       sync.Mutex
	timings  map[string]*Timing
	counters map[string]int64
	outcomes map[string]*OutcomeStats
}

var (
	shared     *Registry
	sharedOnce sync.Once
)

// Default returns the process-wide registry.
func Default() *Registry {
	sharedOnce.Do(func() {
		shared = New()
	})
	return shared
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Key joins a topic and a metric name into a path.
func Key(topic, name string) string {
	if name == "" {
		return topic
	}
	return topic + "/" + name
}

// Reset drops every metric.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timings = make(map[string]*Timing)
	r.counters = make(map[string]int64)
	r.outcomes = make(map[string]*OutcomeStats)
}

// Observe adds d to the timing at path.
func (r *Registry) Observe(path string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timings[path]
	if !ok {
		t = &Timing{Min: d, Max: d}
		r.timings[path] = t
	}
	t.Count++
	t.Total += d
	t.Min = min(t.Min, d)
	t.Max = max(t.Max, d)
}

// Add adds delta to the counter at path.
func (r *Registry) Add(path string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[path] += delta
}

// Succeed records a success at path.
func (r *Registry) Succeed(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcome(path).Success++
}

// Fail records a failure at path. An empty reason is counted but not bucketed.
func (r *Registry) Fail(path, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.outcome(path)
	o.Failures++
	if reason != "" {
		o.Reasons[reason]++
	}
}

// outcome must be called with r.mu held.
func (r *Registry) outcome(path string) *OutcomeStats {
	o, ok := r.outcomes[path]
	if !ok {
		o = &OutcomeStats{Reasons: make(map[string]int64)}
		r.outcomes[path] = o
	}
	return o
}

// Counter returns the counter at path, 0 if never touched.
func (r *Registry) Counter(path string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[path]
}

// Total returns the summed duration of the timing at path.
func (r *Registry) Total(path string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timings[path]; ok {
		return t.Total
	}
	return 0
}

// Snapshot copies every metric, sorted by path.
func (r *Registry) Snapshot() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	samples := make([]Sample, 0, len(r.timings)+len(r.counters)+len(r.outcomes))
	for p, t := range r.timings {
		samples = append(samples, Sample{Path: p, Kind: KindTiming, Timing: *t})
	}
	for p, n := range r.counters {
		samples = append(samples, Sample{Path: p, Kind: KindCounter, Count: n})
	}
	for p, o := range r.outcomes {
		reasons := make(map[string]int64, len(o.Reasons))
		for k, v := range o.Reasons {
			reasons[k] = v
		}
		samples = append(samples, Sample{
			Path:    p,
			Kind:    KindOutcome,
			Outcome: OutcomeStats{Success: o.Success, Failures: o.Failures, Reasons: reasons},
		})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Path < samples[j].Path })
	return samples
}

// Format renders samples one per line for verbose output.
func Format(samples []Sample) string {
	var sb strings.Builder
	for _, s := range samples {
		switch s.Kind {
		case KindTiming:
			fmt.Fprintf(&sb, "%s count=%d avg=%s max=%s\n", s.Path, s.Timing.Count,
				s.Timing.Avg().Round(time.Millisecond), s.Timing.Max.Round(time.Millisecond))
		case KindCounter:
			fmt.Fprintf(&sb, "%s %d\n", s.Path, s.Count)
		case KindOutcome:
			fmt.Fprintf(&sb, "%s ok=%d fail=%d", s.Path, s.Outcome.Success, s.Outcome.Failures)
			reasons := make([]string, 0, len(s.Outcome.Reasons))
			for reason := range s.Outcome.Reasons {
				reasons = append(reasons, reason)
			}
			sort.Strings(reasons)
			for _, reason := range reasons {
				fmt.Fprintf(&sb, " %s=%d", reason, s.Outcome.Reasons[reason])
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
