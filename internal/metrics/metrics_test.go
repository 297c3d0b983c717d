package metrics

import (
	"strings"
	"testing"
	"time"
)

func find(t *testing.T, samples []Sample, path string) Sample {
	t.Helper()
	for _, s := range samples {
		if s.Path == path {
			return s
		}
	}
	t.Fatalf("no sample at %s", path)
	return Sample{}
}

func TestObserve(t *testing.T) {
	r := New()
	r.Observe("llm/openai/o3/attempt", 2*time.Second)
	r.Observe("llm/openai/o3/attempt", 4*time.Second)

	if got := r.Total("llm/openai/o3/attempt"); got != 6*time.Second {
		t.Errorf("Total = %v, want 6s", got)
	}
	s := find(t, r.Snapshot(), "llm/openai/o3/attempt")
	if s.Kind != KindTiming || s.Timing.Count != 2 || s.Timing.Min != 2*time.Second || s.Timing.Max != 4*time.Second {
		t.Errorf("timing = %+v", s.Timing)
	}
	if got := s.Timing.Avg(); got != 3*time.Second {
		t.Errorf("Avg = %v, want 3s", got)
	}
	if got := (Timing{}).Avg(); got != 0 {
		t.Errorf("empty Avg = %v, want 0", got)
	}
}

func TestCounters(t *testing.T) {
	r := New()
	if got := r.Counter("x/y"); got != 0 {
		t.Errorf("untouched counter = %d, want 0", got)
	}
	r.Add("x/y", 1)
	r.Add("x/y", 2)
	if got := r.Counter("x/y"); got != 3 {
		t.Errorf("Counter = %d, want 3", got)
	}
}

func TestOutcomeReasons(t *testing.T) {
	r := New()
	path := Key("llm/claude/sonnet", "request_status")
	r.Succeed(path)
	r.Fail(path, "timeout")
	r.Fail(path, "timeout")
	r.Fail(path, "")

	var o OutcomeStats = find(t, r.Snapshot(), path).Outcome
	if o.Success != 1 || o.Failures != 3 {
		t.Errorf("success/failures = %d/%d, want 1/3", o.Success, o.Failures)
	}
	if o.Reasons["timeout"] != 2 || len(o.Reasons) != 1 {
		t.Errorf("reasons = %v, want timeout=2 only", o.Reasons)
	}
	if o.Rate() != 25 {
		t.Errorf("Rate = %v, want 25", o.Rate())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New()
	r.Fail("a", "x")
	snap := r.Snapshot()
	snap[0].Outcome.Reasons["x"] = 99
	if got := r.Snapshot()[0].Outcome.Reasons["x"]; got != 1 {
		t.Errorf("snapshot aliases registry state: x = %d", got)
	}
}

func TestFormatAndReset(t *testing.T) {
	r := New()
	r.Add("llm/groq/8b/attempts", 2)
	r.Fail("llm/groq/8b/attempt_status", "rate_limited")
	r.Observe("llm/groq/8b/wait", 1500*time.Millisecond)

	out := Format(r.Snapshot())
	for _, want := range []string{"llm/groq/8b/attempts 2", "fail=1 rate_limited=1", "llm/groq/8b/wait count=1 avg=1.5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format missing %q:\n%s", want, out)
		}
	}
	if i, j := strings.Index(out, "attempt_status"), strings.Index(out, "/wait"); i > j {
		t.Errorf("Format not sorted by path:\n%s", out)
	}

	r.Reset()
	if len(r.Snapshot()) != 0 {
		t.Error("Reset left metrics behind")
	}
}

func TestHelpersUseDefault(t *testing.T) {
	Default().Reset()
	MetricInc("t", "n")
	MetricAdd("t", "n", 4)
	MetricDuration("t", "d", time.Second)
	MetricSuccess("t", "s")
	MetricFailWithReason("t", "s", "boom")

	if got := Default().Counter("t/n"); got != 5 {
		t.Errorf("counter = %d, want 5", got)
	}
	if got := Default().Total("t/d"); got != time.Second {
		t.Errorf("timing = %v, want 1s", got)
	}
	o := find(t, Default().Snapshot(), "t/s").Outcome
	if o.Success != 1 || o.Reasons["boom"] != 1 {
		t.Errorf("outcome = %+v", o)
	}
	Default().Reset()
}
