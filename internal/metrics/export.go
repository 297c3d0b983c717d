package metrics

import "time"

// Package-level helpers on the Default registry, meant for dot-import.

func MetricDuration(topic, name string, d time.Duration) {
	Default().Observe(Key(topic, name), d)
}

func MetricInc(topic, name string) {
	Default().Add(Key(topic, name), 1)
}

func MetricAdd(topic, name string, delta int64) {
	Default().Add(Key(topic, name), delta)
}

func MetricSuccess(topic, name string) {
	Default().Succeed(Key(topic, name))
}

func MetricFailWithReason(topic, name, reason string) {
	Default().Fail(Key(topic, name), reason)
}
