package llm

import "time"

// FallbackTimeout applies when a provider declares no timeouts at all.
const FallbackTimeout = 120 * time.Second

// TimeoutKey identifies a (model key, level name) cell of the matrix.
type TimeoutKey struct {
	Model string
	Level string
}

// TimeoutMatrix holds a provider's per-attempt deadlines.
type TimeoutMatrix struct {
	Entries       map[TimeoutKey]time.Duration
	ModelDefaults map[string]time.Duration
	Default       time.Duration
}

// Resolve picks the deadline for one attempt. Precedence: a positive override,
// the exact (model, level) entry, the model default, then the provider default.
func (m TimeoutMatrix) Resolve(model, level string, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if d, ok := m.Entries[TimeoutKey{Model: model, Level: level}]; ok && d > 0 {
		return d
	}
	if d, ok := m.ModelDefaults[model]; ok && d > 0 {
		return d
	}
	if m.Default > 0 {
		return m.Default
	}
	return FallbackTimeout
}

// Clone returns a deep copy so overrides never alias a built-in table.
func (m TimeoutMatrix) Clone() TimeoutMatrix {
	out := TimeoutMatrix{Default: m.Default}
	if m.Entries != nil {
		out.Entries = make(map[TimeoutKey]time.Duration, len(m.Entries))
		for k, v := range m.Entries {
			out.Entries[k] = v
		}
	}
	if m.ModelDefaults != nil {
		out.ModelDefaults = make(map[string]time.Duration, len(m.ModelDefaults))
		for k, v := range m.ModelDefaults {
			out.ModelDefaults[k] = v
		}
	}
	return out
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
