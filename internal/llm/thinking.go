package llm

import (
	"github.com/roelfdiedericks/xai-go"
)

// QualityLevel is one rung of a provider's quality ladder.
// Budget is a thinking-token budget, Effort a reasoning-effort token. A provider
// reads whichever it understands. Off means the level disables extended reasoning.
type QualityLevel struct {
	Name   string `toml:"name" yaml:"name"`
	Budget int    `toml:"budget" yaml:"budget"`
	Effort string `toml:"effort" yaml:"effort"`
	Off    bool   `toml:"off" yaml:"off"`
}

// EffortOrName returns the effort token, falling back to the level name.
func (q QualityLevel) EffortOrName() string {
	if q.Effort != "" {
		return q.Effort
	}
	return q.Name
}

// XAIEffort maps the level to xAI's ReasoningEffort. Returns nil when off.
// xAI only knows low and high, so anything between rounds up.
func (q QualityLevel) XAIEffort() *xai.ReasoningEffort {
	if q.Off {
		return nil
	}
	switch q.EffortOrName() {
	case "low", "minimal":
		effort := xai.ReasoningEffortLow
		return &effort
	case "":
		return nil
	default:
		effort := xai.ReasoningEffortHigh
		return &effort
	}
}

// Ladder is an ordered list of quality levels, highest effort first, with a
// cursor that only moves towards the floor.
type Ladder struct {
	levels []QualityLevel
	cursor int
}

// NewLadder places the cursor at start. An unknown start lands on the middle rung.
func NewLadder(levels []QualityLevel, start string) *Ladder {
	l := &Ladder{levels: append([]QualityLevel(nil), levels...)}
	if len(l.levels) == 0 {
		return l
	}
	for i, lvl := range l.levels {
		if lvl.Name == start {
			l.cursor = i
			return l
		}
	}
	l.cursor = (len(l.levels) - 1) / 2
	return l
}

// Current returns the level under the cursor, or the zero level for an empty ladder.
func (l *Ladder) Current() QualityLevel {
	if len(l.levels) == 0 {
		return QualityLevel{}
	}
	return l.levels[l.cursor]
}

// Degrade moves the cursor one rung down. It reports whether the cursor moved;
// at the floor it stays put and returns false.
func (l *Ladder) Degrade() (QualityLevel, bool) {
	if l.AtFloor() {
		return l.Current(), false
	}
	l.cursor++
	return l.levels[l.cursor], true
}

// AtFloor reports whether the cursor is on the lowest rung.
func (l *Ladder) AtFloor() bool {
	return len(l.levels) == 0 || l.cursor == len(l.levels)-1
}

// Empty reports whether the provider has no quality control at all.
func (l *Ladder) Empty() bool {
	return len(l.levels) == 0
}

// Index returns the cursor position.
func (l *Ladder) Index() int {
	return l.cursor
}

// Names lists level names in ladder order.
func (l *Ladder) Names() []string {
	names := make([]string, len(l.levels))
	for i, lvl := range l.levels {
		names[i] = lvl.Name
	}
	return names
}
