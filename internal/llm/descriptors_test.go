package llm

import (
	"testing"
	"time"
)

func TestBuiltinsValidate(t *testing.T) {
	names := BuiltinNames()
	if len(names) != 7 {
		t.Fatalf("BuiltinNames() = %v, want 7 providers", names)
	}
	for _, name := range names {
		d := MustBuiltin(name)
		if err := d.Validate(); err != nil {
			t.Errorf("%s: Validate() = %v", name, err)
		}
		if d.Tool != name+"-cli" {
			t.Errorf("%s: Tool = %q", name, d.Tool)
		}
		if d.APIKeyEnv == "" {
			t.Errorf("%s: no API key variable", name)
		}
	}
}

func TestBuiltinUnknown(t *testing.T) {
	if _, err := Builtin("cohere"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestBuiltinReturnsFreshCopy(t *testing.T) {
	a := MustBuiltin(ProviderOpenAI)
	a.Models["o3"] = ModelSpec{ID: "changed"}
	if b := MustBuiltin(ProviderOpenAI); b.Models["o3"].ID != "o3" {
		t.Error("built-in descriptor shared state between calls")
	}
}

func TestBuiltinTimeouts(t *testing.T) {
	tests := []struct {
		provider, model, level string
		want                   time.Duration
	}{
		{ProviderClaude, "sonnet", "none", 90 * time.Second},
		{ProviderClaude, "sonnet", "high", 150 * time.Second},
		{ProviderClaude, "opus", "low", 210 * time.Second},
		{ProviderGemini, "pro", "max", 300 * time.Second},
		{ProviderOpenAI, "o3", "high", 300 * time.Second},
		{ProviderOpenAI, "o4mini", "low", 60 * time.Second},
		{ProviderDeepSeek, "reasoner", "high", 600 * time.Second},
		{ProviderGrok, "grok4", "", 120 * time.Second},
		{ProviderGroq, "8b", "", 30 * time.Second},
		{ProviderMistral, "small", "", 60 * time.Second},
	}
	for _, tt := range tests {
		d := MustBuiltin(tt.provider)
		if got := d.Timeouts.Resolve(tt.model, tt.level, 0); got != tt.want {
			t.Errorf("%s Resolve(%s, %s) = %v, want %v", tt.provider, tt.model, tt.level, got, tt.want)
		}
	}
}

func TestBuiltinLadders(t *testing.T) {
	tests := []struct {
		provider string
		want     []string
	}{
		{ProviderClaude, []string{"high", "medium", "low", "none"}},
		{ProviderGemini, []string{"max", "high", "medium", "low", "minimal"}},
		{ProviderOpenAI, []string{"high", "medium", "low"}},
		{ProviderGrok, []string{"high", "low"}},
		{ProviderGroq, []string{}},
	}
	for _, tt := range tests {
		d := MustBuiltin(tt.provider)
		got := d.LevelNames()
		if len(got) != len(tt.want) {
			t.Errorf("%s levels = %v, want %v", tt.provider, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s levels = %v, want %v", tt.provider, got, tt.want)
				break
			}
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProviderDescriptor)
	}{
		{"no name", func(d *ProviderDescriptor) { d.Name = "" }},
		{"bad driver", func(d *ProviderDescriptor) { d.Driver = "cohere" }},
		{"default model missing", func(d *ProviderDescriptor) { d.DefaultModel = "gpt9" }},
		{"model without id", func(d *ProviderDescriptor) { d.Models["o3"] = ModelSpec{} }},
		{"default level missing", func(d *ProviderDescriptor) { d.DefaultLevel = "ultra" }},
		{"duplicate level", func(d *ProviderDescriptor) { d.Levels = append(d.Levels, QualityLevel{Name: "high"}) }},
	}
	for _, tt := range tests {
		d := MustBuiltin(ProviderOpenAI)
		tt.mutate(&d)
		if err := d.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", tt.name)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	d := MustBuiltin(ProviderClaude)
	c := d.Clone()
	c.Models["sonnet"] = ModelSpec{ID: "x"}
	c.Levels[0].Budget = 1
	*c.DefaultTemperature = 0.1
	c.Timeouts.ModelDefaults["sonnet"] = time.Second
	if d.Models["sonnet"].ID == "x" || d.Levels[0].Budget == 1 || *d.DefaultTemperature != 1.0 || d.Timeouts.ModelDefaults["sonnet"] == time.Second {
		t.Error("Clone shares state with the original")
	}
}
