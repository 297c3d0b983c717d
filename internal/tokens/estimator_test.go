package tokens

import "testing"

func TestApprox(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{"what is two plus two", 5},
	}
	for _, tt := range tests {
		if got := Approx(tt.in); got != tt.want {
			t.Errorf("Approx(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCountWithoutEncoding(t *testing.T) {
	var e *Estimator
	if got := e.Count("abcdefgh"); got != 2 {
		t.Errorf("nil estimator Count = %d, want 2", got)
	}
	if got := (&Estimator{}).Count(""); got != 0 {
		t.Errorf("empty Count = %d, want 0", got)
	}
}
