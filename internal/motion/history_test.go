package motion

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(seconds int) time.Time {
	return epoch.Add(time.Duration(seconds) * time.Second)
}

func TestPruneAndCountActive_Empty(t *testing.T) {
	h := NewHistory()

	if got := h.PruneAndCountActive(at(0), time.Minute); got != 0 {
		t.Errorf("PruneAndCountActive() = %d, want 0", got)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestPruneAndCountActive_CountsOnlyActive(t *testing.T) {
	h := NewHistory()
	h.Record(at(0), true)
	h.Record(at(1), false)
	h.Record(at(2), nil)
	h.Record(at(3), true)

	if got := h.PruneAndCountActive(at(4), time.Minute); got != 2 {
		t.Errorf("PruneAndCountActive() = %d, want 2", got)
	}
	if h.Len() != 4 {
		t.Errorf("Len() = %d, want 4", h.Len())
	}
}

func TestPruneAndCountActive_PrunesBeforeCounting(t *testing.T) {
	h := NewHistory()
	h.Record(at(0), true)
	h.Record(at(30), true)
	h.Record(at(50), false)

	// At t=61 the first observation is 61s old and must be dropped.
	if got := h.PruneAndCountActive(at(61), time.Minute); got != 1 {
		t.Errorf("PruneAndCountActive() = %d, want 1", got)
	}
	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}

	// At t=200 everything has aged out.
	if got := h.PruneAndCountActive(at(200), time.Minute); got != 0 {
		t.Errorf("PruneAndCountActive() = %d, want 0", got)
	}
	if h.Len() != 0 {
		t.Errorf("Len() = %d, want 0", h.Len())
	}
}

func TestPruneAndCountActive_WindowBoundaryIsInclusive(t *testing.T) {
	h := NewHistory()
	h.Record(at(0), true)

	if got := h.PruneAndCountActive(at(60), time.Minute); got != 1 {
		t.Errorf("PruneAndCountActive() at exactly window = %d, want 1", got)
	}
}

func TestPruneAndCountActive_RetainedWithinWindow(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 200; i += 7 {
		h.Record(at(i), i%2 == 0)
	}

	for _, now := range []int{0, 50, 100, 150, 199, 260} {
		window := 45 * time.Second
		h.PruneAndCountActive(at(now), window)
		for _, o := range h.Observations() {
			if age := at(now).Sub(o.At); age > window {
				t.Fatalf("observation at %v retained with age %v > window %v", o.At, age, window)
			}
		}
	}
}

func TestObservations_ReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Record(at(0), true)

	obs := h.Observations()
	obs[0].State = false

	if got := h.PruneAndCountActive(at(1), time.Minute); got != 1 {
		t.Errorf("PruneAndCountActive() = %d after mutating copy, want 1", got)
	}
}

func TestActive(t *testing.T) {
	tests := []struct {
		name  string
		state any
		want  bool
	}{
		{name: "nil", state: nil, want: false},
		{name: "true", state: true, want: true},
		{name: "false", state: false, want: false},
		{name: "zero", state: float64(0), want: false},
		{name: "one", state: float64(1), want: true},
		{name: "int one", state: 1, want: true},
		{name: "empty string", state: "", want: false},
		{name: "string", state: "on", want: true},
		{name: "empty array", state: []any{}, want: false},
		{name: "array", state: []any{true}, want: true},
		{name: "empty object", state: map[string]any{}, want: false},
		{name: "object", state: map[string]any{"x": 1}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Active(tt.state); got != tt.want {
				t.Errorf("Active(%v) = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}
