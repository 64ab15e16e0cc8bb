// Package motion keeps a short, time-pruned record of motion sensor updates.
//
// The history is append-only: observations are never mutated, only dropped
// once they fall out of the sliding window. Pruning is lazy and happens as
// part of PruneAndCountActive, so a caller that evaluates on every update and
// on a periodic tick keeps the slice bounded without a separate timer.
//
// Thread Safety: History is not safe for concurrent use. The owner is
// expected to serialise access (the director holds a mutex around every
// evaluation).
package motion

import "time"

// Observation is a single motion sensor update.
type Observation struct {
	// At is when the update was received.
	At time.Time

	// State is the decoded "state" field of the update payload, passed
	// through as-is. A missing field is recorded as nil.
	State any
}

// History is an ordered sequence of observations, oldest first.
type History struct {
	observations []Observation
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// Record appends an observation. No deduplication or validation is done.
func (h *History) Record(at time.Time, state any) {
	h.observations = append(h.observations, Observation{At: at, State: state})
}

// PruneAndCountActive drops every observation older than now-window and
// returns how many of the remaining observations report motion.
//
// Pruning always happens before counting so stale motion never counts as
// recent. An empty history yields 0.
func (h *History) PruneAndCountActive(now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)

	kept := h.observations[:0]
	for _, o := range h.observations {
		if !o.At.Before(cutoff) {
			kept = append(kept, o)
		}
	}
	// Clear the tail so dropped states can be collected.
	for i := len(kept); i < len(h.observations); i++ {
		h.observations[i] = Observation{}
	}
	h.observations = kept

	active := 0
	for _, o := range h.observations {
		if Active(o.State) {
			active++
		}
	}
	return active
}

// Len returns the number of retained observations.
func (h *History) Len() int {
	return len(h.observations)
}

// Observations returns a copy of the retained observations, oldest first.
func (h *History) Observations() []Observation {
	out := make([]Observation, len(h.observations))
	copy(out, h.observations)
	return out
}

// Active reports whether a decoded state value means "moved".
//
// nil, false, zero numbers, empty strings and empty arrays or objects are
// inactive; every other value is active.
func Active(state any) bool {
	switch v := state.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
