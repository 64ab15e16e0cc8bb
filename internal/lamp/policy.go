// Package lamp decides what the LED strip should do and encodes the
// messages sent to the device.
//
// The policy is deliberately small:
//
//   - no recent motion            -> all channels off
//   - motion and it is dark       -> all channels at a fixed mid brightness
//   - motion, not dark or unknown -> leave the strip alone
//
// The strip is never turned off because it got bright again while motion is
// still active; it only turns off once motion has aged out of the window.
package lamp

import (
	"time"

	"github.com/nerrad567/lampdirector/internal/motion"
)

// Policy defaults.
const (
	// DefaultWindow is how long a motion observation counts as recent.
	DefaultWindow = 60 * time.Second

	// DefaultDarkThreshold is the illuminance below which the room is dark.
	DefaultDarkThreshold = 200.0

	// DefaultBrightness is the level used for every channel when turning on.
	DefaultBrightness = 128
)

// Reason explains why a decision was taken.
type Reason string

// Decision reasons.
const (
	ReasonNoMotion           Reason = "no_motion"
	ReasonDark               Reason = "dark"
	ReasonNotDark            Reason = "not_dark"
	ReasonIlluminanceUnknown Reason = "illuminance_unknown"
)

// Decision is the outcome of one policy evaluation.
type Decision struct {
	// Command is the command to publish. Only valid when HasCommand is true.
	Command Command

	// HasCommand is false for the deliberate no-op branch.
	HasCommand bool

	// ActiveMotion is the number of recent observations reporting motion.
	ActiveMotion int

	// Reason names the branch taken.
	Reason Reason
}

// Policy maps current illuminance and motion history to a command.
//
// A Policy holds only configuration; Decide has no side effects beyond the
// pruning it asks the history to do.
type Policy struct {
	// Window is the sliding motion window.
	Window time.Duration

	// DarkThreshold is compared strictly: a reading equal to it is not dark.
	DarkThreshold float64

	// On is the command sent when there is motion in the dark.
	On Command
}

// DefaultPolicy returns the reference policy: 60s window, threshold 200,
// mid brightness 128 on every channel.
func DefaultPolicy() Policy {
	return Policy{
		Window:        DefaultWindow,
		DarkThreshold: DefaultDarkThreshold,
		On:            Uniform(DefaultBrightness),
	}
}

// Decide evaluates the policy at now.
//
// Parameters:
//   - now: Evaluation time, used to prune the history
//   - illuminance: Latest reading, nil until the first response arrives
//   - history: Motion history; pruned to the window before counting
//
// Returns:
//   - Decision: Command to publish, or HasCommand=false to leave the strip alone
func (p Policy) Decide(now time.Time, illuminance *float64, history *motion.History) Decision {
	active := history.PruneAndCountActive(now, p.Window)

	switch {
	case active == 0:
		return Decision{Command: Off(), HasCommand: true, ActiveMotion: active, Reason: ReasonNoMotion}
	case illuminance == nil:
		return Decision{ActiveMotion: active, Reason: ReasonIlluminanceUnknown}
	case *illuminance < p.DarkThreshold:
		return Decision{Command: p.On, HasCommand: true, ActiveMotion: active, Reason: ReasonDark}
	default:
		return Decision{ActiveMotion: active, Reason: ReasonNotDark}
	}
}
