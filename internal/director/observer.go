package director

import (
	"time"

	"github.com/nerrad567/lampdirector/internal/lamp"
)

// Trigger names what caused an evaluation.
type Trigger string

// Evaluation triggers.
const (
	TriggerIlluminance Trigger = "illuminance"
	TriggerMotion      Trigger = "motion"
	TriggerTick        Trigger = "tick"
)

// Evaluation records one policy run and what the controller did with it.
type Evaluation struct {
	At           time.Time    `json:"at"`
	Trigger      Trigger      `json:"trigger"`
	ActiveMotion int          `json:"active_motion"`
	Illuminance  *float64     `json:"illuminance"`
	Reason       lamp.Reason  `json:"reason"`
	HasCommand   bool         `json:"has_command"`
	Command      lamp.Command `json:"command"`

	// Published is true once the command was handed to the publisher.
	Published bool `json:"published"`

	// Suppressed is true when repeat suppression skipped an identical command.
	Suppressed bool `json:"suppressed"`

	// Err is the publish error, if any.
	Err error `json:"-"`
}

// Observer receives notifications about everything the controller sees and
// does. Calls are made while the controller lock is held, so implementations
// must return quickly and must not call back into the controller.
type Observer interface {
	// MessageReceived is called for every message addressed to the device.
	MessageReceived(class string)

	// MessageDropped is called for topics that do not belong to the device.
	MessageDropped(topic string)

	// DecodeFailed is called when a payload cannot be decoded.
	DecodeFailed(class string, err error)

	// IlluminanceObserved is called when a new reading is cached.
	IlluminanceObserved(at time.Time, value float64)

	// MotionObserved is called when a motion update is recorded.
	MotionObserved(at time.Time, state any, active bool)

	// ReadRequested is called after an illuminance read request is published.
	ReadRequested(at time.Time, err error)

	// Evaluated is called after every policy run.
	Evaluated(ev Evaluation)
}

// NopObserver implements Observer with no-ops. Embed it to implement only
// the callbacks you need.
type NopObserver struct{}

func (NopObserver) MessageReceived(string)                 {}
func (NopObserver) MessageDropped(string)                  {}
func (NopObserver) DecodeFailed(string, error)             {}
func (NopObserver) IlluminanceObserved(time.Time, float64) {}
func (NopObserver) MotionObserved(time.Time, any, bool)    {}
func (NopObserver) ReadRequested(time.Time, error)         {}
func (NopObserver) Evaluated(Evaluation)                   {}

// multiObserver fans notifications out in registration order.
type multiObserver []Observer

// Observers combines several observers into one. Nil entries are skipped.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m multiObserver) MessageReceived(class string) {
	for _, o := range m {
		o.MessageReceived(class)
	}
}

func (m multiObserver) MessageDropped(topic string) {
	for _, o := range m {
		o.MessageDropped(topic)
	}
}

func (m multiObserver) DecodeFailed(class string, err error) {
	for _, o := range m {
		o.DecodeFailed(class, err)
	}
}

func (m multiObserver) IlluminanceObserved(at time.Time, value float64) {
	for _, o := range m {
		o.IlluminanceObserved(at, value)
	}
}

func (m multiObserver) MotionObserved(at time.Time, state any, active bool) {
	for _, o := range m {
		o.MotionObserved(at, state, active)
	}
}

func (m multiObserver) ReadRequested(at time.Time, err error) {
	for _, o := range m {
		o.ReadRequested(at, err)
	}
}

func (m multiObserver) Evaluated(ev Evaluation) {
	for _, o := range m {
		o.Evaluated(ev)
	}
}
