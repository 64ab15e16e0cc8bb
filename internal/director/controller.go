// Package director routes device messages into the lamp policy and publishes
// the resulting commands.
//
// A Controller owns all mutable state for one device: the latest illuminance
// reading, the motion history and the last published command. Inbound
// messages (from the MQTT callback goroutine) and periodic ticks (from Run)
// are serialised by a single mutex, so each evaluation sees a consistent view
// and commands leave in the same order as the decisions that produced them.
package director

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/lampdirector/internal/lamp"
	"github.com/nerrad567/lampdirector/internal/motion"
	"github.com/nerrad567/lampdirector/internal/topic"
)

// Default sub-device selectors.
const (
	DefaultMotionSelector      = 5
	DefaultLEDSelector         = 6
	DefaultIlluminanceSelector = 8
)

// DefaultTickInterval is how often Run re-evaluates without new messages.
const DefaultTickInterval = time.Second

// Logger is the logging interface used by the controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher sends a payload to a topic. Implementations should not wait for
// broker acknowledgement; the controller calls Publish with its lock held.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(topic string, payload []byte) error

// Publish calls f(topic, payload).
func (f PublisherFunc) Publish(topic string, payload []byte) error {
	return f(topic, payload)
}

// Selectors identify the sub-devices on the controlled device.
type Selectors struct {
	Motion      int
	LED         int
	Illuminance int
}

// DefaultSelectors returns the stock desk lamp layout: PIR 5, LED 6, LDR 8.
func DefaultSelectors() Selectors {
	return Selectors{
		Motion:      DefaultMotionSelector,
		LED:         DefaultLEDSelector,
		Illuminance: DefaultIlluminanceSelector,
	}
}

// Options configures a Controller.
type Options struct {
	// DeviceID is the identity of the controlled device. Required.
	DeviceID string

	// Selectors defaults to DefaultSelectors when all three are zero. A
	// partially set value is used as given.
	Selectors Selectors

	// Policy defaults to lamp.DefaultPolicy when zero.
	Policy lamp.Policy

	// SuppressRepeats skips publishing a command equal to the last one sent.
	SuppressRepeats bool

	// TickInterval defaults to DefaultTickInterval.
	TickInterval time.Duration

	// Publisher sends requests to the device. Required.
	Publisher Publisher

	// Observer receives notifications; may be nil.
	Observer Observer

	// Logger may be nil.
	Logger Logger

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

// Counters are running totals since the controller was created.
type Counters struct {
	Messages      uint64 `json:"messages"`
	Dropped       uint64 `json:"dropped"`
	DecodeErrors  uint64 `json:"decode_errors"`
	ReadRequests  uint64 `json:"read_requests"`
	Evaluations   uint64 `json:"evaluations"`
	Commands      uint64 `json:"commands"`
	Suppressed    uint64 `json:"suppressed"`
	PublishErrors uint64 `json:"publish_errors"`
}

// Snapshot is a point-in-time copy of controller state.
type Snapshot struct {
	DeviceID       string        `json:"device_id"`
	Illuminance    *float64      `json:"illuminance"`
	Observations   int           `json:"observations"`
	LastEvaluation *Evaluation   `json:"last_evaluation,omitempty"`
	LastCommand    *lamp.Command `json:"last_command,omitempty"`
	LastCommandAt  *time.Time    `json:"last_command_at,omitempty"`
	Counters       Counters      `json:"counters"`
}

// Controller turns device messages and ticks into lamp commands.
//
// Thread Safety: all methods are safe for concurrent use.
type Controller struct {
	deviceID        string
	requestTopic    string
	selectors       Selectors
	policy          lamp.Policy
	suppressRepeats bool
	tickInterval    time.Duration
	publisher       Publisher
	observer        Observer
	logger          Logger
	now             func() time.Time

	mu             sync.Mutex
	illuminance    *float64
	history        *motion.History
	lastEvaluation *Evaluation
	lastCommand    *lamp.Command
	lastCommandAt  time.Time
	counters       Counters
}

// New creates a controller.
//
// Returns:
//   - *Controller: Ready to receive messages
//   - error: ErrNoDeviceID, ErrNoPublisher or ErrInvalidPolicy
func New(opts Options) (*Controller, error) {
	if opts.DeviceID == "" {
		return nil, ErrNoDeviceID
	}
	if opts.Publisher == nil {
		return nil, ErrNoPublisher
	}
	if opts.Selectors == (Selectors{}) {
		opts.Selectors = DefaultSelectors()
	}
	if opts.Policy == (lamp.Policy{}) {
		opts.Policy = lamp.DefaultPolicy()
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Policy.Window <= 0 || opts.TickInterval <= 0 {
		return nil, fmt.Errorf("%w: window %v, tick %v", ErrInvalidPolicy, opts.Policy.Window, opts.TickInterval)
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		deviceID:        opts.DeviceID,
		requestTopic:    topic.Request(opts.DeviceID),
		selectors:       opts.Selectors,
		policy:          opts.Policy,
		suppressRepeats: opts.SuppressRepeats,
		tickInterval:    opts.TickInterval,
		publisher:       opts.Publisher,
		observer:        opts.Observer,
		logger:          opts.Logger,
		now:             opts.Now,
		history:         motion.NewHistory(),
	}, nil
}

// DeviceID returns the controlled device identity.
func (c *Controller) DeviceID() string {
	return c.deviceID
}

// SubscriptionTopic returns the pattern the controller expects to be fed from.
func (c *Controller) SubscriptionTopic() string {
	return topic.Wildcard()
}

// HandleMessage processes one inbound message. Its signature matches
// mqtt.MessageHandler.
//
// Topics that do not belong to the device are dropped silently and return
// nil. A payload that cannot be decoded returns an error wrapping
// lamp.ErrInvalidPayload and leaves all state untouched.
func (c *Controller) HandleMessage(topicName string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := topic.Parse(topicName, c.deviceID)
	if !ok {
		c.counters.Dropped++
		c.observer.MessageDropped(topicName)
		return nil
	}

	c.counters.Messages++
	c.observer.MessageReceived(t.Class)

	now := c.now()

	switch {
	case t.Class == topic.ClassResponse:
		return c.handleResponse(now, t, payload)
	case t.Is(topic.ClassUpdate, c.selectors.Motion):
		return c.handleMotion(now, t, payload)
	default:
		return nil
	}
}

// handleResponse caches a numeric reading and re-evaluates. Must hold c.mu.
func (c *Controller) handleResponse(now time.Time, t topic.Topic, payload []byte) error {
	obj, err := lamp.DecodePayload(payload)
	if err != nil {
		return c.decodeFailed(t, err)
	}

	value, ok, err := lamp.NumberField(obj, lamp.FieldValue)
	if err != nil {
		return c.decodeFailed(t, fmt.Errorf("%w: %w", lamp.ErrInvalidPayload, err))
	}
	if !ok {
		return nil
	}

	c.illuminance = &value
	c.observer.IlluminanceObserved(now, value)
	c.logger.Debug("illuminance updated", "device_id", c.deviceID, "value", value)

	c.evaluate(now, TriggerIlluminance)
	return nil
}

// handleMotion asks for a fresh reading, records the update and re-evaluates.
// Must hold c.mu.
func (c *Controller) handleMotion(now time.Time, t topic.Topic, payload []byte) error {
	obj, err := lamp.DecodePayload(payload)
	if err != nil {
		return c.decodeFailed(t, err)
	}
	state := obj[lamp.FieldState]

	c.requestIlluminance(now)

	c.history.Record(now, state)
	c.observer.MotionObserved(now, state, motion.Active(state))

	c.evaluate(now, TriggerMotion)
	return nil
}

func (c *Controller) decodeFailed(t topic.Topic, err error) error {
	c.counters.DecodeErrors++
	c.observer.DecodeFailed(t.Class, err)
	return fmt.Errorf("decoding %s payload: %w", t.Class, err)
}

// requestIlluminance publishes a read request for the illuminance sensor.
// Must hold c.mu.
func (c *Controller) requestIlluminance(now time.Time) {
	payload, err := lamp.EncodeReadRequest(c.selectors.Illuminance)
	if err == nil {
		err = c.publisher.Publish(c.requestTopic, payload)
	}
	if err != nil {
		c.counters.PublishErrors++
		c.logger.Warn("illuminance read request failed", "device_id", c.deviceID, "error", err)
	} else {
		c.counters.ReadRequests++
	}
	c.observer.ReadRequested(now, err)
}

// Tick re-evaluates the policy with cached state. It is what turns the lamp
// off once motion ages out and no further messages arrive.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evaluate(c.now(), TriggerTick)
}

// Run calls Tick every tick interval until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// evaluate runs the policy and publishes the outcome. Must hold c.mu.
func (c *Controller) evaluate(now time.Time, trigger Trigger) {
	d := c.policy.Decide(now, c.illuminance, c.history)

	ev := Evaluation{
		At:           now,
		Trigger:      trigger,
		ActiveMotion: d.ActiveMotion,
		Illuminance:  copyFloat(c.illuminance),
		Reason:       d.Reason,
		HasCommand:   d.HasCommand,
		Command:      d.Command,
	}
	c.counters.Evaluations++

	if d.HasCommand {
		if c.suppressRepeats && c.lastCommand != nil && *c.lastCommand == d.Command {
			ev.Suppressed = true
			c.counters.Suppressed++
		} else {
			c.publishCommand(&ev)
		}
	}

	c.lastEvaluation = &ev
	c.observer.Evaluated(ev)
}

// publishCommand sends ev.Command to the LED strip. Must hold c.mu.
func (c *Controller) publishCommand(ev *Evaluation) {
	payload, err := lamp.EncodeSetRequest(c.selectors.LED, ev.Command)
	if err == nil {
		err = c.publisher.Publish(c.requestTopic, payload)
	}
	if err != nil {
		ev.Err = err
		c.counters.PublishErrors++
		c.logger.Warn("lamp command publish failed",
			"device_id", c.deviceID,
			"command", ev.Command.String(),
			"error", err,
		)
		return
	}

	ev.Published = true
	cmd := ev.Command
	c.lastCommand = &cmd
	c.lastCommandAt = ev.At
	c.counters.Commands++
}

// Snapshot returns a copy of the current state. It does not prune the
// motion history, so Observations may include entries that the next
// evaluation will drop.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		DeviceID:     c.deviceID,
		Illuminance:  copyFloat(c.illuminance),
		Observations: c.history.Len(),
		Counters:     c.counters,
	}
	if c.lastEvaluation != nil {
		ev := *c.lastEvaluation
		ev.Illuminance = copyFloat(ev.Illuminance)
		s.LastEvaluation = &ev
	}
	if c.lastCommand != nil {
		cmd := *c.lastCommand
		at := c.lastCommandAt
		s.LastCommand = &cmd
		s.LastCommandAt = &at
	}
	return s
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
