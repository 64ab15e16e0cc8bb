package influxdb

import (
	"time"

	"github.com/nerrad567/lampdirector/internal/director"
)

// telemetryWriter is the subset of Client used by Observer.
type telemetryWriter interface {
	WriteIlluminance(deviceID string, value float64, at time.Time)
	WriteMotion(deviceID string, active bool, at time.Time)
	WriteCommand(deviceID, reason string, r, g, b uint8, at time.Time)
}

// Observer records controller activity as telemetry points.
type Observer struct {
	director.NopObserver

	writer   telemetryWriter
	deviceID string
}

// NewObserver returns a director.Observer writing to client.
func NewObserver(client *Client, deviceID string) *Observer {
	return newObserver(client, deviceID)
}

func newObserver(w telemetryWriter, deviceID string) *Observer {
	return &Observer{writer: w, deviceID: deviceID}
}

// IlluminanceObserved writes an illuminance point.
func (o *Observer) IlluminanceObserved(at time.Time, value float64) {
	o.writer.WriteIlluminance(o.deviceID, value, at)
}

// MotionObserved writes a motion point.
func (o *Observer) MotionObserved(at time.Time, _ any, active bool) {
	o.writer.WriteMotion(o.deviceID, active, at)
}

// Evaluated writes a command point for every command actually published.
func (o *Observer) Evaluated(ev director.Evaluation) {
	if !ev.Published {
		return
	}
	o.writer.WriteCommand(o.deviceID, string(ev.Reason), ev.Command.R, ev.Command.G, ev.Command.B, ev.At)
}
