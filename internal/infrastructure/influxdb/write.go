package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementIlluminance = "illuminance"
	MeasurementMotion      = "motion"
	MeasurementCommand     = "lamp_command"
)

// WriteIlluminance records an illuminance reading.
//
// Point: illuminance,device_id=<id> value=<lux>
func (c *Client) WriteIlluminance(deviceID string, value float64, at time.Time) {
	c.writePoint(MeasurementIlluminance,
		map[string]string{"device_id": deviceID},
		map[string]any{"value": value},
		at,
	)
}

// WriteMotion records a motion sensor update.
//
// Point: motion,device_id=<id> active=<bool>
func (c *Client) WriteMotion(deviceID string, active bool, at time.Time) {
	c.writePoint(MeasurementMotion,
		map[string]string{"device_id": deviceID},
		map[string]any{"active": active},
		at,
	)
}

// WriteCommand records a command sent to the LED strip.
//
// Point: lamp_command,device_id=<id>,reason=<reason> r=<r>,g=<g>,b=<b>
func (c *Client) WriteCommand(deviceID, reason string, r, g, b uint8, at time.Time) {
	c.writePoint(MeasurementCommand,
		map[string]string{"device_id": deviceID, "reason": reason},
		map[string]any{"r": int64(r), "g": int64(g), "b": int64(b)},
		at,
	)
}

// writePoint queues one point. It never blocks; points are discarded when
// the client is closed or its queue is full.
func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]any, at time.Time) {
	c.enqueue(write.NewPoint(measurement, tags, fields, at))
}
