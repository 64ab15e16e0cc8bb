// Package topic builds and parses the device topic namespace.
//
// Device topics follow a flat scheme rooted at "dev":
//
//	dev/{class}/{device_id}[/{sub_device_id}]
//
// Classes seen on the bus are "request" (outbound, addressed to a device),
// "update" (inbound sensor state changes) and "response" (inbound sensor
// reads). The sub-device segment, when present, is a small integer selecting
// a sensor or actuator on the device.
//
// Everything here is pure; no state is shared between calls.
package topic

import (
	"strconv"
	"strings"
)

// Topic namespace constants. Case-sensitive.
const (
	// Separator splits topic segments.
	Separator = "/"

	// Root is the first segment of every device topic.
	Root = "dev"

	// ClassRequest addresses commands and read requests to a device.
	ClassRequest = "request"

	// ClassUpdate carries unsolicited sensor state changes.
	ClassUpdate = "update"

	// ClassResponse carries answers to read requests.
	ClassResponse = "response"
)

// minSegments is the smallest topic that can name a device: root/class/device.
const minSegments = 3

// Topic is a parsed device topic.
type Topic struct {
	// Root is always equal to the Root constant for a successful parse.
	Root string

	// Class is the free-form message class (update, response, ...).
	Class string

	// DeviceID is the device segment; equal to the configured identity.
	DeviceID string

	// SubDevice is the numeric sub-device id. Only meaningful when
	// HasSubDevice is true.
	SubDevice int

	// HasSubDevice reports whether a numeric fourth segment was present.
	HasSubDevice bool
}

// Join concatenates segments with the topic separator.
func Join(parts ...string) string {
	return strings.Join(parts, Separator)
}

// Request returns the topic used to address requests to a device.
//
// Example: dev/request/desk-lamp
func Request(deviceID string) string {
	return Join(Root, ClassRequest, deviceID)
}

// Wildcard returns the subscription pattern covering every device topic.
//
// Pattern: dev/#
func Wildcard() string {
	return Join(Root, "#")
}

// Parse splits a topic and checks it belongs to deviceID.
//
// It returns false when the topic has fewer than three segments, when the
// root is not "dev", or when the device segment differs from deviceID. A
// fourth segment that is not an integer is treated as absent rather than
// failing the parse.
func Parse(topic, deviceID string) (Topic, bool) {
	parts := strings.Split(topic, Separator)
	if len(parts) < minSegments {
		return Topic{}, false
	}
	if parts[0] != Root || parts[2] != deviceID {
		return Topic{}, false
	}

	t := Topic{
		Root:     parts[0],
		Class:    parts[1],
		DeviceID: parts[2],
	}

	if len(parts) > minSegments {
		if id, err := strconv.Atoi(parts[3]); err == nil {
			t.SubDevice = id
			t.HasSubDevice = true
		}
	}

	return t, true
}

// Is reports whether the topic carries the given class and sub-device.
func (t Topic) Is(class string, subDevice int) bool {
	return t.Class == class && t.HasSubDevice && t.SubDevice == subDevice
}
