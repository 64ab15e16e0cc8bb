package lamp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Payload field names.
const (
	// FieldValue carries an illuminance reading in a response payload.
	FieldValue = "value"

	// FieldState carries the motion sensor state in an update payload.
	FieldState = "state"
)

// request is the envelope for every message sent to the device.
type request struct {
	Select  int `json:"select"`
	Payload any `json:"payload"`
}

type readBody struct {
	Read struct{} `json:"read"`
}

type setBody struct {
	Set Command `json:"set"`
}

// EncodeReadRequest builds a read request for a sensor sub-device.
//
// Shape: {"select": <selector>, "payload": {"read": {}}}
func EncodeReadRequest(selector int) ([]byte, error) {
	b, err := json.Marshal(request{Select: selector, Payload: readBody{}})
	if err != nil {
		return nil, fmt.Errorf("encoding read request: %w", err)
	}
	return b, nil
}

// EncodeSetRequest builds a set command for the LED strip sub-device.
//
// Shape: {"select": <selector>, "payload": {"set": {"r": R, "g": G, "b": B}}}
func EncodeSetRequest(selector int, cmd Command) ([]byte, error) {
	b, err := json.Marshal(request{Select: selector, Payload: setBody{Set: cmd}})
	if err != nil {
		return nil, fmt.Errorf("encoding set request: %w", err)
	}
	return b, nil
}

// DecodePayload decodes an inbound payload into a JSON object.
//
// Trailing NUL padding is stripped first. The remaining bytes must be valid
// UTF-8 and decode to a JSON object; anything else wraps ErrInvalidPayload.
func DecodePayload(raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimRight(raw, "\x00")
	if !utf8.Valid(trimmed) {
		return nil, fmt.Errorf("%w: not valid UTF-8", ErrInvalidPayload)
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidPayload)
	}
	return obj, nil
}

// NumberField reads a numeric field from a decoded payload.
//
// Returns:
//   - float64: The value, when present
//   - bool: false if the field is absent or null
//   - error: ErrInvalidField if the field is present but not a number
func NumberField(obj map[string]any, key string) (float64, bool, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, false, fmt.Errorf("%w: %s is %T, want number", ErrInvalidField, key, raw)
	}
	return v, true, nil
}
