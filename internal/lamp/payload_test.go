package lamp

import (
	"errors"
	"testing"
)

func TestEncodeReadRequest(t *testing.T) {
	got, err := EncodeReadRequest(8)
	if err != nil {
		t.Fatalf("EncodeReadRequest() error = %v", err)
	}
	want := `{"select":8,"payload":{"read":{}}}`
	if string(got) != want {
		t.Errorf("EncodeReadRequest() = %s, want %s", got, want)
	}
}

func TestEncodeSetRequest(t *testing.T) {
	got, err := EncodeSetRequest(6, Uniform(128))
	if err != nil {
		t.Fatalf("EncodeSetRequest() error = %v", err)
	}
	want := `{"select":6,"payload":{"set":{"r":128,"g":128,"b":128}}}`
	if string(got) != want {
		t.Errorf("EncodeSetRequest() = %s, want %s", got, want)
	}

	got, err = EncodeSetRequest(6, Off())
	if err != nil {
		t.Fatalf("EncodeSetRequest() error = %v", err)
	}
	want = `{"select":6,"payload":{"set":{"r":0,"g":0,"b":0}}}`
	if string(got) != want {
		t.Errorf("EncodeSetRequest() = %s, want %s", got, want)
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		wantErr bool
		wantKey string
	}{
		{name: "object", raw: []byte(`{"value":42}`), wantKey: "value"},
		{name: "trailing NUL padding", raw: []byte("{\"state\":true}\x00\x00\x00"), wantKey: "state"},
		{name: "empty object", raw: []byte(`{}`)},
		{name: "malformed JSON", raw: []byte(`{"state":`), wantErr: true},
		{name: "array", raw: []byte(`[1,2]`), wantErr: true},
		{name: "null", raw: []byte(`null`), wantErr: true},
		{name: "number", raw: []byte(`5`), wantErr: true},
		{name: "empty", raw: []byte{}, wantErr: true},
		{name: "only NULs", raw: []byte{0, 0}, wantErr: true},
		{name: "invalid UTF-8", raw: []byte{'{', '"', 0xff, '"', ':', '1', '}'}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := DecodePayload(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodePayload() error = nil, want error")
				}
				if !errors.Is(err, ErrInvalidPayload) {
					t.Errorf("DecodePayload() error = %v, want ErrInvalidPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePayload() error = %v", err)
			}
			if tt.wantKey != "" {
				if _, ok := obj[tt.wantKey]; !ok {
					t.Errorf("DecodePayload() missing key %q in %v", tt.wantKey, obj)
				}
			}
		})
	}
}

func TestNumberField(t *testing.T) {
	obj := map[string]any{
		"value":  float64(150),
		"null":   nil,
		"string": "dark",
	}

	v, ok, err := NumberField(obj, "value")
	if err != nil || !ok || v != 150 {
		t.Errorf("NumberField(value) = %v, %v, %v, want 150, true, nil", v, ok, err)
	}

	_, ok, err = NumberField(obj, "missing")
	if err != nil || ok {
		t.Errorf("NumberField(missing) ok = %v, err = %v, want false, nil", ok, err)
	}

	_, ok, err = NumberField(obj, "null")
	if err != nil || ok {
		t.Errorf("NumberField(null) ok = %v, err = %v, want false, nil", ok, err)
	}

	_, _, err = NumberField(obj, "string")
	if !errors.Is(err, ErrInvalidField) {
		t.Errorf("NumberField(string) error = %v, want ErrInvalidField", err)
	}
}
