package topic

import "testing"

func TestRequest(t *testing.T) {
	got := Request("desk-lamp")
	if got != "dev/request/desk-lamp" {
		t.Errorf("Request() = %q, want %q", got, "dev/request/desk-lamp")
	}
}

func TestWildcard(t *testing.T) {
	if got := Wildcard(); got != "dev/#" {
		t.Errorf("Wildcard() = %q, want %q", got, "dev/#")
	}
}

func TestParse(t *testing.T) {
	const device = "desk-lamp"

	tests := []struct {
		name   string
		topic  string
		wantOK bool
		want   Topic
	}{
		{
			name:   "update with sub-device",
			topic:  "dev/update/desk-lamp/5",
			wantOK: true,
			want:   Topic{Root: "dev", Class: "update", DeviceID: device, SubDevice: 5, HasSubDevice: true},
		},
		{
			name:   "response without sub-device",
			topic:  "dev/response/desk-lamp",
			wantOK: true,
			want:   Topic{Root: "dev", Class: "response", DeviceID: device},
		},
		{
			name:   "non-numeric sub-device is absent",
			topic:  "dev/update/desk-lamp/pir",
			wantOK: true,
			want:   Topic{Root: "dev", Class: "update", DeviceID: device},
		},
		{
			name:   "extra segments ignored",
			topic:  "dev/update/desk-lamp/8/extra",
			wantOK: true,
			want:   Topic{Root: "dev", Class: "update", DeviceID: device, SubDevice: 8, HasSubDevice: true},
		},
		{
			name:   "too few segments",
			topic:  "dev/update",
			wantOK: false,
		},
		{
			name:   "wrong root",
			topic:  "other/update/desk-lamp/5",
			wantOK: false,
		},
		{
			name:   "root is case-sensitive",
			topic:  "DEV/update/desk-lamp/5",
			wantOK: false,
		},
		{
			name:   "different device",
			topic:  "dev/update/kitchen/5",
			wantOK: false,
		},
		{
			name:   "empty topic",
			topic:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.topic, device)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.topic, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.topic, got, tt.want)
			}
		})
	}
}

func TestTopicIs(t *testing.T) {
	parsed, ok := Parse("dev/update/desk-lamp/5", "desk-lamp")
	if !ok {
		t.Fatal("Parse() ok = false, want true")
	}

	if !parsed.Is(ClassUpdate, 5) {
		t.Error("Is(update, 5) = false, want true")
	}
	if parsed.Is(ClassUpdate, 8) {
		t.Error("Is(update, 8) = true, want false")
	}
	if parsed.Is(ClassResponse, 5) {
		t.Error("Is(response, 5) = true, want false")
	}

	noSub, _ := Parse("dev/update/desk-lamp", "desk-lamp")
	if noSub.Is(ClassUpdate, 0) {
		t.Error("Is(update, 0) = true for topic without sub-device, want false")
	}
}
