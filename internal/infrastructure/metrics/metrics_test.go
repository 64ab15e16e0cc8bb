package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/lampdirector/internal/director"
	"github.com/nerrad567/lampdirector/internal/lamp"
)

var _ director.Observer = (*Metrics)(nil)

func TestMessageCounters(t *testing.T) {
	m := New()

	m.MessageReceived("update")
	m.MessageReceived("update")
	m.MessageReceived("response")
	m.MessageDropped("dev/update/kitchen/5")
	m.DecodeFailed("response", errors.New("bad json"))

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"update messages", testutil.ToFloat64(m.messages.WithLabelValues("update")), 2},
		{"response messages", testutil.ToFloat64(m.messages.WithLabelValues("response")), 1},
		{"dropped", testutil.ToFloat64(m.dropped), 1},
		{"decode errors", testutil.ToFloat64(m.decodeErrors.WithLabelValues("response")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestReadRequested(t *testing.T) {
	m := New()
	now := time.Now()

	m.ReadRequested(now, nil)
	m.ReadRequested(now, errors.New("not connected"))
	m.ReadRequested(now, nil)

	if got := testutil.ToFloat64(m.readRequests.WithLabelValues("ok")); got != 2 {
		t.Errorf("read_requests{ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.readRequests.WithLabelValues("error")); got != 1 {
		t.Errorf("read_requests{error} = %v, want 1", got)
	}
}

func TestEvaluated(t *testing.T) {
	m := New()

	m.IlluminanceObserved(time.Now(), 150)
	m.Evaluated(director.Evaluation{
		Trigger: director.TriggerMotion, Reason: lamp.ReasonDark, ActiveMotion: 2,
		HasCommand: true, Command: lamp.Uniform(128), Published: true,
	})
	m.Evaluated(director.Evaluation{
		Trigger: director.TriggerTick, Reason: lamp.ReasonNoMotion,
		HasCommand: true, Command: lamp.Off(), Published: true,
	})
	m.Evaluated(director.Evaluation{
		Trigger: director.TriggerTick, Reason: lamp.ReasonNoMotion,
		HasCommand: true, Command: lamp.Off(), Suppressed: true,
	})
	m.Evaluated(director.Evaluation{
		Trigger: director.TriggerTick, Reason: lamp.ReasonNoMotion,
		HasCommand: true, Command: lamp.Off(), Err: errors.New("not connected"),
	})
	m.Evaluated(director.Evaluation{Trigger: director.TriggerIlluminance, Reason: lamp.ReasonNotDark, ActiveMotion: 1})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"commands on", testutil.ToFloat64(m.commands.WithLabelValues("on")), 1},
		{"commands off", testutil.ToFloat64(m.commands.WithLabelValues("off")), 1},
		{"suppressed", testutil.ToFloat64(m.suppressed), 1},
		{"publish errors", testutil.ToFloat64(m.publishErrors), 1},
		{"tick evaluations", testutil.ToFloat64(m.evaluations.WithLabelValues("tick", "no_motion")), 3},
		{"motion evaluations", testutil.ToFloat64(m.evaluations.WithLabelValues("motion", "dark")), 1},
		{"illuminance", testutil.ToFloat64(m.illuminance), 150},
		{"active motion", testutil.ToFloat64(m.motionActive), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestTrackObservations(t *testing.T) {
	m := New()
	n := 3
	m.TrackObservations(func() int { return n })

	body := scrape(t, m)
	if !strings.Contains(body, "lampdirector_motion_observations 3") {
		t.Errorf("scrape missing motion_observations 3:\n%s", body)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.MessageReceived("update")

	body := scrape(t, m)
	for _, want := range []string{
		`lampdirector_messages_total{class="update"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}

func TestWrapHandler(t *testing.T) {
	m := New()
	h := m.WrapHandler("/api/v1/status", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/v1/status", "418")); got != 1 {
		t.Errorf("http_requests{418} = %v, want 1", got)
	}
}

func TestNewIsIsolated(t *testing.T) {
	// Two instances must not collide on registration.
	a, b := New(), New()
	a.MessageDropped("x")

	if got := testutil.ToFloat64(b.dropped); got != 0 {
		t.Errorf("second instance dropped = %v, want 0", got)
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL) //nolint:noctx // test server
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(b)
}
