package director_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/lampdirector/internal/audit"
	"github.com/nerrad567/lampdirector/internal/director"
	"github.com/nerrad567/lampdirector/internal/infrastructure/config"
	"github.com/nerrad567/lampdirector/internal/infrastructure/influxdb"
	"github.com/nerrad567/lampdirector/internal/infrastructure/metrics"
)

// stuckRecorder never finishes a Record until released.
type stuckRecorder struct {
	release chan struct{}
}

func (r *stuckRecorder) Record(ctx context.Context, _ *audit.Entry) error {
	select {
	case <-r.release:
	case <-ctx.Done():
	}
	return nil
}

func (r *stuckRecorder) Prune(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// stalledInflux accepts the ping and holds every write until release closes.
func stalledInflux(t *testing.T, release <-chan struct{}) *influxdb.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := influxdb.Connect(ctx, config.InfluxDBConfig{
		Enabled:   true,
		URL:       srv.URL,
		Org:       "lampdirector",
		Bucket:    "telemetry",
		BatchSize: 1,
		QueueSize: 2,
	})
	if err != nil {
		t.Fatalf("influxdb.Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// The controller calls its observers with its lock held. With the same
// observers main wires, a stuck database and a stuck InfluxDB must not stop
// messages and ticks from being processed.
func TestController_StuckObserversDoNotBlock(t *testing.T) {
	release := make(chan struct{})

	influx := stalledInflux(t, release)

	writer := audit.NewWriter(&stuckRecorder{release: release}, audit.WriterOptions{
		DeviceID:   "desk-lamp",
		BufferSize: 2,
	})
	writer.Start(context.Background())
	t.Cleanup(writer.Close)

	// Runs before the closes above.
	t.Cleanup(func() { close(release) })

	ctrl, err := director.New(director.Options{
		DeviceID:  "desk-lamp",
		Publisher: director.PublisherFunc(func(string, []byte) error { return nil }),
		Observer: director.Observers(
			metrics.New(),
			writer,
			influxdb.NewObserver(influx, "desk-lamp"),
		),
	})
	if err != nil {
		t.Fatalf("director.New() error = %v", err)
	}

	tests := []struct {
		name string
		run  func() error
	}{
		{"motion", func() error {
			return ctrl.HandleMessage("dev/update/desk-lamp/5", []byte(`{"state":true}`))
		}},
		{"illuminance", func() error {
			return ctrl.HandleMessage("dev/response/desk-lamp/8", []byte(`{"value":0}`))
		}},
		{"tick", func() error {
			ctrl.Tick()
			return nil
		}},
	}

	const rounds = 20
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan error, 1)
			go func() {
				var err error
				for i := 0; i < rounds && err == nil; i++ {
					err = tt.run()
				}
				done <- err
			}()

			select {
			case err := <-done:
				if err != nil {
					t.Errorf("%s error = %v", tt.name, err)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("%s did not return within 2s with stuck observers", tt.name)
			}
		})
	}

	snap := ctrl.Snapshot()
	if snap.Counters.Messages != 2*rounds {
		t.Errorf("Counters.Messages = %d, want %d", snap.Counters.Messages, 2*rounds)
	}
	if snap.Counters.Commands == 0 {
		t.Error("Counters.Commands = 0, want commands published in the dark with motion")
	}
	if writer.Dropped() == 0 {
		t.Error("audit Writer.Dropped() = 0, want overflow with a stuck recorder")
	}
	if influx.Dropped() == 0 {
		t.Error("influxdb Client.Dropped() = 0, want overflow with a stalled server")
	}
}
