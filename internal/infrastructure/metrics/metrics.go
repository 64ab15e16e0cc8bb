package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/lampdirector/internal/director"
)

const namespace = "lampdirector"

// Metrics holds every collector the service exports.
type Metrics struct {
	director.NopObserver

	registry *prometheus.Registry

	messages      *prometheus.CounterVec
	dropped       prometheus.Counter
	decodeErrors  *prometheus.CounterVec
	readRequests  *prometheus.CounterVec
	evaluations   *prometheus.CounterVec
	commands      *prometheus.CounterVec
	suppressed    prometheus.Counter
	publishErrors prometheus.Counter
	illuminance   prometheus.Gauge
	motionActive  prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages addressed to the device, by topic class.",
		}, []string{"class"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Messages ignored because the topic did not belong to the device.",
		}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Payloads that could not be decoded, by topic class.",
		}, []string{"class"}),
		readRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_requests_total",
			Help:      "Illuminance read requests, by result.",
		}, []string{"result"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Policy evaluations, by trigger and reason.",
		}, []string{"trigger", "reason"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "LED commands handed to the broker, by kind.",
		}, []string{"kind"}),
		suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_suppressed_total",
			Help:      "Commands skipped because they repeated the last one.",
		}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "LED commands the broker client refused.",
		}),
		illuminance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "illuminance",
			Help:      "Most recent illuminance reading.",
		}),
		motionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "motion_active_observations",
			Help:      "Active motion observations inside the window at the last evaluation.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Status API requests, by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Status API request durations, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.messages,
		m.dropped,
		m.decodeErrors,
		m.readRequests,
		m.evaluations,
		m.commands,
		m.suppressed,
		m.publishErrors,
		m.illuminance,
		m.motionActive,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// TrackObservations exports the retained motion history size, read through
// count at scrape time. Call it at most once.
func (m *Metrics) TrackObservations(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "motion_observations",
		Help:      "Motion observations currently retained.",
	}, func() float64 { return float64(count()) }))
}

// MessageReceived implements director.Observer.
func (m *Metrics) MessageReceived(class string) {
	m.messages.WithLabelValues(class).Inc()
}

// MessageDropped implements director.Observer.
func (m *Metrics) MessageDropped(string) {
	m.dropped.Inc()
}

// DecodeFailed implements director.Observer.
func (m *Metrics) DecodeFailed(class string, _ error) {
	m.decodeErrors.WithLabelValues(class).Inc()
}

// IlluminanceObserved implements director.Observer.
func (m *Metrics) IlluminanceObserved(_ time.Time, value float64) {
	m.illuminance.Set(value)
}

// ReadRequested implements director.Observer.
func (m *Metrics) ReadRequested(_ time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.readRequests.WithLabelValues(result).Inc()
}

// Evaluated implements director.Observer.
func (m *Metrics) Evaluated(ev director.Evaluation) {
	m.evaluations.WithLabelValues(string(ev.Trigger), string(ev.Reason)).Inc()
	m.motionActive.Set(float64(ev.ActiveMotion))

	switch {
	case ev.Suppressed:
		m.suppressed.Inc()
	case ev.Err != nil:
		m.publishErrors.Inc()
	case ev.Published:
		m.commands.WithLabelValues(ev.Command.Kind()).Inc()
	}
}

// WrapHandler records request counts and durations for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}
