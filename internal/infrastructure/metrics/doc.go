// Package metrics exposes controller activity as Prometheus metrics.
//
// All collectors live on a private registry, so tests can create as many
// Metrics values as they like and the process-wide default registry stays
// untouched. Metrics implements director.Observer:
//
//	m := metrics.New()
//	ctrl, err := director.New(director.Options{Observer: m, ...})
//	m.TrackObservations(func() int { return ctrl.Snapshot().Observations })
//	http.Handle("/metrics", m.Handler())
package metrics
