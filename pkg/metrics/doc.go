// Package metrics provides Prometheus collectors for the mock provider and
// the content-matcher registry.
//
// Collectors are grouped in a Metrics value registered against a
// prometheus.Registerer, so tests can use a private registry while the CLI
// exposes the default one:
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	srv, _ := provider.New(cfg, engine, provider.WithMetrics(m))
//	http.Handle("/metrics", promhttp.Handler())
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics
