// Package prometheus exposes engine metrics through client_golang.
//
// [Collector] implements prometheus.Collector: register it on any registry,
// or mount [Collector.Handler] for a standalone /metrics endpoint. Counters
// are named gosession_*_total; the verify and refresh latency histograms are
// gosession_*_latency_seconds.
//
// The collector never registers itself on the default registry and never
// mutates engine state.
package prometheus
