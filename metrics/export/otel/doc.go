// Package otel binds engine metrics to an OpenTelemetry Meter.
//
// Counters become Int64ObservableCounter instruments with the same names the
// Prometheus collector uses. Each latency histogram is published as one
// Int64ObservableGauge per cumulative bucket plus a _count gauge. The caller
// owns the MeterProvider.
package otel
