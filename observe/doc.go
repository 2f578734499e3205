// Package observe provides observability primitives for the fetching
// engine.
//
// It is a pure instrumentation library: no fetching, no cache logic, no I/O
// beyond exporter setup. The client wires an Instruments bundle in and
// records fetch spans, cache hit rates, dedup joins, in-place reruns, and
// optimistic rollbacks through it; everything degrades to no-ops when
// telemetry is disabled.
package observe
