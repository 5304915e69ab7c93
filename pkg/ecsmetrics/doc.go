/*
Package ecsmetrics exposes the engine's Prometheus instrumentation:
frame pacing, batch fan-out, event throughput, command latency, and
query cache effectiveness. Hosts register these with their own
registry (or promhttp.Handler()) the same way the teacher wires
warren_* metrics into its HTTP server.
*/
package ecsmetrics
