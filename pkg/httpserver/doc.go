// Package httpserver runs an HTTP handler with graceful shutdown on context
// cancellation or SIGINT/SIGTERM, and provides liveness and readiness
// handlers for orchestrator probes.
package httpserver
