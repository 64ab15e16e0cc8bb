// Package api implements the read-only HTTP status API for lampdirector.
//
// This package provides:
//   - Health endpoint aggregating broker and database checks
//   - Controller status (latest illuminance, motion history size, last command)
//   - Recent commands from the actuation log
//   - Prometheus metrics
//   - Middleware stack (request ID, logging, recovery)
//
// # Endpoints
//
//	GET /api/v1/health
//	GET /api/v1/status
//	GET /api/v1/commands?limit=N
//	GET /metrics
//
// Nothing here can change controller state; the lamp is driven only by
// device messages.
package api
