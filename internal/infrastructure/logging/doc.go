// Package logging provides structured logging for lampdirector.
//
// It wraps log/slog so every entry carries the service name and build
// version, with JSON output for production and text for a terminal.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting", "device_id", cfg.Device.ID)
//	logger.Component("mqtt").Warn("publish failed", "error", err)
//
// Never log broker passwords or InfluxDB tokens.
package logging
