// Package logging provides structured logging for watermon.
//
// It wraps log/slog with the configuration knobs the service exposes
// (level, format, output) and stamps every record with the service name
// and version. Handlers are safe for concurrent use.
package logging
