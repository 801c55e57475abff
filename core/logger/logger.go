// Package logger defines the logging interface core packages depend on.
// Implementations live in infra/logger.
package logger

// Logger exposes leveled logging. Debugw attaches structured fields.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
