// Package model contains the data model shared across the agent:
// metric identifiers and readings, link and scan reports, speed test
// results, and the logger used by every component.
package model

// Logger is the generic logger definition. It is satisfied by
// [github.com/apex/log.Logger], which is what the agent binary wires
// in, and by [TestLogger] in tests.
type Logger interface {
	// Debug emits a debug message.
	Debug(msg string)

	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Info emits an informational message.
	Info(msg string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Warn emits a warning message.
	Warn(msg string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Error emits an error message.
	Error(msg string)

	// Errorf formats and emits an error message.
	Errorf(format string, v ...any)
}
