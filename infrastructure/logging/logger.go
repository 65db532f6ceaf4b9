// Package logging wraps the standard log package behind a small interface,
// the way the teacher's infrastructure/logging package does, so engines
// depend on an interface rather than the global log functions directly.
package logging

import "log"

// Logger is the logging surface every Kurupira engine depends on.
type Logger interface {
	Printf(format string, v ...any)
}

// StdLogger implements Logger using the standard library's log package.
type StdLogger struct{}

// NewStdLogger returns a Logger backed by the standard log package.
func NewStdLogger() Logger {
	return StdLogger{}
}

func (StdLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}
