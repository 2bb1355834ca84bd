// Package telemetry provides a small capability interface for
// debug-grade event reporting. Business logic receives a Telemetry and
// calls it unconditionally; whether anything is recorded is decided
// once, at construction time, by choosing the logger-backed or the
// no-op implementation.
package telemetry

import (
	appLog "leavenow/internal/log"
)

// Telemetry records named events with structured key-value context.
type Telemetry interface {
	Event(name string, kv ...any)
}

// Logged returns a Telemetry that forwards events to the application
// logger at DEBUG level.
func Logged() Telemetry {
	return logged{}
}

// Nop returns a Telemetry that discards everything.
func Nop() Telemetry {
	return nop{}
}

type logged struct{}

func (logged) Event(name string, kv ...any) {
	appLog.Debug(name, kv...)
}

type nop struct{}

func (nop) Event(string, ...any) {}
