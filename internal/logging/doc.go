// Package logging assembles structured slog loggers for rokuctl.
//
// It owns the console and JSON handlers, level parsing, and output routing
// (stderr plus an optional append-only file), and exposes context helpers
// that stamp every line with the invocation's correlation ID and command
// name. A no-op logger is provided for tests and wiring code that cannot fail.
package logging
