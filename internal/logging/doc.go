// Package logging assembles the slog loggers used across labelbench.
//
// It owns the console and JSON handlers, level parsing, the optional file
// sink, and context helpers that tag log lines with run identifiers, item
// indexes and request identifiers. A no-op logger is provided for tests and
// for wiring code that must not fail.
package logging
