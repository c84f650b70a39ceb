// Package logging assembles structured slog loggers and formatting helpers used
// across fusionkit.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes helpers that tag log lines with components and engine
// session identifiers. Handlers can be teed so the engine mirrors records into
// the host console while keeping the log file intact. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
package logging
