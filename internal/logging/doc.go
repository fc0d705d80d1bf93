// Package logging assembles structured slog loggers and formatting helpers used
// across discjockey.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and tags every record with the run identifier of the supervisor
// process so a single daemon lifetime can be followed across a redirected log
// file. Slot and device attributes are lifted into the console header so the
// handler bound to each drive is easy to follow. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
