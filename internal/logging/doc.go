// Package logging wires log/slog with console and JSON handlers and the
// attribute helpers used across clipsmith.
package logging
