// Package logging constructs the slog loggers used across Aerial.
//
// Output goes to stdout and, when a log directory is configured, to
// aerial.log inside it. The console format is a compact text layout;
// "json" emits one object per line with normalized keys.
package logging
