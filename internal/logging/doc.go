// Package logging builds the slog loggers used across toonvault.
//
// Loggers are constructed once at startup from configuration and passed
// explicitly to components. A console handler renders human-oriented output
// for interactive sessions; a JSON handler serves log files and machine
// consumers. Tests use NewNop.
package logging
