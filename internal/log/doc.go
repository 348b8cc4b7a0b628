// Package log provides slog loggers that never print signing material.
//
// The SecureHandler wraps any slog.Handler and redacts:
//   - a_bogus, X-Bogus and ms_token values, by key or inside URLs
//   - cookies and platform session identifiers
//   - long random-looking strings such as a raw ms_token
//
// Redaction applies at every log level, so verbose output can be shared.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("request signed", "url", signedURL) // a_bogus=***REDACTED***
//	slog.SetDefault(logger)
package log
