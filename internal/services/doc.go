// Package services defines shared utilities consumed by the content use case,
// the card store backends, and the HTTP API.
//
// Key responsibilities:
//   - Context helpers that stamp movie IDs, operations, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that let callers map
//     failures onto consistent HTTP statuses and CLI messages.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, observability) stays uniform across the application.
package services
