// Package services defines shared utilities consumed by the classification
// core and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, request IDs, and dataset item
//     indexes for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failures
//     classifiable (configuration, backend, empty response, count mismatch,
//     unknown label, timeout, budget) with errors.Is.
//   - ExitCode, which maps those markers to process exit statuses.
//
// Use these helpers when wiring new components so operational behaviour stays
// uniform: every failure reaches the caller, tagged with its marker.
package services
