// Package services defines shared utilities consumed by the engine and the
// work-item collaborators that run on it.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, item IDs, stage names, and worker
//     names for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep collaborator
//     failures classifiable after they pass through the engine.
//
// Use these helpers when writing new work items so failures and log lines stay
// uniform across stages.
package services
