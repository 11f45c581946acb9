// Package services defines shared utilities consumed by the pipeline phases
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, phase names, and variant keys for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (user-facing vs internal) uniform across phases.
//
// Use these helpers when wiring new phase logic so operational behaviour
// stays consistent across the pipeline.
package services
