// Package pipeline orchestrates job execution across the three phases:
// analyze (transcript and approval preview), render (approved variants to
// merged clips), and legacy (one-shot download-to-delivery).
//
// The runner is the single failure boundary. Phase code returns wrapped
// errors from the services taxonomy; the runner persists the failure on the
// job, emits a best-effort notification, and never retries. Stage
// breadcrumbs are written through the store as each step lands so status
// output can show where a job is.
package pipeline
