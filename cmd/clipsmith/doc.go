// Package main hosts the Clipsmith CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into job
// submissions, preview approval actions, status views, dependency checks,
// and configuration scaffolding. Phases run synchronously in process against
// the shared job store, so the CLI works with or without a running daemon.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
