// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect executes ffprobe and returns a parsed Result; helper methods cover
// the properties the pipeline needs, duration and stream presence chief
// among them.
package ffprobe
