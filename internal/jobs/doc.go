// Package jobs persists job records and the latest-result pointers in SQLite.
// Job mutations go through an atomic read-modify-write; no caller writes
// fields blindly.
package jobs
