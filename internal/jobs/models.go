package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status captures the lifecycle state of a job.
type Status string

const (
	StatusQueued           Status = "queued"
	StatusRunning          Status = "running"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
)

var allStatuses = map[Status]struct{}{
	StatusQueued:           {},
	StatusRunning:          {},
	StatusAwaitingApproval: {},
	StatusCompleted:        {},
	StatusFailed:           {},
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := allStatuses[status]; !ok {
		return "", fmt.Errorf("unknown job status %q", value)
	}
	return status, nil
}

// IsTerminal reports whether a job in this status will never run again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Phase selects which pipeline a job runs.
const (
	PhaseAnalyze = "analyze"
	PhaseRender  = "render"
	PhaseLegacy  = "legacy"
)

// Payload is the caller-supplied job input. It is sanitized by the pipeline
// before any external process is invoked.
type Payload struct {
	Phase            string         `json:"phase,omitempty"`
	URLOriginal      string         `json:"urlOriginal,omitempty"`
	URLNormalized    string         `json:"urlNormalized,omitempty"`
	OutputMode       string         `json:"outputMode,omitempty"`
	TargetLengthSec  int            `json:"targetLengthSec,omitempty"`
	VariantDurations map[string]int `json:"variantDurations,omitempty"`
	AnalysisJobID    string         `json:"analysisJobId,omitempty"`
}

// Job is the persisted unit of work. Preview and Outputs are opaque JSON blobs
// owned by the preview and pipeline packages; the store never interprets them.
type Job struct {
	ID           string
	UserID       int64
	ChatID       int64
	Status       Status
	Stage        string
	Payload      Payload
	Preview      json.RawMessage
	Outputs      json.RawMessage
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// HasPreview reports whether a preview blob has been persisted.
func (j *Job) HasPreview() bool {
	return j != nil && len(j.Preview) > 0 && string(j.Preview) != "null"
}
