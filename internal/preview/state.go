package preview

import (
	"encoding/json"
	"time"

	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
	"clipsmith/internal/services"
)

// SlotKeys lists the option slots offered per variant.
var SlotKeys = []string{"A", "B", "C"}

// StatusAwaitingSelection is the only preview status; render progress is
// tracked in the dedicated render fields.
const StatusAwaitingSelection = "awaiting_selection"

// State is the full approval preview stored on an analysis job.
type State struct {
	CreatedAt        time.Time                `json:"createdAt"`
	RenderPromptSent bool                     `json:"renderPromptSent"`
	Status           string                   `json:"status"`
	Variants         map[string]*VariantState `json:"variants"`
	Meta             []VariantMeta            `json:"meta"`

	RenderJobID       string     `json:"renderJobId,omitempty"`
	RenderStatus      string     `json:"renderStatus,omitempty"`
	RenderCompletedAt *time.Time `json:"renderCompletedAt,omitempty"`
	CancelledAt       *time.Time `json:"cancelledAt,omitempty"`
}

// VariantState tracks one variant's candidate pool and the user's choice.
type VariantState struct {
	Key             string                                 `json:"key"`
	Label           string                                 `json:"label"`
	TargetLengthSec float64                                `json:"targetLengthSec"`
	RegenOffset     int                                    `json:"regenOffset"`
	SelectedSlot    string                                 `json:"selectedSlot,omitempty"`
	Pool            []highlights.VariantCandidate          `json:"pool"`
	Options         map[string]highlights.VariantCandidate `json:"options"`
}

// VariantMeta summarizes a variant pool for compact status output.
type VariantMeta struct {
	Key             string  `json:"key"`
	CandidateCount  int     `json:"candidateCount"`
	TargetLengthSec float64 `json:"targetLengthSec"`
}

// AllVariantsSelected reports whether every variant has a valid slot choice.
func (s *State) AllVariantsSelected() bool {
	for _, key := range highlights.VariantOrder {
		vs, ok := s.Variants[key]
		if !ok || !validSlot(vs.SelectedSlot) {
			return false
		}
	}
	return true
}

// SelectedCandidate returns the approved candidate for a variant, falling
// back to slot A when no explicit choice exists.
func (s *State) SelectedCandidate(key string) (highlights.VariantCandidate, bool) {
	vs, ok := s.Variants[key]
	if !ok {
		return highlights.VariantCandidate{}, false
	}
	slot := vs.SelectedSlot
	if !validSlot(slot) {
		slot = "A"
	}
	if cand, ok := vs.Options[slot]; ok {
		return cand, true
	}
	cand, ok := vs.Options["A"]
	return cand, ok
}

func validSlot(slot string) bool {
	for _, k := range SlotKeys {
		if slot == k {
			return true
		}
	}
	return false
}

// LoadState decodes the preview stored on a job.
func LoadState(job *jobs.Job) (*State, error) {
	if job == nil || !job.HasPreview() {
		return nil, services.Wrap(services.ErrValidation, "preview", "load", "job has no preview", nil)
	}
	var state State
	if err := json.Unmarshal(job.Preview, &state); err != nil {
		return nil, services.Wrap(services.ErrValidation, "preview", "load", "decode preview state", err)
	}
	return &state, nil
}

// SaveState encodes the preview for storage on a job.
func SaveState(state *State) (json.RawMessage, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "preview", "save", "encode preview state", err)
	}
	return data, nil
}
