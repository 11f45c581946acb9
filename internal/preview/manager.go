package preview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
	"clipsmith/internal/logging"
	"clipsmith/internal/services"
)

// Submitter enqueues a new job under the caller-chosen id. The worker
// package provides the production implementation.
type Submitter interface {
	Submit(ctx context.Context, id string, userID, chatID int64, payload jobs.Payload) error
}

// Manager applies preview actions to stored analysis jobs. All mutations go
// through the job store so concurrent actions on the same preview serialize.
type Manager struct {
	store  *jobs.Store
	submit Submitter
	logger *slog.Logger
}

// NewManager wires a preview manager.
func NewManager(store *jobs.Store, submit Submitter, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		store:  store,
		submit: submit,
		logger: logging.NewComponentLogger(logger, "preview"),
	}
}

// SelectResult reports the state after a slot choice plus whether this
// choice completed the set for the first time.
type SelectResult struct {
	State       *State
	AllSelected bool
	PromptArmed bool
}

// Select records a slot choice for one variant. Re-selecting the same slot
// is a no-op; the render prompt arms exactly once, on the choice that
// completes the set.
func (m *Manager) Select(ctx context.Context, jobID string, userID, chatID int64, variantKey, slot string) (*SelectResult, error) {
	if !validSlot(slot) {
		return nil, services.Wrap(services.ErrValidation, "preview", "select", fmt.Sprintf("unknown slot %q", slot), nil)
	}
	if _, ok := highlights.StrategyByKey(variantKey); !ok {
		return nil, services.Wrap(services.ErrValidation, "preview", "select", fmt.Sprintf("unknown variant %q", variantKey), nil)
	}

	result := &SelectResult{}
	_, err := m.store.Update(ctx, jobID, func(job *jobs.Job) error {
		if err := checkOwnership(job, userID, chatID); err != nil {
			return err
		}
		state, err := LoadState(job)
		if err != nil {
			return err
		}
		vs, ok := state.Variants[variantKey]
		if !ok {
			return services.Wrap(services.ErrValidation, "preview", "select", fmt.Sprintf("variant %q not in preview", variantKey), nil)
		}
		vs.SelectedSlot = slot
		if state.AllVariantsSelected() && !state.RenderPromptSent {
			state.RenderPromptSent = true
			result.PromptArmed = true
		}
		result.State = state
		result.AllSelected = state.AllVariantsSelected()
		return storeState(job, state)
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("slot selected",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldVariant, variantKey),
		logging.String("slot", slot))
	return result, nil
}

// Regenerate rotates a variant's options to the next pool window and clears
// its selection.
func (m *Manager) Regenerate(ctx context.Context, jobID string, userID, chatID int64, variantKey string) (*State, error) {
	if _, ok := highlights.StrategyByKey(variantKey); !ok {
		return nil, services.Wrap(services.ErrValidation, "preview", "regenerate", fmt.Sprintf("unknown variant %q", variantKey), nil)
	}

	var updated *State
	_, err := m.store.Update(ctx, jobID, func(job *jobs.Job) error {
		if err := checkOwnership(job, userID, chatID); err != nil {
			return err
		}
		state, err := LoadState(job)
		if err != nil {
			return err
		}
		vs, ok := state.Variants[variantKey]
		if !ok {
			return services.Wrap(services.ErrValidation, "preview", "regenerate", fmt.Sprintf("variant %q not in preview", variantKey), nil)
		}
		vs.Regenerate()
		updated = state
		return storeState(job, state)
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info("options regenerated",
		logging.String(logging.FieldJobID, jobID),
		logging.String(logging.FieldVariant, variantKey))
	return updated, nil
}

// RenderAll queues the render job for a fully selected preview. Calling it
// again returns the already queued job instead of starting another render.
// The id is claimed inside a single store update, so concurrent calls agree
// on one render job; the actual submission happens after the claim commits.
func (m *Manager) RenderAll(ctx context.Context, jobID string, userID, chatID int64) (string, error) {
	renderJobID := uuid.NewString()
	var payload jobs.Payload
	claimed := false
	existing := ""

	_, err := m.store.Update(ctx, jobID, func(job *jobs.Job) error {
		if err := checkOwnership(job, userID, chatID); err != nil {
			return err
		}
		state, err := LoadState(job)
		if err != nil {
			return err
		}
		if state.RenderJobID != "" {
			existing = state.RenderJobID
			return nil
		}
		if !state.AllVariantsSelected() {
			return services.Wrap(services.ErrIncompleteSelection, "preview", "render_all",
				"pick an option for every variant before rendering", nil)
		}
		payload = jobs.Payload{
			Phase:         jobs.PhaseRender,
			OutputMode:    job.Payload.OutputMode,
			URLOriginal:   job.Payload.URLOriginal,
			URLNormalized: job.Payload.URLNormalized,
			AnalysisJobID: jobID,
		}
		state.RenderJobID = renderJobID
		state.RenderStatus = "queued"
		claimed = true
		return storeState(job, state)
	})
	if err != nil {
		return "", err
	}
	if !claimed {
		return existing, nil
	}

	if err := m.submit.Submit(ctx, renderJobID, userID, chatID, payload); err != nil {
		m.releaseRenderClaim(ctx, jobID, renderJobID)
		return "", err
	}

	m.logger.Info("render queued",
		logging.String(logging.FieldJobID, jobID),
		logging.String("render_job_id", renderJobID))
	return renderJobID, nil
}

// releaseRenderClaim clears a claimed render id after a failed submission so
// a later render attempt is not blocked by a job that never existed.
func (m *Manager) releaseRenderClaim(ctx context.Context, jobID, renderJobID string) {
	if _, err := m.store.Update(ctx, jobID, func(job *jobs.Job) error {
		state, err := LoadState(job)
		if err != nil {
			return err
		}
		if state.RenderJobID == renderJobID {
			state.RenderJobID = ""
			state.RenderStatus = ""
		}
		return storeState(job, state)
	}); err != nil {
		m.logger.Warn("release render claim",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(err))
	}
}

// Cancel marks the preview as dismissed. The analysis job and its preview
// stay readable so the user can come back to it.
func (m *Manager) Cancel(ctx context.Context, jobID string, userID, chatID int64) (*State, error) {
	var updated *State
	_, err := m.store.Update(ctx, jobID, func(job *jobs.Job) error {
		if err := checkOwnership(job, userID, chatID); err != nil {
			return err
		}
		state, err := LoadState(job)
		if err != nil {
			return err
		}
		if state.CancelledAt == nil {
			now := time.Now().UTC()
			state.CancelledAt = &now
		}
		updated = state
		return storeState(job, state)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Reanalyze queues a fresh analysis of the same source.
func (m *Manager) Reanalyze(ctx context.Context, jobID string, userID, chatID int64) (string, error) {
	job, err := m.store.Get(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job == nil {
		return "", services.Wrap(services.ErrValidation, "preview", "reanalyze", fmt.Sprintf("job %s not found", jobID), nil)
	}
	if err := checkOwnership(job, userID, chatID); err != nil {
		return "", err
	}

	payload := job.Payload
	payload.Phase = jobs.PhaseAnalyze
	payload.AnalysisJobID = ""
	newJobID := uuid.NewString()
	if err := m.submit.Submit(ctx, newJobID, userID, chatID, payload); err != nil {
		return "", err
	}
	m.logger.Info("reanalysis queued",
		logging.String(logging.FieldJobID, jobID),
		logging.String("new_job_id", newJobID))
	return newJobID, nil
}

func checkOwnership(job *jobs.Job, userID, chatID int64) error {
	if job.UserID != userID || job.ChatID != chatID {
		return services.Wrap(services.ErrOwnership, "preview", "authorize", "job belongs to a different chat", nil)
	}
	return nil
}

func storeState(job *jobs.Job, state *State) error {
	data, err := SaveState(state)
	if err != nil {
		return err
	}
	job.Preview = data
	return nil
}
