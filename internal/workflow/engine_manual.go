package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hirepipe/internal/logging"
	"hirepipe/internal/notifications"
	"hirepipe/internal/services"
	"hirepipe/internal/status"
	"hirepipe/internal/store"
)

// SetStatus applies a manual update to one application after authorizing actor.
//
// Selecting runs the selection bundle; a second selection is a no-op for the
// counters. A terminal application accepts only its own status again, which
// lets notes change. Stage moves are bounded by the job's stage count.
func (e *Engine) SetStatus(ctx context.Context, applicationID int64, update Update, actor Actor) (*store.Application, error) {
	ctx = services.WithApplicationID(ctx, applicationID)
	if update.Status == nil && update.Notes == nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "set status", "status or notes is required", nil)
	}

	app, err := e.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	job, err := e.store.GetJob(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	ctx = services.WithJobID(ctx, job.ID)
	if err := e.authorizer.Authorize(ctx, actor, job); err != nil {
		return nil, err
	}

	var notes *string
	if update.Notes != nil {
		trimmed := strings.TrimSpace(*update.Notes)
		notes = &trimmed
	}

	var (
		messages []outbound
		written  bool
	)
	if update.Status != nil {
		target := *update.Status
		if err := target.Validate(job.TotalStages); err != nil {
			return nil, services.Wrap(services.ErrValidation, "workflow", "set status", "", err)
		}
		messages, written, err = e.applyStatus(ctx, app, job, target, notes)
		if err != nil {
			return nil, err
		}
	}

	if notes != nil && !written {
		if _, err := e.store.UpdateNotes(ctx, app.ID, *notes); err != nil {
			return nil, err
		}
	}

	updated, err := e.store.GetApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	for _, failure := range e.dispatch(ctx, messages) {
		logging.WithContext(ctx, e.logger).Warn("manual transition notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String("error_message", failure.Message),
		)
	}
	return updated, nil
}

// applyStatus moves app to target, carrying notes in the same write. The bool
// reports whether a write happened; a no-op leaves notes to the caller.
func (e *Engine) applyStatus(ctx context.Context, app *store.Application, job *store.Job, target status.Status, notes *string) ([]outbound, bool, error) {
	if app.IsTerminal() || app.SelectedAt != nil {
		if target == app.Status {
			return nil, false, nil
		}
		return nil, false, services.Wrap(services.ErrValidation, "workflow", "set status",
			fmt.Sprintf("application status is final (%s)", app.Status), nil)
	}
	if target == app.Status {
		return nil, false, nil
	}

	if target == status.Selected {
		sel, err := e.store.SelectWithNotes(ctx, app.ID, 0, notes)
		if err != nil {
			return nil, false, err
		}
		if !sel.Counted {
			return nil, true, nil
		}
		logging.WithContext(ctx, e.logger).Info("application selected",
			logging.String(logging.FieldEventType, "application_selected"),
			logging.Int("year", sel.Year),
			logging.String("company", sel.CompanyName),
		)
		return []outbound{newOutbound(sel.Application, job, notifications.EventSelection, nil)}, true, nil
	}

	next, err := e.store.Transition(ctx, store.Transition{ApplicationID: app.ID, FromStage: app.CurrentStage, To: target, Notes: notes})
	if err != nil {
		return nil, false, err
	}
	if target == status.Rejected {
		return []outbound{newOutbound(next, job, notifications.EventRejection, notifications.Payload{"atStage": app.CurrentStage})}, true, nil
	}
	if n, ok := target.StageNumber(); ok && n > app.CurrentStage {
		return []outbound{newOutbound(next, job, notifications.EventStageProgression, notifications.Payload{
			"nextStage":   n,
			"totalStages": job.TotalStages,
		})}, true, nil
	}
	return nil, true, nil
}

// SetTotalStages changes a job's stage count within the configured maximum.
func (e *Engine) SetTotalStages(ctx context.Context, jobID int64, totalStages int) (*store.Job, error) {
	if totalStages < 1 || totalStages > e.maxStages {
		return nil, services.Wrap(services.ErrValidation, "workflow", "set total stages",
			fmt.Sprintf("total stages must be between 1 and %d, got %d", e.maxStages, totalStages), nil)
	}
	job, err := e.store.SetTotalStages(services.WithJobID(ctx, jobID), jobID, totalStages)
	if err != nil {
		return nil, err
	}
	logging.WithContext(services.WithJobID(ctx, jobID), e.logger).Info("job stage count updated",
		logging.String(logging.FieldEventType, "stages_updated"),
		logging.Int("total_stages", job.TotalStages),
	)
	return job, nil
}

// Receive records a new application and sends the ApplicationReceived message.
// Candidates are reused by email. A failed send is logged; the application
// stays recorded.
func (e *Engine) Receive(ctx context.Context, jobID int64, name, email string) (*store.Application, error) {
	ctx = services.WithJobID(ctx, jobID)
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	app, err := e.store.ReceiveApplication(ctx, jobID, name, email)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrConflict) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrPersistence, "workflow", "receive", "record application", err)
	}
	for _, failure := range e.dispatch(ctx, []outbound{newOutbound(app, job, notifications.EventApplicationReceived, nil)}) {
		logging.WithContext(services.WithApplicationID(ctx, app.ID), e.logger).Warn("application received notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String("error_message", failure.Message),
		)
	}
	return app, nil
}
