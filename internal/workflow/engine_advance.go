package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"hirepipe/internal/logging"
	"hirepipe/internal/notifications"
	"hirepipe/internal/passlist"
	"hirepipe/internal/services"
	"hirepipe/internal/status"
	"hirepipe/internal/store"
)

// Advance re-evaluates every pending application of jobID at stage against
// passList. Matches move to the next stage, or are selected at the final
// stage; everyone else in the cohort is rejected.
//
// Validation and loading failures abort before any write. After that, a
// failure on one candidate is recorded in BatchResult.Errors and the rest of
// the cohort is still processed. Running the same call twice is a no-op the
// second time since the cohort has moved on.
func (e *Engine) Advance(ctx context.Context, jobID int64, stage int, passList passlist.Set) (*BatchResult, error) {
	ctx = services.WithStage(services.WithJobID(ctx, jobID), stage)
	logger := logging.WithContext(ctx, e.logger)

	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrPersistence, "workflow", "advance", "load job", err)
	}
	if stage < 1 || stage > job.TotalStages {
		return nil, services.Wrap(services.ErrValidation, "workflow", "advance",
			fmt.Sprintf("stage %d outside 1..%d", stage, job.TotalStages), nil)
	}
	if passList.Len() == 0 {
		return nil, services.Wrap(services.ErrValidation, "workflow", "advance", "pass-list is empty", nil)
	}

	cohort, err := e.store.Cohort(ctx, jobID, stage)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "workflow", "advance", "load cohort", err)
	}

	result := &BatchResult{JobID: jobID, Stage: stage, TotalProcessed: len(cohort)}
	finalStage := stage == job.TotalStages
	matched := make(map[string]struct{}, len(cohort))
	var messages []outbound

	for _, app := range cohort {
		appCtx := services.WithApplicationID(ctx, app.ID)
		passed := passList.Contains(app.CandidateEmail)
		if passed {
			matched[passlist.Normalize(app.CandidateEmail)] = struct{}{}
		}

		var (
			msg  outbound
			next *store.Application
		)
		switch {
		case passed && finalStage:
			sel, selErr := e.store.Select(appCtx, app.ID, stage)
			err = selErr
			if err == nil {
				next = sel.Application
				msg = newOutbound(next, job, notifications.EventSelection, nil)
			}
		case passed:
			next, err = e.store.Transition(appCtx, store.Transition{ApplicationID: app.ID, FromStage: stage, To: status.Stage(stage + 1)})
			if err == nil {
				msg = newOutbound(next, job, notifications.EventStageProgression, notifications.Payload{
					"nextStage":   stage + 1,
					"totalStages": job.TotalStages,
				})
			}
		default:
			next, err = e.store.Transition(appCtx, store.Transition{ApplicationID: app.ID, FromStage: stage, To: status.Rejected})
			if err == nil {
				msg = newOutbound(next, job, notifications.EventRejection, notifications.Payload{"atStage": stage})
			}
		}

		if err != nil {
			logging.WithContext(appCtx, e.logger).Warn("candidate transition failed",
				logging.String(logging.FieldEventType, "transition_failed"),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.Error(err),
			)
			result.Errors = append(result.Errors, BatchError{
				ApplicationID:  app.ID,
				CandidateEmail: app.CandidateEmail,
				Kind:           services.Kind(err),
				Message:        err.Error(),
			})
			continue
		}

		if passed {
			result.Progressed++
			if finalStage {
				result.Selected++
			}
		} else {
			result.Rejected++
		}
		messages = append(messages, msg)
	}

	for _, email := range passList.Emails() {
		if _, ok := matched[email]; !ok {
			result.Unmatched = append(result.Unmatched, email)
		}
	}

	if failures := e.dispatch(ctx, messages); len(failures) > 0 {
		result.Errors = append(result.Errors, failures...)
	}
	sort.SliceStable(result.Errors, func(i, j int) bool { return result.Errors[i].ApplicationID < result.Errors[j].ApplicationID })

	logger.Info("stage batch processed",
		logging.String(logging.FieldEventType, "stage_batch"),
		logging.Int("total_processed", result.TotalProcessed),
		logging.Int("progressed", result.Progressed),
		logging.Int("selected", result.Selected),
		logging.Int("rejected", result.Rejected),
		logging.Int("errors", len(result.Errors)),
		logging.Int("unmatched", len(result.Unmatched)),
	)
	return result, nil
}
