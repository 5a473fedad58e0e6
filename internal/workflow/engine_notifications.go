package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"hirepipe/internal/logging"
	"hirepipe/internal/notifications"
	"hirepipe/internal/services"
	"hirepipe/internal/store"
)

// outbound is a notification owed for a committed transition.
type outbound struct {
	app     *store.Application
	event   notifications.Event
	payload notifications.Payload
}

func newOutbound(app *store.Application, job *store.Job, event notifications.Event, extra notifications.Payload) outbound {
	payload := notifications.Payload{
		"email":         app.CandidateEmail,
		"candidateName": app.CandidateName,
		"jobTitle":      job.Title,
		"companyName":   job.CompanyName,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return outbound{app: app, event: event, payload: payload}
}

// dispatch publishes every message concurrently and returns one BatchError per
// failed send, ordered by application id. It waits for all sends.
func (e *Engine) dispatch(ctx context.Context, messages []outbound) []BatchError {
	if len(messages) == 0 {
		return nil
	}
	var (
		mu       sync.Mutex
		failures []BatchError
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.concurrency)
	for _, msg := range messages {
		group.Go(func() error {
			err := e.notifier.Publish(groupCtx, msg.event, msg.payload)
			if err == nil {
				return nil
			}
			if !errors.Is(err, services.ErrNotification) {
				err = services.Wrap(services.ErrNotification, "workflow", string(msg.event), "publish failed", err)
			}
			logger := logging.WithContext(services.WithApplicationID(ctx, msg.app.ID), e.logger)
			logger.Debug("notification failed",
				logging.String("event", string(msg.event)),
				logging.Error(err),
			)
			mu.Lock()
			failures = append(failures, BatchError{
				ApplicationID:  msg.app.ID,
				CandidateEmail: msg.app.CandidateEmail,
				Kind:           services.Kind(err),
				Message:        err.Error(),
			})
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	sort.SliceStable(failures, func(i, j int) bool { return failures[i].ApplicationID < failures[j].ApplicationID })
	return failures
}
