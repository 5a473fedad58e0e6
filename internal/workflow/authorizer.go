package workflow

import (
	"context"
	"fmt"

	"hirepipe/internal/services"
	"hirepipe/internal/store"
)

// Role classifies an actor.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleAdmin     Role = "admin"
)

// Actor is the authenticated caller of a manual transition.
type Actor struct {
	ID   int64
	Role Role
}

// Authorizer decides whether actor may change applications of job.
type Authorizer interface {
	Authorize(ctx context.Context, actor Actor, job *store.Job) error
}

// OwnerOrAdmin allows the job's recruiter and administrators.
type OwnerOrAdmin struct{}

// Authorize implements Authorizer.
func (OwnerOrAdmin) Authorize(_ context.Context, actor Actor, job *store.Job) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if job != nil && actor.ID != 0 && actor.ID == job.RecruiterID {
		return nil
	}
	return services.Wrap(services.ErrForbidden, "workflow", "authorize",
		fmt.Sprintf("actor %d does not own job %d", actor.ID, jobID(job)), nil)
}

func jobID(job *store.Job) int64 {
	if job == nil {
		return 0
	}
	return job.ID
}
