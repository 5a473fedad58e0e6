package store

import (
	"time"

	"hirepipe/internal/status"
)

// Recruiter owns jobs and determines the company credited with placements.
type Recruiter struct {
	ID          int64
	Name        string
	CompanyName string
	CreatedAt   time.Time
}

// Candidate is the person behind an application.
type Candidate struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
}

// Job is the subset of a job posting the stage engine reads.
type Job struct {
	ID            int64
	RecruiterID   int64
	CompanyName   string
	Title         string
	TotalStages   int
	SelectedCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Application is a candidate's application to a job.
type Application struct {
	ID             int64
	JobID          int64
	CandidateID    int64
	CandidateName  string
	CandidateEmail string
	Status         status.Status
	CurrentStage   int
	Notes          string
	SelectedAt     *time.Time
	AppliedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal reports whether the application reached REJECTED or SELECTED.
func (a Application) IsTerminal() bool {
	return a.Status.IsTerminal()
}

// Transition describes a compare-and-set move of one non-terminal application.
// The write only lands while the application still sits at FromStage.
type Transition struct {
	ApplicationID int64
	FromStage     int
	To            status.Status
	// Notes, when set, is written by the same UPDATE.
	Notes *string
}

// Selection reports the result of the selection bundle.
type Selection struct {
	Application *Application
	// Counted is false when the application was already selected and nothing changed.
	Counted     bool
	Year        int
	CompanyName string
}

// StageCounts partitions a job's applications by stage and terminal outcome.
type StageCounts struct {
	TotalStages       int
	Breakdown         map[int]int
	RejectedCount     int
	SelectedCount     int
	TotalApplications int
}

// YearlyPlacement is the total number of selections in a calendar year.
type YearlyPlacement struct {
	Year        int
	TotalPlaced int
}

// CompanyPlacement is the number of selections credited to a company in a year.
type CompanyPlacement struct {
	CompanyName string
	Year        int
	PlacedCount int
}

// Drift describes a derived counter that disagrees with the applications table.
type Drift struct {
	Counter  string
	Key      string
	Stored   int
	Computed int
}
