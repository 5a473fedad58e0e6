package workflow

import (
	"hirepipe/internal/status"
)

// BatchResult summarizes one Advance call.
type BatchResult struct {
	JobID          int64        `json:"jobId"`
	Stage          int          `json:"stage"`
	TotalProcessed int          `json:"totalProcessed"`
	Progressed     int          `json:"progressed"`
	Selected       int          `json:"selected"`
	Rejected       int          `json:"rejected"`
	Errors         []BatchError `json:"errors,omitempty"`
	// Unmatched lists pass-list emails that matched nobody in the cohort.
	// It is informational and never counted as an error.
	Unmatched []string `json:"unmatched,omitempty"`
}

// BatchError records a per-candidate failure inside a batch.
type BatchError struct {
	ApplicationID  int64  `json:"applicationId"`
	CandidateEmail string `json:"candidateEmail,omitempty"`
	Kind           string `json:"kind"`
	Message        string `json:"message"`
}

// Update is a manual change to one application. Nil fields are left alone.
type Update struct {
	Status *status.Status
	Notes  *string
}
