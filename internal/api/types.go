package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// StageSummary is the read-side view of a job's pipeline.
type StageSummary struct {
	JobID             int64       `json:"jobId"`
	TotalStages       int         `json:"totalStages"`
	StageBreakdown    map[int]int `json:"stageBreakdown"`
	RejectedCount     int         `json:"rejectedCount"`
	SelectedCount     int         `json:"selectedCount"`
	TotalApplications int         `json:"totalApplications"`
}

// SetStagesRequest is the body of PUT /api/jobs/{id}/stages.
type SetStagesRequest struct {
	TotalStages int `json:"totalStages"`
}

// Job describes a job posting's stage configuration.
type Job struct {
	ID            int64  `json:"id"`
	RecruiterID   int64  `json:"recruiterId"`
	CompanyName   string `json:"companyName"`
	Title         string `json:"title"`
	TotalStages   int    `json:"totalStages"`
	SelectedCount int    `json:"selectedCount"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// UploadError is one per-candidate failure in an upload response.
type UploadError struct {
	ApplicationID  int64  `json:"applicationId"`
	CandidateEmail string `json:"candidateEmail,omitempty"`
	Kind           string `json:"kind"`
	Message        string `json:"message"`
}

// UploadResponse is the result of POST /api/jobs/{id}/stages/upload.
type UploadResponse struct {
	TotalProcessed int           `json:"totalProcessed"`
	Progressed     int           `json:"progressed"`
	Selected       int           `json:"selected"`
	Rejected       int           `json:"rejected"`
	Errors         []UploadError `json:"errors,omitempty"`
	Unmatched      []string      `json:"unmatched,omitempty"`
	SkippedRows    int           `json:"skippedRows,omitempty"`
}

// Application describes one application.
type Application struct {
	ID             int64  `json:"id"`
	JobID          int64  `json:"jobId"`
	CandidateID    int64  `json:"candidateId"`
	CandidateName  string `json:"candidateName,omitempty"`
	CandidateEmail string `json:"candidateEmail,omitempty"`
	Status         string `json:"status"`
	CurrentStage   int    `json:"currentStage"`
	Notes          string `json:"notes,omitempty"`
	SelectedAt     string `json:"selectedAt,omitempty"`
	AppliedAt      string `json:"appliedAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// ApplicationResponse wraps a single application.
type ApplicationResponse struct {
	Application Application `json:"application"`
}

// ApplicationListResponse wraps a job's applications.
type ApplicationListResponse struct {
	Applications []Application `json:"applications"`
}

// UpdateApplicationRequest is the body of PUT /api/applications/{id}.
// Absent fields are left unchanged.
type UpdateApplicationRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// CompanyPlacement is one company's placements in a year.
type CompanyPlacement struct {
	CompanyName string `json:"companyName"`
	PlacedCount int    `json:"placedCount"`
}

// PlacementReport is the ledger view for one year.
type PlacementReport struct {
	Year        int                `json:"year"`
	TotalPlaced int                `json:"totalPlaced"`
	Companies   []CompanyPlacement `json:"companies"`
}

// Drift is a counter that disagrees with the applications table.
type Drift struct {
	Counter  string `json:"counter"`
	Key      string `json:"key"`
	Stored   int    `json:"stored"`
	Computed int    `json:"computed"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}
