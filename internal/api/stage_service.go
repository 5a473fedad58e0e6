package api

import (
	"context"

	"hirepipe/internal/store"
)

// StageReader abstracts the store reads needed for API queries.
type StageReader interface {
	GetJob(ctx context.Context, id int64) (*store.Job, error)
	ListJobs(ctx context.Context) ([]*store.Job, error)
	StageCounts(ctx context.Context, jobID int64) (*store.StageCounts, error)
	GetApplication(ctx context.Context, id int64) (*store.Application, error)
	ListByJob(ctx context.Context, jobID int64) ([]*store.Application, error)
	YearlyPlacement(ctx context.Context, year int) (store.YearlyPlacement, error)
	CompanyPlacements(ctx context.Context, year int) ([]store.CompanyPlacement, error)
	PlacementDrift(ctx context.Context) ([]store.Drift, error)
}

// StageService exposes read-only pipeline operations returning API DTOs.
type StageService struct {
	store StageReader
}

// NewStageService constructs a StageService around the provided reader.
func NewStageService(reader StageReader) *StageService {
	if reader == nil {
		return nil
	}
	return &StageService{store: reader}
}

// Summary partitions a job's applications by stage and outcome.
func (s *StageService) Summary(ctx context.Context, jobID int64) (StageSummary, error) {
	counts, err := s.store.StageCounts(ctx, jobID)
	if err != nil {
		return StageSummary{}, err
	}
	return FromStageCounts(jobID, counts), nil
}

// Jobs lists every job.
func (s *StageService) Jobs(ctx context.Context) ([]Job, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out, nil
}

// Applications lists a job's applications after confirming the job exists.
func (s *StageService) Applications(ctx context.Context, jobID int64) ([]Application, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	apps, err := s.store.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return FromApplications(apps), nil
}

// Describe fetches a single application.
func (s *StageService) Describe(ctx context.Context, id int64) (Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	return FromApplication(app), nil
}

// Placements reports the yearly total and per-company rows for year.
func (s *StageService) Placements(ctx context.Context, year int) (PlacementReport, error) {
	yearly, err := s.store.YearlyPlacement(ctx, year)
	if err != nil {
		return PlacementReport{}, err
	}
	rows, err := s.store.CompanyPlacements(ctx, year)
	if err != nil {
		return PlacementReport{}, err
	}
	report := PlacementReport{Year: year, TotalPlaced: yearly.TotalPlaced, Companies: make([]CompanyPlacement, 0, len(rows))}
	for _, row := range rows {
		report.Companies = append(report.Companies, CompanyPlacement{CompanyName: row.CompanyName, PlacedCount: row.PlacedCount})
	}
	return report, nil
}

// Drift recomputes derived counters and reports disagreements.
func (s *StageService) Drift(ctx context.Context) ([]Drift, error) {
	rows, err := s.store.PlacementDrift(ctx)
	if err != nil {
		return nil, err
	}
	return FromDrift(rows), nil
}
