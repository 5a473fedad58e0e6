package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// YearlyPlacement returns the placement total for year; absent years report zero.
func (s *Store) YearlyPlacement(ctx context.Context, year int) (YearlyPlacement, error) {
	ctx = ensureContext(ctx)
	placement := YearlyPlacement{Year: year}
	err := s.db.QueryRowContext(ctx,
		`SELECT total_placed FROM yearly_placements WHERE year = ?`, year,
	).Scan(&placement.TotalPlaced)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return placement, fmt.Errorf("yearly placement: %w", err)
	}
	return placement, nil
}

// CompanyPlacement returns the placement count for a company in year.
func (s *Store) CompanyPlacement(ctx context.Context, companyName string, year int) (CompanyPlacement, error) {
	ctx = ensureContext(ctx)
	placement := CompanyPlacement{CompanyName: companyName, Year: year}
	err := s.db.QueryRowContext(ctx,
		`SELECT placed_count FROM company_placements WHERE company_name = ? AND year = ?`, companyName, year,
	).Scan(&placement.PlacedCount)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return placement, fmt.Errorf("company placement: %w", err)
	}
	return placement, nil
}

// CompanyPlacements lists every company credited with placements in year.
func (s *Store) CompanyPlacements(ctx context.Context, year int) ([]CompanyPlacement, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_name, year, placed_count FROM company_placements WHERE year = ?
		 ORDER BY placed_count DESC, company_name`,
		year,
	)
	if err != nil {
		return nil, fmt.Errorf("company placements: %w", err)
	}
	defer rows.Close()

	var placements []CompanyPlacement
	for rows.Next() {
		var p CompanyPlacement
		if err := rows.Scan(&p.CompanyName, &p.Year, &p.PlacedCount); err != nil {
			return nil, fmt.Errorf("scan company placement: %w", err)
		}
		placements = append(placements, p)
	}
	return placements, rows.Err()
}

// PlacementDrift recomputes the job selected counts and both ledgers from the
// applications table and reports every counter that disagrees. It never
// repairs anything.
func (s *Store) PlacementDrift(ctx context.Context) ([]Drift, error) {
	ctx = ensureContext(ctx)
	var drift []Drift

	jobs, err := s.compareCounters(ctx, "job.selected_count",
		`SELECT CAST(id AS TEXT), selected_count FROM jobs`,
		`SELECT CAST(job_id AS TEXT), COUNT(*) FROM applications WHERE status = 'SELECTED' GROUP BY job_id`,
	)
	if err != nil {
		return nil, err
	}
	drift = append(drift, jobs...)

	yearly, err := s.compareCounters(ctx, "yearly_placements",
		`SELECT CAST(year AS TEXT), total_placed FROM yearly_placements`,
		`SELECT substr(selected_at, 1, 4), COUNT(*) FROM applications WHERE selected_at IS NOT NULL
		 GROUP BY substr(selected_at, 1, 4)`,
	)
	if err != nil {
		return nil, err
	}
	drift = append(drift, yearly...)

	company, err := s.compareCounters(ctx, "company_placements",
		`SELECT company_name || '/' || year, placed_count FROM company_placements`,
		`SELECT r.company_name || '/' || CAST(substr(a.selected_at, 1, 4) AS INTEGER), COUNT(*)
		 FROM applications a JOIN jobs j ON j.id = a.job_id JOIN recruiters r ON r.id = j.recruiter_id
		 WHERE a.selected_at IS NOT NULL
		 GROUP BY r.company_name, substr(a.selected_at, 1, 4)`,
	)
	if err != nil {
		return nil, err
	}
	drift = append(drift, company...)
	return drift, nil
}

func (s *Store) compareCounters(ctx context.Context, counter, storedQuery, computedQuery string) ([]Drift, error) {
	stored, err := s.counterMap(ctx, storedQuery)
	if err != nil {
		return nil, fmt.Errorf("%s stored: %w", counter, err)
	}
	computed, err := s.counterMap(ctx, computedQuery)
	if err != nil {
		return nil, fmt.Errorf("%s computed: %w", counter, err)
	}

	keys := make([]string, 0, len(stored)+len(computed))
	for key := range stored {
		keys = append(keys, key)
	}
	for key := range computed {
		if _, ok := stored[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	var drift []Drift
	for _, key := range keys {
		if stored[key] != computed[key] {
			drift = append(drift, Drift{Counter: counter, Key: key, Stored: stored[key], Computed: computed[key]})
		}
	}
	return drift, nil
}

func (s *Store) counterMap(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// lessKey orders numeric keys numerically and everything else lexically.
func lessKey(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		return ai < bi
	}
	return a < b
}
