package store

import (
	"context"
	"database/sql"
	"fmt"

	"hirepipe/internal/services"
	"hirepipe/internal/status"
)

// Transition moves a non-terminal application to t.To in one guarded UPDATE.
// The write lands only while the application is still at t.FromStage, has never
// been selected, and the target stage fits the job. SELECTED is not accepted
// here; use Select so the counters move together.
func (s *Store) Transition(ctx context.Context, t Transition) (*Application, error) {
	ctx = ensureContext(ctx)
	if t.To.IsZero() {
		return nil, services.Wrap(services.ErrValidation, "store", "transition", "target status is required", nil)
	}
	if t.To == status.Selected {
		return nil, services.Wrap(services.ErrValidation, "store", "transition", "selection must go through Select", nil)
	}

	var target any
	if n, ok := t.To.StageNumber(); ok {
		if n < 1 {
			return nil, services.Wrap(services.ErrValidation, "store", "transition", fmt.Sprintf("invalid stage %d", n), nil)
		}
		target = n
	}

	setNotes, notes := notesArgs(t.Notes)
	res, err := s.execWithRetry(ctx,
		`UPDATE applications
		 SET status = ?, current_stage = COALESCE(?, current_stage),
		     notes = CASE WHEN ? = 1 THEN ? ELSE notes END, updated_at = ?
		 WHERE id = ? AND current_stage = ? AND selected_at IS NULL
		   AND status NOT IN ('REJECTED', 'SELECTED')
		   AND COALESCE(?, current_stage) <= (SELECT total_stages FROM jobs WHERE jobs.id = applications.job_id)`,
		t.To.String(), target, setNotes, notes, formatTime(s.timestamp()), t.ApplicationID, t.FromStage, target,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "transition", fmt.Sprintf("application %d", t.ApplicationID), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "store", "transition", "rows affected", err)
	}
	if affected == 0 {
		return nil, s.diagnoseTransition(ctx, t)
	}
	return s.GetApplication(ctx, t.ApplicationID)
}

// diagnoseTransition explains why a guarded transition matched no row.
func (s *Store) diagnoseTransition(ctx context.Context, t Transition) error {
	app, err := s.GetApplication(ctx, t.ApplicationID)
	if err != nil {
		return err
	}
	if app.IsTerminal() || app.SelectedAt != nil {
		return services.Wrap(services.ErrConflict, "store", "transition",
			fmt.Sprintf("application %d is already %s", app.ID, app.Status), nil)
	}
	if app.CurrentStage != t.FromStage {
		return services.Wrap(services.ErrConflict, "store", "transition",
			fmt.Sprintf("application %d moved from stage %d to %d", app.ID, t.FromStage, app.CurrentStage), nil)
	}
	return services.Wrap(services.ErrValidation, "store", "transition",
		fmt.Sprintf("status %s exceeds the job's stage count", t.To), nil)
}

// Select runs the selection bundle: the application becomes SELECTED at the
// job's final stage, and the job's selected count plus the yearly and company
// ledgers are incremented, all in one transaction. The selected_at guard is
// checked inside the transaction, so concurrent callers count an application
// once.
//
// fromStage > 0 additionally requires the application to still sit at that
// stage (the bulk path); any change since the cohort snapshot, including a
// concurrent selection, is reported as a conflict. With fromStage == 0 an
// already-selected application is a no-op and Counted is false.
func (s *Store) Select(ctx context.Context, applicationID int64, fromStage int) (*Selection, error) {
	return s.SelectWithNotes(ctx, applicationID, fromStage, nil)
}

// SelectWithNotes is Select that also writes notes inside the selection
// transaction, including when the application was already selected.
func (s *Store) SelectWithNotes(ctx context.Context, applicationID int64, fromStage int, notes *string) (*Selection, error) {
	ctx = ensureContext(ctx)
	setNotes, notesValue := notesArgs(notes)
	var result *Selection
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		app, err := getApplication(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		if fromStage > 0 && (app.CurrentStage != fromStage || app.IsTerminal() || app.SelectedAt != nil) {
			return services.Wrap(services.ErrConflict, "store", "select",
				fmt.Sprintf("application %d is no longer pending at stage %d", app.ID, fromStage), nil)
		}
		if app.SelectedAt != nil {
			if notes != nil {
				if _, err := tx.ExecContext(ctx,
					`UPDATE applications SET notes = ?, updated_at = ? WHERE id = ?`,
					notesValue, formatTime(s.timestamp()), app.ID,
				); err != nil {
					return fmt.Errorf("update notes: %w", err)
				}
				if app, err = getApplication(ctx, tx, app.ID); err != nil {
					return err
				}
			}
			result = &Selection{Application: app, Counted: false, Year: app.SelectedAt.UTC().Year()}
			return nil
		}
		if app.Status == status.Rejected {
			return services.Wrap(services.ErrConflict, "store", "select",
				fmt.Sprintf("application %d is rejected", app.ID), nil)
		}

		job, err := getJob(ctx, tx, app.JobID)
		if err != nil {
			return err
		}
		now := s.timestamp()
		stamp := formatTime(now)
		year := now.Year()

		res, err := tx.ExecContext(ctx,
			`UPDATE applications
			 SET status = ?, selected_at = ?, current_stage = ?,
			     notes = CASE WHEN ? = 1 THEN ? ELSE notes END, updated_at = ?
			 WHERE id = ? AND selected_at IS NULL AND status <> 'REJECTED'`,
			status.Selected.String(), stamp, job.TotalStages, setNotes, notesValue, stamp, app.ID,
		)
		if err != nil {
			return fmt.Errorf("mark selected: %w", err)
		}
		if affected, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("mark selected rows: %w", err)
		} else if affected != 1 {
			return services.Wrap(services.ErrConflict, "store", "select",
				fmt.Sprintf("application %d changed during selection", app.ID), nil)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs SET selected_count = selected_count + 1, updated_at = ? WHERE id = ?`,
			stamp, job.ID,
		); err != nil {
			return fmt.Errorf("increment selected count: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO yearly_placements (year, total_placed) VALUES (?, 1)
			 ON CONFLICT(year) DO UPDATE SET total_placed = total_placed + 1`,
			year,
		); err != nil {
			return fmt.Errorf("upsert yearly placement: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO company_placements (company_name, year, placed_count) VALUES (?, ?, 1)
			 ON CONFLICT(company_name, year) DO UPDATE SET placed_count = placed_count + 1`,
			job.CompanyName, year,
		); err != nil {
			return fmt.Errorf("upsert company placement: %w", err)
		}

		selected, err := getApplication(ctx, tx, app.ID)
		if err != nil {
			return err
		}
		result = &Selection{Application: selected, Counted: true, Year: year, CompanyName: job.CompanyName}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func notesArgs(notes *string) (int, any) {
	if notes == nil {
		return 0, nil
	}
	return 1, nullableString(*notes)
}
