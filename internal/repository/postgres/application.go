package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/errors"
)

type applicationRepository struct {
	BaseRepository
}

func NewApplicationRepository(base BaseRepository) repository.ApplicationRepository {
	return &applicationRepository{base}
}

// Create inserts the application together with its outbox event so
// the stream record cannot exist without the row, or the row without
// the record.
func (r *applicationRepository) Create(ctx context.Context, app *model.Application, eventType string) error {
	query := `
		INSERT INTO applications (
			id, job_id, candidate_id, status, notes, resume_snapshot,
			applied_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	app.ID = uuid.New()
	app.AppliedAt = time.Now()
	app.UpdatedAt = time.Now()
	if app.Status == "" {
		app.Status = model.ApplicationStatusApplied
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			app.ID,
			app.JobID,
			app.CandidateID,
			app.Status,
			app.Notes,
			app.ResumeSnapshot,
			app.AppliedAt,
			app.UpdatedAt,
		)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return errors.Conflict("already applied to this job", err)
			}
			return fmt.Errorf("failed to create application: %w", err)
		}
		return insertOutboxTx(ctx, tx, eventType, app)
	})
}

func (r *applicationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	query := `SELECT * FROM applications WHERE id = $1`

	var app model.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("application", err)
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

func (r *applicationRepository) Exists(ctx context.Context, jobID, candidateID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM applications WHERE job_id = $1 AND candidate_id = $2
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, jobID, candidateID); err != nil {
		return false, fmt.Errorf("failed to check application existence: %w", err)
	}
	return exists, nil
}

// UpdateStatus takes the loaded application rather than just its id so
// the outbox event written in the same transaction carries the full
// record.
func (r *applicationRepository) UpdateStatus(ctx context.Context, app *model.Application, status model.ApplicationStatus, eventType string) error {
	query := `
		UPDATE applications
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	app.Status = status
	app.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, app.Status, app.UpdatedAt, app.ID)
		if err != nil {
			return fmt.Errorf("failed to update application status: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return errors.NotFound("application", nil)
		}
		return insertOutboxTx(ctx, tx, eventType, app)
	})
}

func (r *applicationRepository) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]*model.ApplicationWithJob, error) {
	query := `
		SELECT
			a.id, a.job_id, a.candidate_id, a.status, a.notes,
			a.resume_snapshot, a.applied_at, a.updated_at,
			j.id AS "job.id", j.recruiter_id AS "job.recruiter_id",
			j.title AS "job.title", j.company AS "job.company",
			j.location AS "job.location", j.type AS "job.type",
			j.salary AS "job.salary", j.description AS "job.description",
			j.requirements AS "job.requirements", j.benefits AS "job.benefits",
			j.skills AS "job.skills", j.experience AS "job.experience",
			j.department AS "job.department",
			j.applicants_count AS "job.applicants_count",
			j.status AS "job.status", j.created_at AS "job.created_at",
			j.updated_at AS "job.updated_at"
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		WHERE a.candidate_id = $1
		ORDER BY a.applied_at DESC
	`

	var apps []*model.ApplicationWithJob
	if err := r.db.SelectContext(ctx, &apps, query, candidateID); err != nil {
		return nil, fmt.Errorf("failed to list candidate applications: %w", err)
	}
	return apps, nil
}

func (r *applicationRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*model.Applicant, error) {
	query := `
		SELECT
			a.id, a.job_id, a.candidate_id, a.status, a.notes,
			a.resume_snapshot, a.applied_at, a.updated_at,
			u.id AS "candidate.id", u.name AS "candidate.name",
			u.email AS "candidate.email", u.role AS "candidate.role"
		FROM applications a
		JOIN users u ON u.id = a.candidate_id
		WHERE a.job_id = $1
		ORDER BY a.applied_at DESC
	`

	var applicants []*model.Applicant
	if err := r.db.SelectContext(ctx, &applicants, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	return applicants, nil
}

func (r *applicationRepository) ListRecent(ctx context.Context, recruiterID uuid.UUID, limit int) ([]*model.RecentApplication, error) {
	query := `
		SELECT
			a.id, a.job_id, a.candidate_id, a.status, a.notes,
			a.resume_snapshot, a.applied_at, a.updated_at,
			u.id AS "candidate.id", u.name AS "candidate.name",
			u.email AS "candidate.email", u.role AS "candidate.role",
			j.title AS job_title
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		JOIN users u ON u.id = a.candidate_id
		WHERE j.recruiter_id = $1
		ORDER BY a.applied_at DESC
		LIMIT $2
	`

	var apps []*model.RecentApplication
	if err := r.db.SelectContext(ctx, &apps, query, recruiterID, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent applications: %w", err)
	}
	return apps, nil
}

func (r *applicationRepository) CountByMonth(ctx context.Context, recruiterID uuid.UUID, months int) ([]*model.MonthlyApplicationCount, error) {
	query := `
		SELECT to_char(date_trunc('month', a.applied_at), 'YYYY-MM') AS month,
		       COUNT(*) AS count
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		WHERE j.recruiter_id = $1
		  AND a.applied_at >= date_trunc('month', NOW()) - ($2 || ' months')::interval
		GROUP BY month
		ORDER BY month
	`

	rows, err := r.db.QueryContext(ctx, query, recruiterID, months)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications by month: %w", err)
	}
	defer rows.Close()

	var counts []*model.MonthlyApplicationCount
	for rows.Next() {
		var c model.MonthlyApplicationCount
		if err := rows.Scan(&c.Month, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly count: %w", err)
		}
		counts = append(counts, &c)
	}
	return counts, rows.Err()
}
