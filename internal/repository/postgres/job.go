package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/errors"
)

type jobRepository struct {
	BaseRepository
}

func NewJobRepository(base BaseRepository) repository.JobRepository {
	return &jobRepository{base}
}

func (r *jobRepository) Create(ctx context.Context, job *model.Job) error {
	query := `
		INSERT INTO jobs (
			id, recruiter_id, title, company, location, type, salary,
			description, requirements, benefits, skills, experience,
			department, applicants_count, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	job.ID = uuid.New()
	job.CreatedAt = time.Now()
	job.UpdatedAt = time.Now()
	if job.Status == "" {
		job.Status = model.JobStatusActive
	}

	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.RecruiterID,
		job.Title,
		job.Company,
		job.Location,
		job.Type,
		job.Salary,
		job.Description,
		job.Requirements,
		job.Benefits,
		job.Skills,
		job.Experience,
		job.Department,
		job.ApplicantsCount,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	query := `SELECT * FROM jobs WHERE id = $1`

	var job model.Job
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("job", err)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) Update(ctx context.Context, job *model.Job) error {
	query := `
		UPDATE jobs SET
			title = $1,
			company = $2,
			location = $3,
			type = $4,
			salary = $5,
			description = $6,
			requirements = $7,
			benefits = $8,
			skills = $9,
			experience = $10,
			department = $11,
			status = $12,
			updated_at = $13
		WHERE id = $14
	`

	result, err := r.db.ExecContext(ctx, query,
		job.Title,
		job.Company,
		job.Location,
		job.Type,
		job.Salary,
		job.Description,
		job.Requirements,
		job.Benefits,
		job.Skills,
		job.Experience,
		job.Department,
		job.Status,
		time.Now(),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("job", nil)
	}
	return nil
}

func (r *jobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("job", nil)
	}
	return nil
}

func (r *jobRepository) List(ctx context.Context, filters *model.JobFilters) ([]*model.Job, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filters.Status)
		argPos++
	}
	if filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, filters.Type)
		argPos++
	}
	if filters.Location != "" {
		conditions = append(conditions, fmt.Sprintf("location ILIKE $%d", argPos))
		args = append(args, "%"+filters.Location+"%")
		argPos++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR company ILIKE $%d OR description ILIKE $%d)",
			argPos, argPos, argPos))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM jobs WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT * FROM jobs WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, argPos, argPos+1)
	args = append(args, filters.PageSize, filters.Offset())

	var jobs []*model.Job
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, total, nil
}

func (r *jobRepository) ListByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]*model.Job, error) {
	query := `
		SELECT * FROM jobs
		WHERE recruiter_id = $1
		ORDER BY created_at DESC
	`

	var jobs []*model.Job
	if err := r.db.SelectContext(ctx, &jobs, query, recruiterID); err != nil {
		return nil, fmt.Errorf("failed to list recruiter jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) IncrementApplicants(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET applicants_count = applicants_count + 1, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment applicants count: %w", err)
	}
	return nil
}

func (r *jobRepository) PopularSkills(ctx context.Context, limit int) ([]*model.SkillCount, error) {
	query := `
		SELECT unnest(skills) AS skill, COUNT(*) AS count
		FROM jobs
		WHERE status = $1
		GROUP BY skill
		ORDER BY count DESC
		LIMIT $2
	`

	var skills []*model.SkillCount
	if err := r.db.SelectContext(ctx, &skills, query, model.JobStatusActive, limit); err != nil {
		return nil, fmt.Errorf("failed to aggregate popular skills: %w", err)
	}
	return skills, nil
}
