package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/errors"
)

type profileRepository struct {
	BaseRepository
}

func NewProfileRepository(base BaseRepository) repository.ProfileRepository {
	return &profileRepository{base}
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (
			id, user_id, basic_info, education, experience, skills,
			cv_file_name, cv_text, cv_uploaded_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	profile.ID = uuid.New()
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		profile.ID,
		profile.UserID,
		profile.BasicInfo,
		profile.Education,
		profile.Experience,
		profile.Skills,
		profile.CVFileName,
		profile.CVText,
		profile.CVUploadedAt,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	query := `SELECT * FROM profiles WHERE user_id = $1`

	var profile model.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("profile", err)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	query := `
		UPDATE profiles SET
			basic_info = $1,
			education = $2,
			experience = $3,
			skills = $4,
			cv_file_name = $5,
			cv_text = $6,
			cv_uploaded_at = $7,
			updated_at = $8
		WHERE user_id = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		profile.BasicInfo,
		profile.Education,
		profile.Experience,
		profile.Skills,
		profile.CVFileName,
		profile.CVText,
		profile.CVUploadedAt,
		time.Now(),
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("profile", nil)
	}
	return nil
}
