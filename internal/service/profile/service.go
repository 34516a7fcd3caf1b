package profile

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/ai"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/logger"
)

type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error)
	UploadCV(ctx context.Context, userID uuid.UUID, req *model.UploadCVRequest) (*model.Profile, error)
	CompleteOnboarding(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	profiles repository.ProfileRepository
	users    repository.UserRepository
	aiSvc    ai.Service
	logger   *logger.Logger
}

func NewService(profiles repository.ProfileRepository, users repository.UserRepository, aiSvc ai.Service, log *logger.Logger) Service {
	return &service{
		profiles: profiles,
		users:    users,
		aiSvc:    aiSvc,
		logger:   log,
	}
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) (*model.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.BasicInfo != nil {
		profile.BasicInfo = *req.BasicInfo
	}
	if req.Education != nil {
		profile.Education = req.Education
	}
	if req.Experience != nil {
		profile.Experience = req.Experience
	}
	if req.Skills != nil {
		profile.Skills = req.Skills
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UploadCV stores the extracted CV text and runs AI extraction over it.
// A parser failure is not fatal: the raw text is kept and the candidate
// can still fill the profile by hand.
func (s *service) UploadCV(ctx context.Context, userID uuid.UUID, req *model.UploadCVRequest) (*model.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	profile.CVFileName = req.FileName
	profile.CVText = req.Text
	profile.CVUploadedAt = &now

	parsed, err := s.aiSvc.ParseCV(ctx, req.Text)
	if err != nil {
		s.logger.Error(err, "CV parsing failed, storing raw text only", "user_id", userID.String())
	} else {
		applyParsedCV(profile, parsed)
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// applyParsedCV merges extraction results without clobbering fields the
// candidate already filled in manually.
func applyParsedCV(profile *model.Profile, parsed *ai.ParsedCV) {
	if profile.BasicInfo.Phone == "" {
		profile.BasicInfo.Phone = parsed.BasicInfo.Phone
	}
	if profile.BasicInfo.Location == "" {
		profile.BasicInfo.Location = parsed.BasicInfo.Location
	}
	if profile.BasicInfo.Bio == "" {
		profile.BasicInfo.Bio = parsed.BasicInfo.Bio
	}
	if len(profile.Education) == 0 {
		profile.Education = parsed.Education
	}
	if len(profile.Experience) == 0 {
		profile.Experience = parsed.Experience
	}
	if len(profile.Skills) == 0 {
		profile.Skills = parsed.Skills
	}
}

func (s *service) CompleteOnboarding(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	user.OnboardingCompleted = true
	return s.users.Update(ctx, user)
}
