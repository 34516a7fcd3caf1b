package job

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hireloop/jobboard-api/internal/ai"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/errors"
	"github.com/hireloop/jobboard-api/pkg/logger"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	matchCandidates  = 25
	popularSkillsTop = 10
)

type Service interface {
	Create(ctx context.Context, recruiterID uuid.UUID, req *model.CreateJobRequest) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	Update(ctx context.Context, recruiterID, id uuid.UUID, req *model.UpdateJobRequest) (*model.Job, error)
	Delete(ctx context.Context, recruiterID, id uuid.UUID) error
	List(ctx context.Context, filters *model.JobFilters) ([]*model.Job, int, error)
	ListByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]*model.Job, error)
	Recommendations(ctx context.Context, candidateID uuid.UUID) ([]*RecommendedJob, error)
	PopularSkills(ctx context.Context) ([]*model.SkillCount, error)
}

// RecommendedJob pairs a job with its AI match score.
type RecommendedJob struct {
	Job    *model.Job `json:"job"`
	Score  int        `json:"score"`
	Reason string     `json:"reason"`
}

type service struct {
	jobs     repository.JobRepository
	profiles repository.ProfileRepository
	aiSvc    ai.Service
	logger   *logger.Logger
}

func NewService(jobs repository.JobRepository, profiles repository.ProfileRepository, aiSvc ai.Service, log *logger.Logger) Service {
	return &service{
		jobs:     jobs,
		profiles: profiles,
		aiSvc:    aiSvc,
		logger:   log,
	}
}

func (s *service) Create(ctx context.Context, recruiterID uuid.UUID, req *model.CreateJobRequest) (*model.Job, error) {
	job := &model.Job{
		RecruiterID:  recruiterID,
		Title:        req.Title,
		Company:      req.Company,
		Location:     req.Location,
		Type:         req.Type,
		Salary:       req.Salary,
		Description:  req.Description,
		Requirements: pq.StringArray(req.Requirements),
		Benefits:     pq.StringArray(req.Benefits),
		Skills:       pq.StringArray(req.Skills),
		Experience:   req.Experience,
		Department:   req.Department,
		Status:       model.JobStatusActive,
	}
	if job.Type == "" {
		job.Type = model.JobTypeFullTime
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	return s.jobs.Get(ctx, id)
}

func (s *service) Update(ctx context.Context, recruiterID, id uuid.UUID, req *model.UpdateJobRequest) (*model.Job, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, errors.Forbidden("job belongs to another recruiter", nil)
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Company != nil {
		job.Company = *req.Company
	}
	if req.Location != nil {
		job.Location = *req.Location
	}
	if req.Type != nil {
		job.Type = *req.Type
	}
	if req.Salary != nil {
		job.Salary = *req.Salary
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.Requirements != nil {
		job.Requirements = pq.StringArray(req.Requirements)
	}
	if req.Benefits != nil {
		job.Benefits = pq.StringArray(req.Benefits)
	}
	if req.Skills != nil {
		job.Skills = pq.StringArray(req.Skills)
	}
	if req.Experience != nil {
		job.Experience = *req.Experience
	}
	if req.Department != nil {
		job.Department = *req.Department
	}
	if req.Status != nil {
		job.Status = *req.Status
	}

	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *service) Delete(ctx context.Context, recruiterID, id uuid.UUID) error {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.RecruiterID != recruiterID {
		return errors.Forbidden("job belongs to another recruiter", nil)
	}
	return s.jobs.Delete(ctx, id)
}

func (s *service) List(ctx context.Context, filters *model.JobFilters) ([]*model.Job, int, error) {
	filters.Normalize(defaultPageSize, maxPageSize)
	if filters.Status == "" {
		filters.Status = model.JobStatusActive
	}
	return s.jobs.List(ctx, filters)
}

func (s *service) ListByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]*model.Job, error) {
	return s.jobs.ListByRecruiter(ctx, recruiterID)
}

// Recommendations scores recent active jobs against the candidate's
// profile. The AI call is memoized downstream, so repeated dashboard
// loads do not re-query the model.
func (s *service) Recommendations(ctx context.Context, candidateID uuid.UUID) ([]*RecommendedJob, error) {
	profile, err := s.profiles.GetByUserID(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	filters := &model.JobFilters{Status: model.JobStatusActive}
	filters.Page = 1
	filters.PageSize = matchCandidates
	jobs, _, err := s.jobs.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	matches, err := s.aiSvc.MatchJobs(ctx, profile, jobs)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*model.Job, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
	}

	var recs []*RecommendedJob
	for _, m := range matches {
		job, ok := byID[m.JobID]
		if !ok {
			continue
		}
		recs = append(recs, &RecommendedJob{Job: job, Score: m.Score, Reason: m.Reason})
	}
	return recs, nil
}

func (s *service) PopularSkills(ctx context.Context) ([]*model.SkillCount, error) {
	return s.jobs.PopularSkills(ctx, popularSkillsTop)
}
