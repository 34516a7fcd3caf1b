package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/ai"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/realtime"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/errors"
	"github.com/hireloop/jobboard-api/pkg/logger"
)

const recentFeedLimit = 10

type Service interface {
	Apply(ctx context.Context, candidateID uuid.UUID, req *model.ApplyRequest) (*model.Application, error)
	UpdateStatus(ctx context.Context, recruiterID, applicationID uuid.UUID, status model.ApplicationStatus) (*model.Application, error)
	ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]*model.ApplicationWithJob, error)
	ListByJob(ctx context.Context, recruiterID, jobID uuid.UUID) ([]*model.Applicant, error)
	Recent(ctx context.Context, recruiterID uuid.UUID) ([]*model.RecentApplication, error)
	RankApplicants(ctx context.Context, recruiterID, jobID uuid.UUID) ([]*ai.CandidateRank, error)
	OutreachDraft(ctx context.Context, recruiterID, applicationID uuid.UUID) (*ai.OutreachDraft, error)
	Insights(ctx context.Context, candidateID, jobID uuid.UUID) (*ai.ApplicationInsights, error)
	MonthlyStats(ctx context.Context, recruiterID uuid.UUID) ([]*model.MonthlyApplicationCount, error)
}

type service struct {
	applications repository.ApplicationRepository
	jobs         repository.JobRepository
	profiles     repository.ProfileRepository
	users        repository.UserRepository
	notifier     NotificationWriter
	publisher    *realtime.Publisher
	aiSvc        ai.Service
	logger       *logger.Logger
}

// NotificationWriter is the slice of the notification service this
// package needs: persist first, emit after.
type NotificationWriter interface {
	Record(ctx context.Context, n *model.Notification) (*model.Notification, error)
}

func NewService(
	applications repository.ApplicationRepository,
	jobs repository.JobRepository,
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	notifier NotificationWriter,
	publisher *realtime.Publisher,
	aiSvc ai.Service,
	log *logger.Logger,
) Service {
	return &service{
		applications: applications,
		jobs:         jobs,
		profiles:     profiles,
		users:        users,
		notifier:     notifier,
		publisher:    publisher,
		aiSvc:        aiSvc,
		logger:       log,
	}
}

// Apply creates the application, then notifies the job's recruiter.
// Everything after the application row is committed is best-effort.
func (s *service) Apply(ctx context.Context, candidateID uuid.UUID, req *model.ApplyRequest) (*model.Application, error) {
	job, err := s.jobs.Get(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusActive {
		return nil, errors.BadRequest("job is no longer accepting applications", nil)
	}

	exists, err := s.applications.Exists(ctx, job.ID, candidateID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Conflict("already applied to this job", nil)
	}

	app := &model.Application{
		JobID:       job.ID,
		CandidateID: candidateID,
		Status:      model.ApplicationStatusApplied,
	}
	if profile, err := s.profiles.GetByUserID(ctx, candidateID); err == nil {
		app.ResumeSnapshot = profile.CVText
	}

	if err := s.applications.Create(ctx, app, string(realtime.EventNewApplication)); err != nil {
		return nil, err
	}

	if err := s.jobs.IncrementApplicants(ctx, job.ID); err != nil {
		s.logger.Error(err, "failed to increment applicants count", "job_id", job.ID.String())
	}

	candidate, err := s.users.Get(ctx, candidateID)
	if err != nil {
		s.logger.Error(err, "failed to load candidate for notification", "candidate_id", candidateID.String())
		return app, nil
	}

	notification := &model.Notification{
		RecipientID: job.RecruiterID,
		SenderID:    candidateID,
		Type:        model.NotificationTypeApplication,
		Content:     fmt.Sprintf("%s applied for %s", candidate.Name, job.Title),
		Link:        fmt.Sprintf("/jobs/%s/applicants", job.ID),
	}
	saved, err := s.notifier.Record(ctx, notification)
	if err != nil {
		s.logger.Error(err, "failed to record application notification", "application_id", app.ID.String())
		return app, nil
	}

	s.publisher.Publish(ctx, candidateID, realtime.NewNotificationEvent(saved), job.RecruiterID)
	s.publisher.Publish(ctx, candidateID, realtime.Event{
		Type: realtime.EventNewApplication,
		Payload: realtime.NewApplicationPayload{
			ApplicationID: app.ID,
			JobID:         job.ID,
			JobTitle:      job.Title,
			CandidateID:   candidateID,
			CandidateName: candidate.Name,
		},
	}, job.RecruiterID)

	return app, nil
}

// UpdateStatus moves an application through the pipeline and notifies
// the candidate after the new status is committed.
func (s *service) UpdateStatus(ctx context.Context, recruiterID, applicationID uuid.UUID, status model.ApplicationStatus) (*model.Application, error) {
	if !status.Valid() {
		return nil, errors.BadRequest("invalid application status", nil)
	}

	app, err := s.applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.Get(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, errors.Forbidden("application belongs to another recruiter's job", nil)
	}

	if err := s.applications.UpdateStatus(ctx, app, status, string(realtime.EventStatusUpdated)); err != nil {
		return nil, err
	}

	notification := &model.Notification{
		RecipientID: app.CandidateID,
		SenderID:    recruiterID,
		Type:        model.NotificationTypeStatusUpdate,
		Content:     fmt.Sprintf("Your application for %s is now %s", job.Title, status),
		Link:        "/applications",
	}
	saved, err := s.notifier.Record(ctx, notification)
	if err != nil {
		s.logger.Error(err, "failed to record status notification", "application_id", app.ID.String())
		return app, nil
	}

	s.publisher.Publish(ctx, recruiterID, realtime.NewNotificationEvent(saved), app.CandidateID)
	s.publisher.Publish(ctx, recruiterID, realtime.Event{
		Type: realtime.EventStatusUpdated,
		Payload: realtime.StatusUpdatedPayload{
			ApplicationID: app.ID,
			JobID:         job.ID,
			JobTitle:      job.Title,
			Status:        status,
		},
	}, app.CandidateID)

	return app, nil
}

func (s *service) ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]*model.ApplicationWithJob, error) {
	return s.applications.ListByCandidate(ctx, candidateID)
}

func (s *service) ListByJob(ctx context.Context, recruiterID, jobID uuid.UUID) ([]*model.Applicant, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, errors.Forbidden("job belongs to another recruiter", nil)
	}

	applicants, err := s.applications.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	// Hydrate candidate profiles for the review screen.
	for _, a := range applicants {
		if profile, err := s.profiles.GetByUserID(ctx, a.CandidateID); err == nil {
			a.Profile = profile
		}
	}
	return applicants, nil
}

// Recent is the recruiter's activity feed, capped at the last ten
// applications across all of their jobs.
func (s *service) Recent(ctx context.Context, recruiterID uuid.UUID) ([]*model.RecentApplication, error) {
	return s.applications.ListRecent(ctx, recruiterID, recentFeedLimit)
}

func (s *service) RankApplicants(ctx context.Context, recruiterID, jobID uuid.UUID) ([]*ai.CandidateRank, error) {
	applicants, err := s.ListByJob(ctx, recruiterID, jobID)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s.aiSvc.RankCandidates(ctx, job, applicants)
}

func (s *service) Insights(ctx context.Context, candidateID, jobID uuid.UUID) (*ai.ApplicationInsights, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByUserID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	return s.aiSvc.ApplicationInsights(ctx, job, profile)
}

func (s *service) MonthlyStats(ctx context.Context, recruiterID uuid.UUID) ([]*model.MonthlyApplicationCount, error) {
	return s.applications.CountByMonth(ctx, recruiterID, 6)
}

// OutreachDraft asks the assistant for a first-contact message to the
// candidate behind an application. Only the recruiter who owns the job
// may request one, and the candidate must have a profile to draw on.
func (s *service) OutreachDraft(ctx context.Context, recruiterID, applicationID uuid.UUID) (*ai.OutreachDraft, error) {
	app, err := s.applications.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	job, err := s.jobs.Get(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, errors.Forbidden("application belongs to another recruiter's job", nil)
	}

	candidate, err := s.users.Get(ctx, app.CandidateID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByUserID(ctx, app.CandidateID)
	if err != nil {
		return nil, err
	}

	recruiter, err := s.users.Get(ctx, recruiterID)
	if err != nil {
		return nil, err
	}

	return s.aiSvc.OutreachDraft(ctx, recruiter.Name, job, candidate.Public(), profile)
}
