package model

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusApplied     ApplicationStatus = "Applied"
	ApplicationStatusShortlisted ApplicationStatus = "Shortlisted"
	ApplicationStatusInterview   ApplicationStatus = "Interview"
	ApplicationStatusRejected    ApplicationStatus = "Rejected"
	ApplicationStatusHired       ApplicationStatus = "Hired"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusApplied, ApplicationStatusShortlisted,
		ApplicationStatusInterview, ApplicationStatusRejected,
		ApplicationStatusHired:
		return true
	}
	return false
}

// Application links a candidate to a job. One per job+candidate pair,
// enforced by a unique index.
type Application struct {
	ID             uuid.UUID         `json:"id" db:"id"`
	JobID          uuid.UUID         `json:"job_id" db:"job_id"`
	CandidateID    uuid.UUID         `json:"candidate_id" db:"candidate_id"`
	Status         ApplicationStatus `json:"status" db:"status"`
	Notes          string            `json:"notes,omitempty" db:"notes"`
	ResumeSnapshot string            `json:"resume_snapshot,omitempty" db:"resume_snapshot"`
	AppliedAt      time.Time         `json:"applied_at" db:"applied_at"`
	UpdatedAt      time.Time         `json:"updated_at" db:"updated_at"`
}

// ApplicationWithJob is an application joined with its job for the
// candidate's "my applications" listing.
type ApplicationWithJob struct {
	Application
	Job Job `json:"job"`
}

// Applicant is an application joined with the candidate and their
// profile for the recruiter's review screen.
type Applicant struct {
	Application
	Candidate PublicUser `json:"candidate"`
	Profile   *Profile   `json:"candidate_profile,omitempty"`
}

// RecentApplication is one row of the recruiter's activity feed:
// who applied to which of their jobs, newest first.
type RecentApplication struct {
	Application
	Candidate PublicUser `json:"candidate"`
	JobTitle  string     `json:"job_title" db:"job_title"`
}

type ApplyRequest struct {
	JobID uuid.UUID `json:"job_id" binding:"required"`
}

type UpdateApplicationStatusRequest struct {
	Status ApplicationStatus `json:"status" binding:"required"`
}

// MonthlyApplicationCount is one bucket of the stats aggregation.
type MonthlyApplicationCount struct {
	Month string `json:"month"`
	Count int    `json:"applications"`
}
