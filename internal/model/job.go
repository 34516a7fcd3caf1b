package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type JobStatus string

const (
	JobStatusActive JobStatus = "Active"
	JobStatusClosed JobStatus = "Closed"
)

type JobType string

const (
	JobTypeFullTime   JobType = "Full-time"
	JobTypePartTime   JobType = "Part-time"
	JobTypeContract   JobType = "Contract"
	JobTypeFreelance  JobType = "Freelance"
	JobTypeInternship JobType = "Internship"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeFreelance, JobTypeInternship:
		return true
	}
	return false
}

type Job struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	RecruiterID     uuid.UUID      `json:"recruiter_id" db:"recruiter_id"`
	Title           string         `json:"title" db:"title"`
	Company         string         `json:"company" db:"company"`
	Location        string         `json:"location,omitempty" db:"location"`
	Type            JobType        `json:"type" db:"type"`
	Salary          string         `json:"salary,omitempty" db:"salary"`
	Description     string         `json:"description,omitempty" db:"description"`
	Requirements    pq.StringArray `json:"requirements" db:"requirements"`
	Benefits        pq.StringArray `json:"benefits" db:"benefits"`
	Skills          pq.StringArray `json:"skills" db:"skills"`
	Experience      string         `json:"experience,omitempty" db:"experience"`
	Department      string         `json:"department,omitempty" db:"department"`
	ApplicantsCount int            `json:"applicants_count" db:"applicants_count"`
	Status          JobStatus      `json:"status" db:"status"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

type CreateJobRequest struct {
	Title        string   `json:"title" binding:"required"`
	Company      string   `json:"company" binding:"required"`
	Location     string   `json:"location"`
	Type         JobType  `json:"type" binding:"omitempty,jobtype"`
	Salary       string   `json:"salary"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Benefits     []string `json:"benefits"`
	Skills       []string `json:"skills"`
	Experience   string   `json:"experience"`
	Department   string   `json:"department"`
}

type UpdateJobRequest struct {
	Title        *string    `json:"title"`
	Company      *string    `json:"company"`
	Location     *string    `json:"location"`
	Type         *JobType   `json:"type" binding:"omitempty,jobtype"`
	Salary       *string    `json:"salary"`
	Description  *string    `json:"description"`
	Requirements []string   `json:"requirements"`
	Benefits     []string   `json:"benefits"`
	Skills       []string   `json:"skills"`
	Experience   *string    `json:"experience"`
	Department   *string    `json:"department"`
	Status       *JobStatus `json:"status"`
}

// JobFilters narrows the public job listing.
type JobFilters struct {
	Search   string    `form:"search"`
	Type     JobType   `form:"type"`
	Location string    `form:"location"`
	Status   JobStatus `form:"status"`
	Pagination
}

// SkillCount is one row of the popular-skills aggregation.
type SkillCount struct {
	Skill string `json:"skill" db:"skill"`
	Count int    `json:"count" db:"count"`
}
