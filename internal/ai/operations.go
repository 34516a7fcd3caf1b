package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/hireloop/jobboard-api/internal/model"
)

// ParsedCV is the structured result of CV extraction. Field shapes
// mirror the profile model so the result can be applied directly.
type ParsedCV struct {
	BasicInfo  model.BasicInfo      `json:"basic_info"`
	Education  model.EducationList  `json:"education"`
	Experience model.ExperienceList `json:"experience"`
	Skills     model.SkillList      `json:"skills"`
}

// JobMatch is one scored entry of the recommendation list.
type JobMatch struct {
	JobID  uuid.UUID `json:"job_id"`
	Score  int       `json:"score"`
	Reason string    `json:"reason"`
}

// CandidateRank is one scored applicant in a recruiter's ranking.
type CandidateRank struct {
	ApplicationID uuid.UUID `json:"application_id"`
	Score         int       `json:"score"`
	Strengths     []string  `json:"strengths"`
	Gaps          []string  `json:"gaps"`
}

// ApplicationInsights is the candidate-facing fit assessment.
type ApplicationInsights struct {
	FitScore       int      `json:"fit_score"`
	Summary        string   `json:"summary"`
	MatchingSkills []string `json:"matching_skills"`
	MissingSkills  []string `json:"missing_skills"`
	Suggestions    []string `json:"suggestions"`
}

// OutreachDraft is a generated recruiter-to-candidate message.
type OutreachDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Service interface {
	ParseCV(ctx context.Context, cvText string) (*ParsedCV, error)
	MatchJobs(ctx context.Context, profile *model.Profile, jobs []*model.Job) ([]*JobMatch, error)
	RankCandidates(ctx context.Context, job *model.Job, applicants []*model.Applicant) ([]*CandidateRank, error)
	ApplicationInsights(ctx context.Context, job *model.Job, profile *model.Profile) (*ApplicationInsights, error)
	OutreachDraft(ctx context.Context, recruiterName string, job *model.Job, candidate *model.PublicUser, profile *model.Profile) (*OutreachDraft, error)
}

type service struct {
	client *Client
	cache  *cache.Cache
}

// NewService wraps the transport client with response caching. Matching
// and insight calls are memoized because they are pure functions of
// their inputs and the API is slow and metered.
func NewService(client *Client, cacheTTL time.Duration) Service {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &service{
		client: client,
		cache:  cache.New(cacheTTL, 2*cacheTTL),
	}
}

func cacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *service) ParseCV(ctx context.Context, cvText string) (*ParsedCV, error) {
	raw, err := s.client.generate(ctx, "parse_cv", parseCVPrompt(cvText))
	if err != nil {
		return nil, err
	}

	var parsed ParsedCV
	if err := decodeInto(raw, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (s *service) MatchJobs(ctx context.Context, profile *model.Profile, jobs []*model.Job) ([]*JobMatch, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	prompt := matchJobsPrompt(profile, jobs)
	key := cacheKey("match_jobs", profile.UserID.String(), prompt)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*JobMatch), nil
	}

	raw, err := s.client.generate(ctx, "match_jobs", prompt)
	if err != nil {
		return nil, err
	}

	var matches []*JobMatch
	if err := decodeInto(raw, &matches); err != nil {
		return nil, err
	}

	s.cache.Set(key, matches, cache.DefaultExpiration)
	return matches, nil
}

func (s *service) RankCandidates(ctx context.Context, job *model.Job, applicants []*model.Applicant) ([]*CandidateRank, error) {
	if len(applicants) == 0 {
		return nil, nil
	}

	prompt := rankCandidatesPrompt(job, applicants)
	key := cacheKey("rank_candidates", job.ID.String(), prompt)
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*CandidateRank), nil
	}

	raw, err := s.client.generate(ctx, "rank_candidates", prompt)
	if err != nil {
		return nil, err
	}

	var ranks []*CandidateRank
	if err := decodeInto(raw, &ranks); err != nil {
		return nil, err
	}

	s.cache.Set(key, ranks, cache.DefaultExpiration)
	return ranks, nil
}

func (s *service) ApplicationInsights(ctx context.Context, job *model.Job, profile *model.Profile) (*ApplicationInsights, error) {
	prompt := applicationInsightsPrompt(job, profile)
	key := cacheKey("application_insights", job.ID.String(), profile.UserID.String(), prompt)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*ApplicationInsights), nil
	}

	raw, err := s.client.generate(ctx, "application_insights", prompt)
	if err != nil {
		return nil, err
	}

	var insights ApplicationInsights
	if err := decodeInto(raw, &insights); err != nil {
		return nil, err
	}

	s.cache.Set(key, &insights, cache.DefaultExpiration)
	return &insights, nil
}

func (s *service) OutreachDraft(ctx context.Context, recruiterName string, job *model.Job, candidate *model.PublicUser, profile *model.Profile) (*OutreachDraft, error) {
	raw, err := s.client.generate(ctx, "outreach_draft",
		outreachDraftPrompt(recruiterName, job, candidate, profile))
	if err != nil {
		return nil, err
	}

	var draft OutreachDraft
	if err := decodeInto(raw, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}
