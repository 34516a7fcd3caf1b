package application

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/jobboard-api/internal/ai"
	"github.com/hireloop/jobboard-api/internal/middleware"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/service/application"
	"github.com/hireloop/jobboard-api/pkg/errors"
)

type fakeService struct {
	recent      []*model.RecentApplication
	draft       *ai.OutreachDraft
	draftErr    error
	draftedFor  uuid.UUID
	recentCalls int
}

var _ application.Service = (*fakeService)(nil)

func (f *fakeService) Apply(_ context.Context, _ uuid.UUID, _ *model.ApplyRequest) (*model.Application, error) {
	return nil, nil
}

func (f *fakeService) UpdateStatus(_ context.Context, _, _ uuid.UUID, _ model.ApplicationStatus) (*model.Application, error) {
	return nil, nil
}

func (f *fakeService) ListByCandidate(_ context.Context, _ uuid.UUID) ([]*model.ApplicationWithJob, error) {
	return nil, nil
}

func (f *fakeService) ListByJob(_ context.Context, _, _ uuid.UUID) ([]*model.Applicant, error) {
	return nil, nil
}

func (f *fakeService) Recent(_ context.Context, _ uuid.UUID) ([]*model.RecentApplication, error) {
	f.recentCalls++
	return f.recent, nil
}

func (f *fakeService) RankApplicants(_ context.Context, _, _ uuid.UUID) ([]*ai.CandidateRank, error) {
	return nil, nil
}

func (f *fakeService) OutreachDraft(_ context.Context, _, applicationID uuid.UUID) (*ai.OutreachDraft, error) {
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	f.draftedFor = applicationID
	return f.draft, nil
}

func (f *fakeService) Insights(_ context.Context, _, _ uuid.UUID) (*ai.ApplicationInsights, error) {
	return nil, nil
}

func (f *fakeService) MonthlyStats(_ context.Context, _ uuid.UUID) ([]*model.MonthlyApplicationCount, error) {
	return nil, nil
}

func newTestRouter(svc application.Service, userID uuid.UUID, role model.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextUserRole, string(role))
	})

	NewHandler(svc, middleware.NewAuthMiddleware(nil)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestRecentReturnsFeed(t *testing.T) {
	svc := &fakeService{
		recent: []*model.RecentApplication{
			{
				Application: model.Application{ID: uuid.New()},
				Candidate:   model.PublicUser{Name: "Carl Candidate"},
				JobTitle:    "Backend Engineer",
			},
		},
	}
	r := newTestRouter(svc, uuid.New(), model.RoleRecruiter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/applications/recent", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.recentCalls)

	var resp struct {
		Data []struct {
			JobTitle  string `json:"job_title"`
			Candidate struct {
				Name string `json:"name"`
			} `json:"candidate"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Backend Engineer", resp.Data[0].JobTitle)
	assert.Equal(t, "Carl Candidate", resp.Data[0].Candidate.Name)
}

func TestRecentRequiresRecruiterRole(t *testing.T) {
	r := newTestRouter(&fakeService{}, uuid.New(), model.RoleCandidate)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/applications/recent", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOutreachDraftReturnsDraft(t *testing.T) {
	appID := uuid.New()
	svc := &fakeService{draft: &ai.OutreachDraft{Subject: "Hello", Body: "We liked your profile."}}
	r := newTestRouter(svc, uuid.New(), model.RoleRecruiter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/applications/"+appID.String()+"/outreach-draft", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, appID, svc.draftedFor)

	var resp struct {
		Data ai.OutreachDraft `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hello", resp.Data.Subject)
}

func TestOutreachDraftRejectsMalformedID(t *testing.T) {
	r := newTestRouter(&fakeService{}, uuid.New(), model.RoleRecruiter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/applications/not-a-uuid/outreach-draft", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutreachDraftMapsForbiddenToStatus403(t *testing.T) {
	svc := &fakeService{draftErr: errors.Forbidden("application belongs to another recruiter's job", nil)}
	r := newTestRouter(svc, uuid.New(), model.RoleRecruiter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/applications/"+uuid.NewString()+"/outreach-draft", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
}
