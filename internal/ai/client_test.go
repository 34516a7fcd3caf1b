package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/jobboard-api/internal/model"
)

func newTestServer(t *testing.T, modelText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Contents)

		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": modelText}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestParseCVDecodesStructuredResult(t *testing.T) {
	payload := `{"basic_info":{"location":"Berlin"},"skills":[{"name":"Go","level":"Expert"}]}`
	srv := newTestServer(t, payload)
	defer srv.Close()

	svc := NewService(NewClient(srv.URL, "test-key", 5*time.Second), time.Minute)

	parsed, err := svc.ParseCV(context.Background(), "some cv text")
	require.NoError(t, err)
	assert.Equal(t, "Berlin", parsed.BasicInfo.Location)
	require.Len(t, parsed.Skills, 1)
	assert.Equal(t, "Go", parsed.Skills[0].Name)
}

func TestParseCVStripsMarkdownFences(t *testing.T) {
	payload := "```json\n{\"skills\":[{\"name\":\"Python\"}]}\n```"
	srv := newTestServer(t, payload)
	defer srv.Close()

	svc := NewService(NewClient(srv.URL, "test-key", 5*time.Second), time.Minute)

	parsed, err := svc.ParseCV(context.Background(), "cv")
	require.NoError(t, err)
	require.Len(t, parsed.Skills, 1)
	assert.Equal(t, "Python", parsed.Skills[0].Name)
}

func TestMatchJobsCachesResponses(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": `[{"job_id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8","score":85,"reason":"strong overlap"}]`}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	svc := NewService(NewClient(srv.URL, "test-key", 5*time.Second), time.Minute)

	profile := &model.Profile{Skills: model.SkillList{{Name: "Go"}}}
	jobs := []*model.Job{{Title: "Backend Engineer"}}

	first, err := svc.MatchJobs(context.Background(), profile, jobs)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 85, first[0].Score)

	second, err := svc.MatchJobs(context.Background(), profile, jobs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestGenerateSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 429, "message": "quota exceeded"},
		})
	}))
	defer srv.Close()

	svc := NewService(NewClient(srv.URL, "test-key", 5*time.Second), time.Minute)

	_, err := svc.ParseCV(context.Background(), "cv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateRejectsOversizedResponses(t *testing.T) {
	payload := `{"basic_info":{"location":"` + strings.Repeat("x", 200) + `"}}`
	srv := newTestServer(t, payload)
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 5*time.Second, WithMaxOutputChars(100))
	svc := NewService(client, time.Minute)

	_, err := svc.ParseCV(context.Background(), "cv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded 100 characters")
}

func TestExtractJSONFallsBackToBracePair(t *testing.T) {
	raw := "Here is the result: {\"fit_score\": 70} hope that helps"
	assert.Equal(t, `{"fit_score": 70}`, extractJSON(raw))
}
