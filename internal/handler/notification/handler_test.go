package notification

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

	"github.com/hireloop/jobboard-api/internal/middleware"
	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/service/notification"
	"github.com/hireloop/jobboard-api/pkg/errors"
)

type fakeService struct {
	notifications []*model.Notification
	unread        int
	markReadErr   error
	markedRead    []uuid.UUID
}

var _ notification.Service = (*fakeService)(nil)

func (f *fakeService) Record(_ context.Context, n *model.Notification) (*model.Notification, error) {
	return n, nil
}

func (f *fakeService) List(_ context.Context, _ uuid.UUID, _ *model.Pagination) ([]*model.Notification, int, error) {
	return f.notifications, f.unread, nil
}

func (f *fakeService) MarkRead(_ context.Context, id, _ uuid.UUID) error {
	if f.markReadErr != nil {
		return f.markReadErr
	}
	f.markedRead = append(f.markedRead, id)
	return nil
}

func (f *fakeService) MarkAllRead(_ context.Context, _ uuid.UUID) (int64, error) {
	return int64(len(f.notifications)), nil
}

func newTestRouter(svc notification.Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
	})

	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestListReturnsNotificationsWithUnreadCount(t *testing.T) {
	userID := uuid.New()
	svc := &fakeService{
		notifications: []*model.Notification{
			{ID: uuid.New(), RecipientID: userID, Type: model.NotificationTypeApplication, Content: "Ada applied for Go Engineer"},
		},
		unread: 3,
	}
	r := newTestRouter(svc, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?page=1&page_size=10", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Notifications []json.RawMessage `json:"notifications"`
			Unread        int               `json:"unread"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Len(t, resp.Data.Notifications, 1)
	assert.Equal(t, 3, resp.Data.Unread)
}

func TestMarkReadRejectsMalformedID(t *testing.T) {
	r := newTestRouter(&fakeService{}, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/not-a-uuid/read", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkReadMapsNotFoundToStatus404(t *testing.T) {
	svc := &fakeService{markReadErr: errors.NotFound("notification", nil)}
	r := newTestRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+uuid.NewString()+"/read", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAllRead(t *testing.T) {
	userID := uuid.New()
	svc := &fakeService{notifications: []*model.Notification{{}, {}}}
	r := newTestRouter(svc, userID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/read-all", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Updated int64 `json:"updated"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.Updated)
}
