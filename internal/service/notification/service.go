package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service interface {
	Record(ctx context.Context, n *model.Notification) (*model.Notification, error)
	List(ctx context.Context, recipientID uuid.UUID, p *model.Pagination) ([]*model.Notification, int, error)
	MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

type service struct {
	notifications repository.NotificationRepository
	logger        *logger.Logger
}

func NewService(notifications repository.NotificationRepository, log *logger.Logger) Service {
	return &service{notifications: notifications, logger: log}
}

// Record persists the notification. Callers emit the realtime event
// themselves, after this returns: the row must exist before anything
// references it.
func (s *service) Record(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *service) List(ctx context.Context, recipientID uuid.UUID, p *model.Pagination) ([]*model.Notification, int, error) {
	p.Normalize(defaultPageSize, maxPageSize)

	notifications, err := s.notifications.List(ctx, recipientID, p)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.notifications.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

func (s *service) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.notifications.MarkRead(ctx, id, recipientID)
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return s.notifications.MarkAllRead(ctx, recipientID)
}
