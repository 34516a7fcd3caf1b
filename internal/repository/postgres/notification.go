package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/errors"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient_id, sender_id, type, content, link, is_read, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	n.ID = uuid.New()
	n.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.SenderID,
		n.Type,
		n.Content,
		n.Link,
		n.IsRead,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) List(ctx context.Context, recipientID uuid.UUID, p *model.Pagination) ([]*model.Notification, error) {
	query := `
		SELECT
			n.id, n.recipient_id, n.sender_id, n.type, n.content,
			n.link, n.is_read, n.created_at,
			u.id AS "sender.id", u.name AS "sender.name",
			u.email AS "sender.email", u.role AS "sender.role"
		FROM notifications n
		JOIN users u ON u.id = n.sender_id
		WHERE n.recipient_id = $1
		ORDER BY n.created_at DESC
		LIMIT $2 OFFSET $3
	`

	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, recipientID, p.PageSize, p.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND is_read = false
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, recipientID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips a single notification. The recipient filter keeps one
// user from acknowledging another's notifications.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND recipient_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("notification", nil)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE recipient_id = $1 AND is_read = false
	`

	result, err := r.db.ExecContext(ctx, query, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}
