package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeApplication  NotificationType = "application"
	NotificationTypeStatusUpdate NotificationType = "status_update"
	NotificationTypeMessage      NotificationType = "message"
)

// Notification is the persisted record behind a new_notification event.
// The realtime layer emits a copy of it at creation time but does not
// own its lifecycle.
type Notification struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	RecipientID uuid.UUID        `json:"recipient_id" db:"recipient_id"`
	SenderID    uuid.UUID        `json:"sender_id" db:"sender_id"`
	Type        NotificationType `json:"type" db:"type"`
	Content     string           `json:"content" db:"content"`
	Link        string           `json:"link,omitempty" db:"link"`
	IsRead      bool             `json:"is_read" db:"is_read"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`

	Sender *PublicUser `json:"sender,omitempty" db:"sender"`
}
