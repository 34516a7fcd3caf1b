package realtime

import (
	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/model"
)

// EventType names are wire-visible: clients switch on them directly.
type EventType string

const (
	EventNewNotification EventType = "new_notification"
	EventNewApplication  EventType = "new_application"
	EventStatusUpdated   EventType = "application_status_updated"
	EventNewMessage      EventType = "new_message"
	EventMessagesRead    EventType = "messages_read"
	EventUserTyping      EventType = "user_typing"
	EventUserStopTyping  EventType = "user_stop_typing"
)

// Event is a typed, fire-and-forget message describing a domain state
// change. It is transient: never stored, only forwarded to live sessions.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
}

type NotificationPayload struct {
	Notification *model.Notification `json:"notification"`
}

type NewApplicationPayload struct {
	JobID         uuid.UUID `json:"job_id"`
	JobTitle      string    `json:"job_title"`
	CandidateID   uuid.UUID `json:"candidate_id"`
	CandidateName string    `json:"candidate_name,omitempty"`
	ApplicationID uuid.UUID `json:"application_id"`
}

type StatusUpdatedPayload struct {
	ApplicationID uuid.UUID               `json:"application_id"`
	JobID         uuid.UUID               `json:"job_id"`
	JobTitle      string                  `json:"job_title"`
	Status        model.ApplicationStatus `json:"status"`
}

type NewMessagePayload struct {
	ConversationID uuid.UUID      `json:"conversation_id"`
	Message        *model.Message `json:"message"`
}

type MessagesReadPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	ReadBy         uuid.UUID `json:"read_by"`
}

// TypingPayload carries an explicit conversation scope so typing
// indicators only reach the conversation's participants.
type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	UserName       string    `json:"user_name,omitempty"`
}

func NewNotificationEvent(n *model.Notification) Event {
	return Event{Type: EventNewNotification, Payload: NotificationPayload{Notification: n}}
}
