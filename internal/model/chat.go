package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Conversation is a two-party chat thread.
type Conversation struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	ParticipantA  uuid.UUID  `json:"-" db:"participant_a"`
	ParticipantB  uuid.UUID  `json:"-" db:"participant_b"`
	LastMessageID *uuid.UUID `json:"-" db:"last_message_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`

	// Hydrated by the repository, not stored on the row.
	Participants []PublicUser `json:"participants" db:"-"`
	LastMessage  *Message     `json:"last_message,omitempty" db:"-"`
}

// ParticipantIDs returns both sides of the conversation.
func (c *Conversation) ParticipantIDs() []uuid.UUID {
	return []uuid.UUID{c.ParticipantA, c.ParticipantB}
}

// HasParticipant reports whether the user belongs to the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// OtherParticipants returns every participant except the given user.
func (c *Conversation) OtherParticipants(userID uuid.UUID) []uuid.UUID {
	var others []uuid.UUID
	for _, id := range c.ParticipantIDs() {
		if id != userID {
			others = append(others, id)
		}
	}
	return others
}

// UUIDList is a jsonb-stored set of user ids (message read receipts).
type UUIDList []uuid.UUID

func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}
func (l *UUIDList) Scan(src interface{}) error { return scanJSON(src, l) }

func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

type Message struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id" db:"sender_id"`
	Content        string    `json:"content" db:"content"`
	ReadBy         UUIDList  `json:"read_by" db:"read_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	Sender *PublicUser `json:"sender,omitempty" db:"-"`
}

type CreateConversationRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
}

type SendMessageRequest struct {
	ConversationID uuid.UUID `json:"conversation_id" binding:"required"`
	Content        string    `json:"content" binding:"required"`
}
