package client

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/realtime"
)

// These tests feed frames marshaled from the server's own event types
// through the consumer, so a drift in either wire shape fails here.

func TestConsumerDecodesServerNotificationFrame(t *testing.T) {
	srv := newStreamServer(t)
	c := newTestConsumer(t, srv, nil)

	waitFor(t, func() bool { return srv.joinCount() == 1 })

	frame, err := json.Marshal(realtime.NewNotificationEvent(&model.Notification{
		ID:          uuid.New(),
		RecipientID: uuid.New(),
		SenderID:    uuid.New(),
		Type:        model.NotificationTypeApplication,
		Content:     "New application for Backend Engineer",
	}))
	require.NoError(t, err)
	srv.pushRaw(t, frame)

	waitFor(t, func() bool { return c.Snapshot().UnreadNotifications == 1 })

	snap := c.Snapshot()
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "New application for Backend Engineer", snap.Notifications[0].Content)
	assert.NotEmpty(t, snap.Notifications[0].ID)
}

func TestConsumerDecodesServerMessageFrame(t *testing.T) {
	srv := newStreamServer(t)
	c := newTestConsumer(t, srv, nil)

	waitFor(t, func() bool { return srv.joinCount() == 1 })

	convID := uuid.New()
	c.OpenConversation(convID.String())

	frame, err := json.Marshal(realtime.Event{
		Type: realtime.EventNewMessage,
		Payload: realtime.NewMessagePayload{
			ConversationID: convID,
			Message: &model.Message{
				ID:             uuid.New(),
				ConversationID: convID,
				SenderID:       uuid.New(),
				Content:        "hello there",
			},
		},
	})
	require.NoError(t, err)
	srv.pushRaw(t, frame)

	waitFor(t, func() bool { return len(c.Snapshot().Messages) == 1 })

	snap := c.Snapshot()
	assert.Equal(t, "hello there", snap.Messages[0].Content)
	assert.Equal(t, convID.String(), snap.Messages[0].ConversationID)
	assert.False(t, snap.ConversationsStale)
}
