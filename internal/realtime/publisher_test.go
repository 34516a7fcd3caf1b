package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/jobboard-api/internal/model"
)

// chanBroker is an in-memory messaging.Broker for tests.
type chanBroker struct {
	msgs chan []byte
}

func newChanBroker() *chanBroker {
	return &chanBroker{msgs: make(chan []byte, 32)}
}

func (b *chanBroker) Publish(_ context.Context, _ string, message interface{}) error {
	raw, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.msgs <- raw
	return nil
}

func (b *chanBroker) Subscribe(_ context.Context, _ string) (<-chan []byte, error) {
	return b.msgs, nil
}

func (b *chanBroker) Close() error { return nil }

func TestPublishSuppressesSelfNotification(t *testing.T) {
	registry := NewRegistry(nil, nil)
	actor := uuid.New()

	ch, err := registry.Join("conn-1", actor)
	require.NoError(t, err)

	pub := NewPublisher(registry, nil, nil)
	pub.Publish(context.Background(), actor, Event{Type: EventNewMessage}, actor)

	assertNoEvent(t, ch)
}

func TestPublishDeliversToOtherRecipients(t *testing.T) {
	registry := NewRegistry(nil, nil)
	sender := uuid.New()
	recipient := uuid.New()

	senderCh, err := registry.Join("conn-sender", sender)
	require.NoError(t, err)
	recipientCh, err := registry.Join("conn-recipient", recipient)
	require.NoError(t, err)

	pub := NewPublisher(registry, nil, nil)
	ev := Event{Type: EventNewMessage, Payload: NewMessagePayload{ConversationID: uuid.New()}}
	pub.Publish(context.Background(), sender, ev, sender, recipient)

	got := recvEvent(t, recipientCh)
	assert.Equal(t, EventNewMessage, got.Type)
	assertNoEvent(t, senderCh)
}

func TestPublishToOfflineRecipientIsSilent(t *testing.T) {
	registry := NewRegistry(nil, nil)
	pub := NewPublisher(registry, nil, nil)

	// Recipient has no live session; must not error or panic.
	pub.Publish(context.Background(), uuid.New(), Event{Type: EventStatusUpdated}, uuid.New())
}

func TestPublishSkipsNilRecipient(t *testing.T) {
	registry := NewRegistry(nil, nil)
	pub := NewPublisher(registry, nil, nil)

	pub.Publish(context.Background(), uuid.New(), Event{Type: EventNewNotification}, uuid.Nil)
}

func TestBrokerBridgeReplaysIntoLocalRegistry(t *testing.T) {
	registry := NewRegistry(nil, nil)
	recipient := uuid.New()

	ch, err := registry.Join("conn-1", recipient)
	require.NoError(t, err)

	broker := newChanBroker()
	pub := NewPublisher(registry, nil, nil).WithBroker(broker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pub.Run(ctx)

	notif := &model.Notification{ID: uuid.New(), RecipientID: recipient}
	pub.Publish(ctx, uuid.New(), NewNotificationEvent(notif), recipient)

	got := recvEvent(t, ch)
	assert.Equal(t, EventNewNotification, got.Type)
}

func TestBrokerBridgeIgnoresMalformedEnvelopes(t *testing.T) {
	registry := NewRegistry(nil, nil)
	recipient := uuid.New()

	ch, err := registry.Join("conn-1", recipient)
	require.NoError(t, err)

	broker := newChanBroker()
	pub := NewPublisher(registry, nil, nil).WithBroker(broker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pub.Run(ctx)

	broker.msgs <- []byte("not json")
	pub.Publish(ctx, uuid.New(), Event{Type: EventMessagesRead}, recipient)

	// The malformed message is skipped, the valid one still arrives.
	got := recvEvent(t, ch)
	assert.Equal(t, EventMessagesRead, got.Type)

	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
