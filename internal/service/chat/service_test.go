package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/realtime"
	"github.com/hireloop/jobboard-api/pkg/errors"
	"github.com/hireloop/jobboard-api/pkg/logger"
)

type fakeChatRepo struct {
	convs        map[uuid.UUID]*model.Conversation
	messages     map[uuid.UUID][]*model.Message
	readerOf     map[uuid.UUID]uuid.UUID
	unread       int64
	outboxEvents []string
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		convs:    make(map[uuid.UUID]*model.Conversation),
		messages: make(map[uuid.UUID][]*model.Message),
		readerOf: make(map[uuid.UUID]uuid.UUID),
		unread:   1,
	}
}

func (r *fakeChatRepo) CreateConversation(_ context.Context, conv *model.Conversation) error {
	conv.ID = uuid.New()
	r.convs[conv.ID] = conv
	return nil
}

func (r *fakeChatRepo) GetConversation(_ context.Context, id uuid.UUID) (*model.Conversation, error) {
	conv, ok := r.convs[id]
	if !ok {
		return nil, errors.NotFound("conversation", nil)
	}
	return conv, nil
}

func (r *fakeChatRepo) FindConversation(_ context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	for _, c := range r.convs {
		if (c.ParticipantA == a && c.ParticipantB == b) || (c.ParticipantA == b && c.ParticipantB == a) {
			return c, nil
		}
	}
	return nil, errors.NotFound("conversation", nil)
}

func (r *fakeChatRepo) ListConversations(_ context.Context, userID uuid.UUID) ([]*model.Conversation, error) {
	var out []*model.Conversation
	for _, c := range r.convs {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) CreateMessage(_ context.Context, msg *model.Message, eventType string) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], msg)
	r.outboxEvents = append(r.outboxEvents, eventType)
	return nil
}

func (r *fakeChatRepo) ListMessages(_ context.Context, conversationID uuid.UUID, _ *model.Pagination) ([]*model.Message, error) {
	return r.messages[conversationID], nil
}

func (r *fakeChatRepo) MarkMessagesRead(_ context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	r.readerOf[conversationID] = readerID
	updated := r.unread
	r.unread = 0
	return updated, nil
}

func (r *fakeChatRepo) CountUnread(_ context.Context, _ uuid.UUID) (int, error) {
	return int(r.unread), nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(_ context.Context, _ *model.User) error { return nil }
func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("user", nil)
	}
	return u, nil
}
func (r *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, errors.NotFound("user", nil)
}
func (r *fakeUserRepo) GetByVerificationToken(_ context.Context, _ string) (*model.User, error) {
	return nil, errors.NotFound("user", nil)
}
func (r *fakeUserRepo) GetByResetToken(_ context.Context, _ string) (*model.User, error) {
	return nil, errors.NotFound("user", nil)
}
func (r *fakeUserRepo) Update(_ context.Context, _ *model.User) error { return nil }
func (r *fakeUserRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*model.User, error) {
	var out []*model.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	recorded []*model.Notification
}

func (n *recordingNotifier) Record(_ context.Context, notif *model.Notification) (*model.Notification, error) {
	notif.ID = uuid.New()
	n.recorded = append(n.recorded, notif)
	return notif, nil
}

type fixture struct {
	svc      Service
	registry *realtime.Registry
	chats    *fakeChatRepo
	notifier *recordingNotifier
	alice    *model.User
	bob      *model.User
	conv     *model.Conversation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	alice := &model.User{ID: uuid.New(), Name: "Alice", Role: model.RoleRecruiter}
	bob := &model.User{ID: uuid.New(), Name: "Bob", Role: model.RoleCandidate}

	chats := newFakeChatRepo()
	conv := &model.Conversation{ParticipantA: alice.ID, ParticipantB: bob.ID}
	require.NoError(t, chats.CreateConversation(context.Background(), conv))

	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{alice.ID: alice, bob.ID: bob}}
	notifier := &recordingNotifier{}

	registry := realtime.NewRegistry(nil, nil)
	publisher := realtime.NewPublisher(registry, nil, nil)

	svc := NewService(chats, users, notifier, publisher, logger.NewLogger(nil))

	return &fixture{
		svc:      svc,
		registry: registry,
		chats:    chats,
		notifier: notifier,
		alice:    alice,
		bob:      bob,
		conv:     conv,
	}
}

func recvEvent(t *testing.T, ch <-chan realtime.Event) realtime.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return realtime.Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan realtime.Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendMessageNotifiesOtherParticipantOnly(t *testing.T) {
	f := newFixture(t)

	aliceCh, err := f.registry.Join("conn-a", f.alice.ID)
	require.NoError(t, err)
	bobCh, err := f.registry.Join("conn-b", f.bob.ID)
	require.NoError(t, err)

	msg, err := f.svc.SendMessage(context.Background(), f.alice.ID, &model.SendMessageRequest{
		ConversationID: f.conv.ID,
		Content:        "hello there",
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "Alice", msg.Sender.Name)

	// Bob gets the persisted notification first, then the message event.
	assert.Equal(t, realtime.EventNewNotification, recvEvent(t, bobCh).Type)

	ev := recvEvent(t, bobCh)
	assert.Equal(t, realtime.EventNewMessage, ev.Type)
	payload, ok := ev.Payload.(realtime.NewMessagePayload)
	require.True(t, ok)
	assert.Equal(t, "hello there", payload.Message.Content)

	// The sender's own session stays silent.
	assertNoEvent(t, aliceCh)

	require.Len(t, f.notifier.recorded, 1)
	assert.Equal(t, f.bob.ID, f.notifier.recorded[0].RecipientID)

	// The outbox record rides in the same repository write as the row.
	require.Len(t, f.chats.outboxEvents, 1)
	assert.Equal(t, string(realtime.EventNewMessage), f.chats.outboxEvents[0])
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendMessage(context.Background(), uuid.New(), &model.SendMessageRequest{
		ConversationID: f.conv.ID,
		Content:        "let me in",
	})
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendMessage(context.Background(), f.alice.ID, &model.SendMessageRequest{
		ConversationID: f.conv.ID,
	})
	require.Error(t, err)
}

func TestMarkReadNotifiesSender(t *testing.T) {
	f := newFixture(t)

	aliceCh, err := f.registry.Join("conn-a", f.alice.ID)
	require.NoError(t, err)
	bobCh, err := f.registry.Join("conn-b", f.bob.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkRead(context.Background(), f.bob.ID, f.conv.ID))

	ev := recvEvent(t, aliceCh)
	assert.Equal(t, realtime.EventMessagesRead, ev.Type)
	payload, ok := ev.Payload.(realtime.MessagesReadPayload)
	require.True(t, ok)
	assert.Equal(t, f.bob.ID, payload.ReadBy)

	// The reader does not receive their own read receipt.
	assertNoEvent(t, bobCh)
}

func TestMarkReadWithNothingUnreadIsSilent(t *testing.T) {
	f := newFixture(t)
	f.chats.unread = 0

	aliceCh, err := f.registry.Join("conn-a", f.alice.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkRead(context.Background(), f.bob.ID, f.conv.ID))
	assertNoEvent(t, aliceCh)
}

func TestTypingReachesOnlyConversationPartner(t *testing.T) {
	f := newFixture(t)

	// A third user with a live session who is not in the conversation.
	outsider := uuid.New()
	outsiderCh, err := f.registry.Join("conn-o", outsider)
	require.NoError(t, err)

	bobCh, err := f.registry.Join("conn-b", f.bob.ID)
	require.NoError(t, err)

	f.svc.Typing(context.Background(), f.alice.ID, f.conv.ID, false)

	ev := recvEvent(t, bobCh)
	assert.Equal(t, realtime.EventUserTyping, ev.Type)
	payload, ok := ev.Payload.(realtime.TypingPayload)
	require.True(t, ok)
	assert.Equal(t, f.conv.ID, payload.ConversationID)
	assert.Equal(t, f.alice.ID, payload.UserID)

	assertNoEvent(t, outsiderCh)

	f.svc.Typing(context.Background(), f.alice.ID, f.conv.ID, true)
	assert.Equal(t, realtime.EventUserStopTyping, recvEvent(t, bobCh).Type)
}

func TestTypingUnknownConversationIsDropped(t *testing.T) {
	f := newFixture(t)

	bobCh, err := f.registry.Join("conn-b", f.bob.ID)
	require.NoError(t, err)

	f.svc.Typing(context.Background(), f.alice.ID, uuid.New(), false)
	assertNoEvent(t, bobCh)
}

func TestStartConversationIsIdempotent(t *testing.T) {
	f := newFixture(t)

	conv, err := f.svc.StartConversation(context.Background(), f.bob.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, f.conv.ID, conv.ID)
	assert.Len(t, conv.Participants, 2)
}

func TestStartConversationWithSelfFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartConversation(context.Background(), f.alice.ID, f.alice.ID)
	require.Error(t, err)
}
