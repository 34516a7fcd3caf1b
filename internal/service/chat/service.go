package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/realtime"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/errors"
	"github.com/hireloop/jobboard-api/pkg/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	maxMessageLen   = 4000
)

type Service interface {
	StartConversation(ctx context.Context, userID, recipientID uuid.UUID) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]*model.Conversation, error)
	SendMessage(ctx context.Context, senderID uuid.UUID, req *model.SendMessageRequest) (*model.Message, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID, p *model.Pagination) ([]*model.Message, error)
	MarkRead(ctx context.Context, readerID, conversationID uuid.UUID) error
	Typing(ctx context.Context, userID, conversationID uuid.UUID, stopped bool)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationWriter persists a notification row before the realtime
// event for it goes out.
type NotificationWriter interface {
	Record(ctx context.Context, n *model.Notification) (*model.Notification, error)
}

type service struct {
	chats     repository.ChatRepository
	users     repository.UserRepository
	notifier  NotificationWriter
	publisher *realtime.Publisher
	logger    *logger.Logger
}

func NewService(
	chats repository.ChatRepository,
	users repository.UserRepository,
	notifier NotificationWriter,
	publisher *realtime.Publisher,
	log *logger.Logger,
) Service {
	return &service{
		chats:     chats,
		users:     users,
		notifier:  notifier,
		publisher: publisher,
		logger:    log,
	}
}

// StartConversation returns the existing thread between the two users
// or creates one. Starting a conversation with yourself is rejected.
func (s *service) StartConversation(ctx context.Context, userID, recipientID uuid.UUID) (*model.Conversation, error) {
	if userID == recipientID {
		return nil, errors.BadRequest("cannot start a conversation with yourself", nil)
	}
	if _, err := s.users.Get(ctx, recipientID); err != nil {
		return nil, err
	}

	conv, err := s.chats.FindConversation(ctx, userID, recipientID)
	if err == nil {
		return s.hydrate(ctx, conv)
	}

	conv = &model.Conversation{ParticipantA: userID, ParticipantB: recipientID}
	if err := s.chats.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return s.hydrate(ctx, conv)
}

func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) ([]*model.Conversation, error) {
	convs, err := s.chats.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, conv := range convs {
		if _, err := s.hydrate(ctx, conv); err != nil {
			s.logger.Error(err, "failed to hydrate conversation", "conversation_id", conv.ID.String())
		}
	}
	return convs, nil
}

// SendMessage persists the message, then notifies every participant
// except the sender.
func (s *service) SendMessage(ctx context.Context, senderID uuid.UUID, req *model.SendMessageRequest) (*model.Message, error) {
	if len(req.Content) == 0 || len(req.Content) > maxMessageLen {
		return nil, errors.BadRequest("message content must be between 1 and 4000 characters", nil)
	}

	conv, err := s.chats.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(senderID) {
		return nil, errors.Forbidden("not a participant of this conversation", nil)
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        req.Content,
	}
	if err := s.chats.CreateMessage(ctx, msg, string(realtime.EventNewMessage)); err != nil {
		return nil, err
	}

	sender, err := s.users.Get(ctx, senderID)
	if err != nil {
		s.logger.Error(err, "failed to load sender", "sender_id", senderID.String())
		return msg, nil
	}
	msg.Sender = sender.Public()

	recipients := conv.OtherParticipants(senderID)

	for _, recipientID := range recipients {
		notification := &model.Notification{
			RecipientID: recipientID,
			SenderID:    senderID,
			Type:        model.NotificationTypeMessage,
			Content:     fmt.Sprintf("New message from %s", sender.Name),
			Link:        fmt.Sprintf("/messages/%s", conv.ID),
		}
		saved, err := s.notifier.Record(ctx, notification)
		if err != nil {
			s.logger.Error(err, "failed to record message notification", "message_id", msg.ID.String())
			continue
		}
		s.publisher.Publish(ctx, senderID, realtime.NewNotificationEvent(saved), recipientID)
	}

	s.publisher.Publish(ctx, senderID, realtime.Event{
		Type: realtime.EventNewMessage,
		Payload: realtime.NewMessagePayload{
			ConversationID: conv.ID,
			Message:        msg,
		},
	}, recipients...)

	return msg, nil
}

func (s *service) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, p *model.Pagination) ([]*model.Message, error) {
	conv, err := s.chats.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, errors.Forbidden("not a participant of this conversation", nil)
	}

	p.Normalize(defaultPageSize, maxPageSize)
	return s.chats.ListMessages(ctx, conversationID, p)
}

// MarkRead acknowledges everything unread in the conversation and tells
// the other participants their messages were seen.
func (s *service) MarkRead(ctx context.Context, readerID, conversationID uuid.UUID) error {
	conv, err := s.chats.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(readerID) {
		return errors.Forbidden("not a participant of this conversation", nil)
	}

	updated, err := s.chats.MarkMessagesRead(ctx, conversationID, readerID)
	if err != nil {
		return err
	}
	if updated == 0 {
		return nil
	}

	s.publisher.Publish(ctx, readerID, realtime.Event{
		Type: realtime.EventMessagesRead,
		Payload: realtime.MessagesReadPayload{
			ConversationID: conversationID,
			ReadBy:         readerID,
		},
	}, conv.OtherParticipants(readerID)...)

	return nil
}

// Typing forwards a transient typing indicator to the other
// participants. Nothing is persisted and unknown conversations are
// silently dropped.
func (s *service) Typing(ctx context.Context, userID, conversationID uuid.UUID, stopped bool) {
	conv, err := s.chats.GetConversation(ctx, conversationID)
	if err != nil || !conv.HasParticipant(userID) {
		return
	}

	eventType := realtime.EventUserTyping
	if stopped {
		eventType = realtime.EventUserStopTyping
	}

	var userName string
	if user, err := s.users.Get(ctx, userID); err == nil {
		userName = user.Name
	}

	s.publisher.Publish(ctx, userID, realtime.Event{
		Type: eventType,
		Payload: realtime.TypingPayload{
			ConversationID: conversationID,
			UserID:         userID,
			UserName:       userName,
		},
	}, conv.OtherParticipants(userID)...)
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.chats.CountUnread(ctx, userID)
}

// hydrate fills the participant and last-message fields a listing needs.
func (s *service) hydrate(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	users, err := s.users.ListByIDs(ctx, conv.ParticipantIDs())
	if err != nil {
		return conv, err
	}
	conv.Participants = conv.Participants[:0]
	for _, u := range users {
		conv.Participants = append(conv.Participants, *u.Public())
	}

	if conv.LastMessageID != nil {
		p := &model.Pagination{Page: 1, PageSize: 1}
		msgs, err := s.chats.ListMessages(ctx, conv.ID, p)
		if err == nil && len(msgs) > 0 {
			conv.LastMessage = msgs[0]
		}
	}
	return conv, nil
}
