package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hireloop/jobboard-api/internal/model"
	"github.com/hireloop/jobboard-api/internal/repository"
	"github.com/hireloop/jobboard-api/pkg/errors"
)

type chatRepository struct {
	BaseRepository
}

func NewChatRepository(base BaseRepository) repository.ChatRepository {
	return &chatRepository{base}
}

func (r *chatRepository) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	query := `
		INSERT INTO conversations (
			id, participant_a, participant_b, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	conv.ID = uuid.New()
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		conv.ID,
		conv.ParticipantA,
		conv.ParticipantB,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *chatRepository) GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	query := `SELECT * FROM conversations WHERE id = $1`

	var conv model.Conversation
	if err := r.db.GetContext(ctx, &conv, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("conversation", err)
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// FindConversation looks up the thread between two users regardless of
// which side created it.
func (r *chatRepository) FindConversation(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	query := `
		SELECT * FROM conversations
		WHERE (participant_a = $1 AND participant_b = $2)
		   OR (participant_a = $2 AND participant_b = $1)
	`

	var conv model.Conversation
	if err := r.db.GetContext(ctx, &conv, query, a, b); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("conversation", err)
		}
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	return &conv, nil
}

func (r *chatRepository) ListConversations(ctx context.Context, userID uuid.UUID) ([]*model.Conversation, error) {
	query := `
		SELECT * FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY updated_at DESC
	`

	var convs []*model.Conversation
	if err := r.db.SelectContext(ctx, &convs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// CreateMessage inserts the message, bumps the conversation pointer
// and writes the outbox event in one transaction.
func (r *chatRepository) CreateMessage(ctx context.Context, msg *model.Message, eventType string) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	if msg.ReadBy == nil {
		msg.ReadBy = model.UUIDList{msg.SenderID}
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO messages (
				id, conversation_id, sender_id, content, read_by, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, insert,
			msg.ID,
			msg.ConversationID,
			msg.SenderID,
			msg.Content,
			msg.ReadBy,
			msg.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		bump := `
			UPDATE conversations
			SET last_message_id = $1, updated_at = $2
			WHERE id = $3
		`
		if _, err := tx.ExecContext(ctx, bump, msg.ID, msg.CreatedAt, msg.ConversationID); err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}
		return insertOutboxTx(ctx, tx, eventType, msg)
	})
}

func (r *chatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, p *model.Pagination) ([]*model.Message, error) {
	query := `
		SELECT * FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	var msgs []*model.Message
	if err := r.db.SelectContext(ctx, &msgs, query, conversationID, p.PageSize, p.Offset()); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// MarkMessagesRead appends the reader to read_by on every message in
// the conversation they have not read yet and returns how many rows
// changed.
func (r *chatRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	query := `
		UPDATE messages
		SET read_by = read_by || to_jsonb($3::text)
		WHERE conversation_id = $1
		  AND sender_id <> $2
		  AND NOT read_by @> to_jsonb($3::text)
	`

	result, err := r.db.ExecContext(ctx, query, conversationID, readerID, readerID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.RowsAffected()
}

func (r *chatRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE (c.participant_a = $1 OR c.participant_b = $1)
		  AND m.sender_id <> $1
		  AND NOT m.read_by @> to_jsonb($2::text)
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, userID.String()); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
