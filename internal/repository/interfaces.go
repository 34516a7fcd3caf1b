package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/hireloop/jobboard-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		GetByVerificationToken(ctx context.Context, tokenHash string) (*model.User, error)
		GetByResetToken(ctx context.Context, tokenHash string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error)
	}

	ProfileRepository interface {
		Create(ctx context.Context, profile *model.Profile) error
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
		Update(ctx context.Context, profile *model.Profile) error
	}

	JobRepository interface {
		Create(ctx context.Context, job *model.Job) error
		Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
		Update(ctx context.Context, job *model.Job) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.JobFilters) ([]*model.Job, int, error)
		ListByRecruiter(ctx context.Context, recruiterID uuid.UUID) ([]*model.Job, error)
		IncrementApplicants(ctx context.Context, id uuid.UUID) error
		PopularSkills(ctx context.Context, limit int) ([]*model.SkillCount, error)
	}

	ApplicationRepository interface {
		Create(ctx context.Context, app *model.Application, eventType string) error
		Get(ctx context.Context, id uuid.UUID) (*model.Application, error)
		Exists(ctx context.Context, jobID, candidateID uuid.UUID) (bool, error)
		UpdateStatus(ctx context.Context, app *model.Application, status model.ApplicationStatus, eventType string) error
		ListByCandidate(ctx context.Context, candidateID uuid.UUID) ([]*model.ApplicationWithJob, error)
		ListByJob(ctx context.Context, jobID uuid.UUID) ([]*model.Applicant, error)
		ListRecent(ctx context.Context, recruiterID uuid.UUID, limit int) ([]*model.RecentApplication, error)
		CountByMonth(ctx context.Context, recruiterID uuid.UUID, months int) ([]*model.MonthlyApplicationCount, error)
	}

	ChatRepository interface {
		CreateConversation(ctx context.Context, conv *model.Conversation) error
		GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
		FindConversation(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error)
		ListConversations(ctx context.Context, userID uuid.UUID) ([]*model.Conversation, error)
		CreateMessage(ctx context.Context, msg *model.Message, eventType string) error
		ListMessages(ctx context.Context, conversationID uuid.UUID, p *model.Pagination) ([]*model.Message, error)
		MarkMessagesRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
		CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		List(ctx context.Context, recipientID uuid.UUID, p *model.Pagination) ([]*model.Notification, error)
		CountUnread(ctx context.Context, recipientID uuid.UUID) (int, error)
		MarkRead(ctx context.Context, id, recipientID uuid.UUID) error
		MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	}

	OutboxRepository interface {
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		BeginTx(ctx context.Context) (*sql.Tx, error)
		UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status model.OutboxStatus, errMsg *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
