// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/knobo/simple-queue-management-sub000/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// QueueRepository defines operations for queue data access
type QueueRepository interface {
	Repository[models.Queue, models.QueueFilter]
	ByUUID(ctx context.Context, queueUUID uuid.UUID) (*models.Queue, error)
	ByDisplayToken(ctx context.Context, token string) (*models.Queue, error)
	ByStaticSecret(ctx context.Context, secret string) (*models.Queue, error)
	ListRotating(ctx context.Context) ([]*models.Queue, error)
	UpdateOpenState(ctx context.Context, queueID uint, isOpen bool) error
	UpdateStaticSecret(ctx context.Context, queueID uint, secret string) error
	UpdateLastRotatedAt(ctx context.Context, queueID uint, at time.Time) error
}

// TicketRepository defines operations for ticket data access
type TicketRepository interface {
	Repository[models.Ticket, models.TicketFilter]
	ByUUID(ctx context.Context, ticketUUID uuid.UUID) (*models.Ticket, error)
	ByQueueAndNumber(ctx context.Context, queueID uint, number int64) (*models.Ticket, error)
	ByIDForUpdate(ctx context.Context, ticketID uint) (*models.Ticket, error)
	NextWaitingForUpdate(ctx context.Context, queueID uint) (*models.Ticket, error)
	MarkCalled(ctx context.Context, ticketID uint, stageID, counterID, operatorID *uint, at time.Time) error
	MarkCompleted(ctx context.Context, ticketID uint, stageID *uint, at time.Time) error
	MarkCancelled(ctx context.Context, ticketID uint, stageID *uint) error
	CountWaitingBelow(ctx context.Context, queueID uint, number int64) (int64, error)
	HighestCalledNumber(ctx context.Context, queueID uint) (int64, error)
	AverageServiceSeconds(ctx context.Context, queueID uint) (float64, error)
}

// SequenceRepository hands out per-queue ticket numbers
type SequenceRepository interface {
	NextNumber(ctx context.Context, queueID uint) (int64, error)
}

// DisplayStageRepository defines operations for display stage data access
type DisplayStageRepository interface {
	Repository[models.DisplayStage, models.DisplayStageFilter]
	FirstByQueueAndStatus(ctx context.Context, queueID uint, status string) (*models.DisplayStage, error)
	CountByQueueAndStatus(ctx context.Context, queueID uint, status string) (int64, error)
	Delete(ctx context.Context, stageID uint) error
}

// CounterRepository defines operations for counter data access
type CounterRepository interface {
	Repository[models.Counter, models.CounterFilter]
	ByQueue(ctx context.Context, queueID uint) ([]*models.Counter, error)
	ByIDForUpdate(ctx context.Context, counterID uint) (*models.Counter, error)
	ByCurrentOperator(ctx context.Context, operatorID uint) ([]*models.Counter, error)
	CountByQueue(ctx context.Context, queueID uint) (int64, error)
	SetCurrentOperator(ctx context.Context, counterID uint, operatorID *uint) error
	SetCurrentTicket(ctx context.Context, counterID uint, ticketID *uint) error
	Release(ctx context.Context, counterID uint) error
	Delete(ctx context.Context, counterID uint) error
}

// CounterSessionRepository defines operations for counter session data access
type CounterSessionRepository interface {
	Repository[models.CounterSession, models.CounterSessionFilter]
	ActiveByOperator(ctx context.Context, operatorID uint) (*models.CounterSession, error)
	ActiveByCounterForUpdate(ctx context.Context, counterID uint) (*models.CounterSession, error)
	End(ctx context.Context, sessionID uint, at time.Time) error
}

// AccessTokenRepository defines operations for access token data access
type AccessTokenRepository interface {
	Repository[models.AccessToken, models.AccessTokenFilter]
	ByCode(ctx context.Context, code string) (*models.AccessToken, error)
	ByCodeForUpdate(ctx context.Context, code string) (*models.AccessToken, error)
	ActiveByQueue(ctx context.Context, queueID uint) ([]*models.AccessToken, error)
	DeactivateAllForQueue(ctx context.Context, queueID uint) error
	IncrementUseCount(ctx context.Context, tokenID uint) error
	Deactivate(ctx context.Context, tokenID uint) error
}

// OperatorRepository defines operations for operator data access
type OperatorRepository interface {
	Repository[models.Operator, models.OperatorFilter]
	ByUUID(ctx context.Context, operatorUUID uuid.UUID) (*models.Operator, error)
	ByEmail(ctx context.Context, email string) (*models.Operator, error)
	UpdatePassword(ctx context.Context, operatorID uint, passwordHash string) error
}

// AuditLogRepository defines operations for audit log data access
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
}
