// Package businessflow contains the core business logic and use cases for queue management workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/knobo/simple-queue-management-sub000/repository"
	"github.com/knobo/simple-queue-management-sub000/utils"
	"gorm.io/gorm"
)

// SessionFlow handles operator sign-in and sign-out at counters
type SessionFlow interface {
	StartSession(ctx context.Context, operatorID uint, queueUUID uuid.UUID, counterID uint, metadata *ClientMetadata) (*dto.SessionDTO, error)
	EndSession(ctx context.Context, operatorID uint, metadata *ClientMetadata) error
	EndSessionByID(ctx context.Context, operatorID uint, sessionID uint, metadata *ClientMetadata) error
	CurrentSession(ctx context.Context, operatorID uint) (*dto.SessionDTO, error)
}

// SessionFlowImpl implements the counter session business flow
type SessionFlowImpl struct {
	queueRepo   repository.QueueRepository
	counterRepo repository.CounterRepository
	sessionRepo repository.CounterSessionRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

// NewSessionFlow creates a new session flow instance
func NewSessionFlow(
	queueRepo repository.QueueRepository,
	counterRepo repository.CounterRepository,
	sessionRepo repository.CounterSessionRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) SessionFlow {
	return &SessionFlowImpl{
		queueRepo:   queueRepo,
		counterRepo: counterRepo,
		sessionRepo: sessionRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

// StartSession signs the operator in at a counter. A counter holds at most
// one operator and an operator holds at most one session; starting at a new
// counter moves the operator there, ending the previous session.
func (sf *SessionFlowImpl) StartSession(ctx context.Context, operatorID uint, queueUUID uuid.UUID, counterID uint, metadata *ClientMetadata) (*dto.SessionDTO, error) {
	queue, err := sf.queueRepo.ByUUID(ctx, queueUUID)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LOOKUP_FAILED", "Failed to load queue", err)
	}
	if queue == nil {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrQueueNotFound)
	}

	var session *models.CounterSession
	err = repository.WithTransaction(ctx, sf.db, func(txCtx context.Context) error {
		counter, err := sf.counterRepo.ByIDForUpdate(txCtx, counterID)
		if err != nil {
			return err
		}
		if counter == nil {
			return ErrCounterNotFound
		}
		if counter.QueueID != queue.ID {
			return ErrCounterNotInQueue
		}

		active, err := sf.sessionRepo.ActiveByCounterForUpdate(txCtx, counterID)
		if err != nil {
			return err
		}
		if active != nil {
			if active.OperatorID == operatorID {
				session = active // already signed in here
				return nil
			}
			return ErrCounterInUse
		}
		if counter.IsOccupied() && *counter.CurrentOperatorID != operatorID {
			return ErrCounterInUse
		}

		now := utils.UTCNow()

		// Move the operator off any other counter first
		previous, err := sf.sessionRepo.ActiveByOperator(txCtx, operatorID)
		if err != nil {
			return err
		}
		if previous != nil {
			if err := sf.sessionRepo.End(txCtx, previous.ID, now); err != nil {
				return err
			}
		}
		held, err := sf.counterRepo.ByCurrentOperator(txCtx, operatorID)
		if err != nil {
			return err
		}
		for _, h := range held {
			if err := sf.counterRepo.Release(txCtx, h.ID); err != nil {
				return err
			}
		}

		session = &models.CounterSession{
			CounterID:  counterID,
			OperatorID: operatorID,
			StartedAt:  now,
		}
		if err := sf.sessionRepo.Save(txCtx, session); err != nil {
			return err
		}

		return sf.counterRepo.SetCurrentOperator(txCtx, counterID, &operatorID)
	})
	if err != nil {
		switch {
		case IsCounterNotFound(err):
			return nil, NewBusinessError("COUNTER_NOT_FOUND", "Counter not found", err)
		case IsCounterNotInQueue(err):
			return nil, NewBusinessError("COUNTER_NOT_FOUND", "Counter not found in this queue", err)
		case IsCounterInUse(err):
			return nil, NewBusinessError("COUNTER_IN_USE", "Counter is occupied by another operator", err)
		default:
			return nil, NewBusinessError("SESSION_START_FAILED", "Failed to start session", err)
		}
	}

	msg := fmt.Sprintf("Session started at counter %d", counterID)
	_ = recordAudit(ctx, sf.auditRepo, &operatorID, &queue.ID, models.AuditActionSessionStarted, msg, true, metadata)

	result := ToSessionDTO(*session)
	return &result, nil
}

// EndSession signs the operator out of their current counter. Ending with no
// open session is a no-op.
func (sf *SessionFlowImpl) EndSession(ctx context.Context, operatorID uint, metadata *ClientMetadata) error {
	var counterID *uint

	err := repository.WithTransaction(ctx, sf.db, func(txCtx context.Context) error {
		session, err := sf.sessionRepo.ActiveByOperator(txCtx, operatorID)
		if err != nil {
			return err
		}
		if session == nil {
			return nil
		}
		counterID = &session.CounterID

		if err := sf.sessionRepo.End(txCtx, session.ID, utils.UTCNow()); err != nil {
			return err
		}

		counter, err := sf.counterRepo.ByIDForUpdate(txCtx, session.CounterID)
		if err != nil {
			return err
		}
		if counter != nil && counter.CurrentOperatorID != nil && *counter.CurrentOperatorID == operatorID {
			return sf.counterRepo.Release(txCtx, counter.ID)
		}
		return nil
	})
	if err != nil {
		return NewBusinessError("SESSION_END_FAILED", "Failed to end session", err)
	}

	if counterID != nil {
		msg := fmt.Sprintf("Session ended at counter %d", *counterID)
		_ = recordAudit(ctx, sf.auditRepo, &operatorID, nil, models.AuditActionSessionEnded, msg, true, metadata)
	}
	return nil
}

// EndSessionByID closes a specific session on behalf of the queue owner.
// Sessions that already ended are left untouched.
func (sf *SessionFlowImpl) EndSessionByID(ctx context.Context, operatorID uint, sessionID uint, metadata *ClientMetadata) error {
	var (
		sessionOperator uint
		queueID         *uint
		acted           bool
	)

	err := repository.WithTransaction(ctx, sf.db, func(txCtx context.Context) error {
		session, err := sf.sessionRepo.ByID(txCtx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}

		counter, err := sf.counterRepo.ByIDForUpdate(txCtx, session.CounterID)
		if err != nil {
			return err
		}
		if counter == nil {
			return ErrCounterNotFound
		}

		queue, err := sf.queueRepo.ByID(txCtx, counter.QueueID)
		if err != nil {
			return err
		}
		if queue == nil || queue.OwnerID != operatorID {
			return ErrSessionNotFound
		}
		queueID = &queue.ID

		if !session.IsActive() {
			return nil
		}

		sessionOperator = session.OperatorID
		acted = true

		if err := sf.sessionRepo.End(txCtx, session.ID, utils.UTCNow()); err != nil {
			return err
		}
		if counter.CurrentOperatorID != nil && *counter.CurrentOperatorID == session.OperatorID {
			return sf.counterRepo.Release(txCtx, counter.ID)
		}
		return nil
	})
	if err != nil {
		if IsSessionNotFound(err) || IsCounterNotFound(err) {
			return NewBusinessError("SESSION_NOT_FOUND", "Session not found", ErrSessionNotFound)
		}
		return NewBusinessError("SESSION_END_FAILED", "Failed to end session", err)
	}

	if acted {
		msg := fmt.Sprintf("Session %d of operator %d ended by owner", sessionID, sessionOperator)
		_ = recordAudit(ctx, sf.auditRepo, &operatorID, queueID, models.AuditActionSessionEnded, msg, true, metadata)
	}
	return nil
}

// CurrentSession returns the operator's open session, or nil when signed out
func (sf *SessionFlowImpl) CurrentSession(ctx context.Context, operatorID uint) (*dto.SessionDTO, error) {
	session, err := sf.sessionRepo.ActiveByOperator(ctx, operatorID)
	if err != nil {
		return nil, NewBusinessError("SESSION_LOOKUP_FAILED", "Failed to load session", err)
	}
	if session == nil {
		return nil, nil
	}

	result := ToSessionDTO(*session)
	return &result, nil
}
