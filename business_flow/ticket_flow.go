// Package businessflow contains the core business logic and use cases for queue management workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/app/services"
	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/knobo/simple-queue-management-sub000/repository"
	"github.com/knobo/simple-queue-management-sub000/utils"
	"gorm.io/gorm"
)

// TicketFlow handles the ticket lifecycle: issuance, calling, serving,
// completion and cancellation
type TicketFlow interface {
	IssueTicket(ctx context.Context, ownerID uint, queueUUID uuid.UUID, request *dto.IssueTicketRequest, metadata *ClientMetadata) (*dto.TicketDTO, error)
	CallNext(ctx context.Context, operatorID uint, queueUUID uuid.UUID, metadata *ClientMetadata) (*dto.CallNextResponse, error)
	Serve(ctx context.Context, operatorID uint, queueUUID, ticketUUID uuid.UUID, metadata *ClientMetadata) (*dto.TicketDTO, error)
	Complete(ctx context.Context, operatorID uint, ticketUUID uuid.UUID, metadata *ClientMetadata) (*dto.TicketDTO, error)
	Cancel(ctx context.Context, ticketUUID uuid.UUID, metadata *ClientMetadata) (*dto.TicketDTO, error)
}

// TicketFlowImpl implements the ticket lifecycle business flow
type TicketFlowImpl struct {
	queueRepo       repository.QueueRepository
	ticketRepo      repository.TicketRepository
	sequenceRepo    repository.SequenceRepository
	stageRepo       repository.DisplayStageRepository
	counterRepo     repository.CounterRepository
	sessionRepo     repository.CounterSessionRepository
	auditRepo       repository.AuditLogRepository
	notificationSvc services.NotificationService
	db              *gorm.DB
}

// NewTicketFlow creates a new ticket flow instance
func NewTicketFlow(
	queueRepo repository.QueueRepository,
	ticketRepo repository.TicketRepository,
	sequenceRepo repository.SequenceRepository,
	stageRepo repository.DisplayStageRepository,
	counterRepo repository.CounterRepository,
	sessionRepo repository.CounterSessionRepository,
	auditRepo repository.AuditLogRepository,
	notificationSvc services.NotificationService,
	db *gorm.DB,
) TicketFlow {
	return &TicketFlowImpl{
		queueRepo:       queueRepo,
		ticketRepo:      ticketRepo,
		sequenceRepo:    sequenceRepo,
		stageRepo:       stageRepo,
		counterRepo:     counterRepo,
		sessionRepo:     sessionRepo,
		auditRepo:       auditRepo,
		notificationSvc: notificationSvc,
		db:              db,
	}
}

// issueTicket creates a waiting ticket with the next sequence number. Callers
// must run it inside a transaction; the sequence row lock serializes
// concurrent joins so numbers never collide.
func issueTicket(ctx context.Context, queue *models.Queue, stageRepo repository.DisplayStageRepository, sequenceRepo repository.SequenceRepository, ticketRepo repository.TicketRepository, customerName, customerEmail *string) (*models.Ticket, error) {
	stage, err := stageRepo.FirstByQueueAndStatus(ctx, queue.ID, models.TicketStatusWaiting)
	if err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, ErrMissingStageMapping
	}

	number, err := sequenceRepo.NextNumber(ctx, queue.ID)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		UUID:          uuid.New(),
		QueueID:       queue.ID,
		Number:        number,
		Status:        models.TicketStatusWaiting,
		StageID:       &stage.ID,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		CreatedAt:     utils.UTCNow(),
	}
	if err := ticketRepo.Save(ctx, ticket); err != nil {
		return nil, err
	}

	return ticket, nil
}

// IssueTicket issues a waiting ticket into an owned queue (kiosk or staff entry)
func (tf *TicketFlowImpl) IssueTicket(ctx context.Context, ownerID uint, queueUUID uuid.UUID, request *dto.IssueTicketRequest, metadata *ClientMetadata) (*dto.TicketDTO, error) {
	queue, err := tf.queueRepo.ByUUID(ctx, queueUUID)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LOOKUP_FAILED", "Failed to load queue", err)
	}
	if queue == nil || queue.OwnerID != ownerID {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrQueueNotFound)
	}
	if !utils.IsTrue(queue.IsOpen) {
		return nil, NewBusinessError("QUEUE_CLOSED", "Queue is closed", ErrQueueClosed)
	}

	var ticket *models.Ticket
	err = repository.WithTransaction(ctx, tf.db, func(txCtx context.Context) error {
		ticket, err = issueTicket(txCtx, queue, tf.stageRepo, tf.sequenceRepo, tf.ticketRepo, request.CustomerName, request.CustomerEmail)
		return err
	})
	if err != nil {
		if IsMissingStageMapping(err) {
			return nil, NewBusinessError("MISSING_STAGE_MAPPING", "Queue has no waiting stage", err)
		}
		return nil, NewBusinessError("TICKET_ISSUE_FAILED", "Failed to issue ticket", err)
	}

	msg := fmt.Sprintf("Ticket %d issued in queue %s", ticket.Number, queue.UUID)
	_ = recordAudit(ctx, tf.auditRepo, &ownerID, &queue.ID, models.AuditActionTicketIssued, msg, true, metadata)

	tf.notifyTicketEvent(ctx, queue, services.EventTicketIssued, ticket)

	result := ToTicketDTO(*ticket)
	return &result, nil
}

// CallNext calls the lowest-numbered waiting ticket. When nobody waits the
// call is a no-op rather than an error. If the operator has an open counter
// session the ticket and counter are bound to each other.
func (tf *TicketFlowImpl) CallNext(ctx context.Context, operatorID uint, queueUUID uuid.UUID, metadata *ClientMetadata) (*dto.CallNextResponse, error) {
	queue, err := tf.queueRepo.ByUUID(ctx, queueUUID)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LOOKUP_FAILED", "Failed to load queue", err)
	}
	if queue == nil {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrQueueNotFound)
	}

	var ticket *models.Ticket
	err = repository.WithTransaction(ctx, tf.db, func(txCtx context.Context) error {
		ticket, err = tf.ticketRepo.NextWaitingForUpdate(txCtx, queue.ID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return nil // empty queue, nothing to call
		}

		stage, err := tf.stageRepo.FirstByQueueAndStatus(txCtx, queue.ID, models.TicketStatusCalled)
		if err != nil {
			return err
		}
		if stage == nil {
			return ErrMissingStageMapping
		}

		var counterID *uint
		session, err := tf.sessionRepo.ActiveByOperator(txCtx, operatorID)
		if err != nil {
			return err
		}
		if session != nil {
			counterID = &session.CounterID
			if err := tf.counterRepo.SetCurrentTicket(txCtx, session.CounterID, &ticket.ID); err != nil {
				return err
			}
		}

		now := utils.UTCNow()
		if err := tf.ticketRepo.MarkCalled(txCtx, ticket.ID, &stage.ID, counterID, &operatorID, now); err != nil {
			return err
		}

		ticket.Status = models.TicketStatusCalled
		ticket.StageID = &stage.ID
		ticket.CounterID = counterID
		ticket.OperatorID = &operatorID
		ticket.CalledAt = &now
		return nil
	})
	if err != nil {
		if IsMissingStageMapping(err) {
			return nil, NewBusinessError("MISSING_STAGE_MAPPING", "Queue has no called stage", err)
		}
		return nil, NewBusinessError("TICKET_CALL_FAILED", "Failed to call next ticket", err)
	}

	if ticket == nil {
		return &dto.CallNextResponse{Called: false}, nil
	}

	msg := fmt.Sprintf("Ticket %d called in queue %s", ticket.Number, queue.UUID)
	_ = recordAudit(ctx, tf.auditRepo, &operatorID, &queue.ID, models.AuditActionTicketCalled, msg, true, metadata)

	tf.notifyTicketEvent(ctx, queue, services.EventTicketCalled, ticket)

	ticketDTO := ToTicketDTO(*ticket)
	return &dto.CallNextResponse{Called: true, Ticket: &ticketDTO}, nil
}

// Serve calls a specific waiting ticket out of order. The ticket must belong
// to the named queue.
func (tf *TicketFlowImpl) Serve(ctx context.Context, operatorID uint, queueUUID, ticketUUID uuid.UUID, metadata *ClientMetadata) (*dto.TicketDTO, error) {
	queue, err := tf.queueRepo.ByUUID(ctx, queueUUID)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LOOKUP_FAILED", "Failed to load queue", err)
	}
	if queue == nil {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrQueueNotFound)
	}

	var ticket *models.Ticket
	err = repository.WithTransaction(ctx, tf.db, func(txCtx context.Context) error {
		found, err := tf.ticketRepo.ByUUID(txCtx, ticketUUID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrTicketNotFound
		}
		if found.QueueID != queue.ID {
			return ErrTicketNotInQueue
		}

		ticket, err = tf.ticketRepo.ByIDForUpdate(txCtx, found.ID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return ErrTicketNotFound
		}
		if !models.ValidTicketTransition(ticket.Status, models.TicketStatusCalled) {
			return ErrInvalidTicketTransition
		}

		stage, err := tf.stageRepo.FirstByQueueAndStatus(txCtx, queue.ID, models.TicketStatusCalled)
		if err != nil {
			return err
		}
		if stage == nil {
			return ErrMissingStageMapping
		}

		var counterID *uint
		session, err := tf.sessionRepo.ActiveByOperator(txCtx, operatorID)
		if err != nil {
			return err
		}
		if session != nil {
			counterID = &session.CounterID
			if err := tf.counterRepo.SetCurrentTicket(txCtx, session.CounterID, &ticket.ID); err != nil {
				return err
			}
		}

		now := utils.UTCNow()
		if err := tf.ticketRepo.MarkCalled(txCtx, ticket.ID, &stage.ID, counterID, &operatorID, now); err != nil {
			return err
		}

		ticket.Status = models.TicketStatusCalled
		ticket.StageID = &stage.ID
		ticket.CounterID = counterID
		ticket.OperatorID = &operatorID
		ticket.CalledAt = &now
		return nil
	})
	if err != nil {
		switch {
		case IsTicketNotFound(err):
			return nil, NewBusinessError("TICKET_NOT_FOUND", "Ticket not found", err)
		case IsTicketNotInQueue(err):
			return nil, NewBusinessError("CROSS_QUEUE_TICKET", "Ticket belongs to another queue", err)
		case IsInvalidTicketTransition(err):
			return nil, NewBusinessError("INVALID_TRANSITION", "Ticket cannot be called from its current status", err)
		case IsMissingStageMapping(err):
			return nil, NewBusinessError("MISSING_STAGE_MAPPING", "Queue has no called stage", err)
		default:
			return nil, NewBusinessError("TICKET_SERVE_FAILED", "Failed to serve ticket", err)
		}
	}

	msg := fmt.Sprintf("Ticket %d served in queue %s", ticket.Number, queue.UUID)
	_ = recordAudit(ctx, tf.auditRepo, &operatorID, &queue.ID, models.AuditActionTicketServed, msg, true, metadata)

	tf.notifyTicketEvent(ctx, queue, services.EventTicketCalled, ticket)

	result := ToTicketDTO(*ticket)
	return &result, nil
}

// Complete finishes a called ticket and frees its counter
func (tf *TicketFlowImpl) Complete(ctx context.Context, operatorID uint, ticketUUID uuid.UUID, metadata *ClientMetadata) (*dto.TicketDTO, error) {
	var ticket *models.Ticket
	var queue *models.Queue

	err := repository.WithTransaction(ctx, tf.db, func(txCtx context.Context) error {
		found, err := tf.ticketRepo.ByUUID(txCtx, ticketUUID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrTicketNotFound
		}

		ticket, err = tf.ticketRepo.ByIDForUpdate(txCtx, found.ID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return ErrTicketNotFound
		}
		if !models.ValidTicketTransition(ticket.Status, models.TicketStatusCompleted) {
			return ErrInvalidTicketTransition
		}

		queue, err = tf.queueRepo.ByID(txCtx, ticket.QueueID)
		if err != nil {
			return err
		}
		if queue == nil {
			return ErrQueueNotFound
		}

		stage, err := tf.stageRepo.FirstByQueueAndStatus(txCtx, queue.ID, models.TicketStatusCompleted)
		if err != nil {
			return err
		}
		if stage == nil {
			return ErrMissingStageMapping
		}

		now := utils.UTCNow()
		if err := tf.ticketRepo.MarkCompleted(txCtx, ticket.ID, &stage.ID, now); err != nil {
			return err
		}

		// Free the counter if this ticket is the one it is serving
		if ticket.CounterID != nil {
			counter, err := tf.counterRepo.ByIDForUpdate(txCtx, *ticket.CounterID)
			if err != nil {
				return err
			}
			if counter != nil && counter.CurrentTicketID != nil && *counter.CurrentTicketID == ticket.ID {
				if err := tf.counterRepo.SetCurrentTicket(txCtx, counter.ID, nil); err != nil {
					return err
				}
			}
		}

		ticket.Status = models.TicketStatusCompleted
		ticket.StageID = &stage.ID
		ticket.CompletedAt = &now
		return nil
	})
	if err != nil {
		switch {
		case IsTicketNotFound(err):
			return nil, NewBusinessError("TICKET_NOT_FOUND", "Ticket not found", err)
		case IsInvalidTicketTransition(err):
			return nil, NewBusinessError("INVALID_TRANSITION", "Ticket cannot be completed from its current status", err)
		case IsMissingStageMapping(err):
			return nil, NewBusinessError("MISSING_STAGE_MAPPING", "Queue has no completed stage", err)
		default:
			return nil, NewBusinessError("TICKET_COMPLETE_FAILED", "Failed to complete ticket", err)
		}
	}

	msg := fmt.Sprintf("Ticket %d completed in queue %s", ticket.Number, queue.UUID)
	_ = recordAudit(ctx, tf.auditRepo, &operatorID, &queue.ID, models.AuditActionTicketDone, msg, true, metadata)

	tf.notifyTicketEvent(ctx, queue, services.EventTicketCompleted, ticket)

	result := ToTicketDTO(*ticket)
	return &result, nil
}

// Cancel abandons a waiting or called ticket. Terminal tickets stay as they
// are. The counter keeps serving whatever it was serving; cancellation does
// not touch occupancy.
func (tf *TicketFlowImpl) Cancel(ctx context.Context, ticketUUID uuid.UUID, metadata *ClientMetadata) (*dto.TicketDTO, error) {
	var ticket *models.Ticket
	var queue *models.Queue

	err := repository.WithTransaction(ctx, tf.db, func(txCtx context.Context) error {
		found, err := tf.ticketRepo.ByUUID(txCtx, ticketUUID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrTicketNotFound
		}

		ticket, err = tf.ticketRepo.ByIDForUpdate(txCtx, found.ID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return ErrTicketNotFound
		}
		if !models.ValidTicketTransition(ticket.Status, models.TicketStatusCancelled) {
			return ErrInvalidTicketTransition
		}

		queue, err = tf.queueRepo.ByID(txCtx, ticket.QueueID)
		if err != nil {
			return err
		}
		if queue == nil {
			return ErrQueueNotFound
		}

		// Cancellation is unconditional: a queue without a cancelled-mapped
		// stage still cancels, leaving the stage binding empty
		stage, err := tf.stageRepo.FirstByQueueAndStatus(txCtx, queue.ID, models.TicketStatusCancelled)
		if err != nil {
			return err
		}
		var stageID *uint
		if stage != nil {
			stageID = &stage.ID
		}

		if err := tf.ticketRepo.MarkCancelled(txCtx, ticket.ID, stageID); err != nil {
			return err
		}

		ticket.Status = models.TicketStatusCancelled
		ticket.StageID = stageID
		return nil
	})
	if err != nil {
		switch {
		case IsTicketNotFound(err):
			return nil, NewBusinessError("TICKET_NOT_FOUND", "Ticket not found", err)
		case IsInvalidTicketTransition(err):
			return nil, NewBusinessError("INVALID_TRANSITION", "Ticket cannot be cancelled from its current status", err)
		default:
			return nil, NewBusinessError("TICKET_CANCEL_FAILED", "Failed to cancel ticket", err)
		}
	}

	msg := fmt.Sprintf("Ticket %d cancelled in queue %s", ticket.Number, queue.UUID)
	_ = recordAudit(ctx, tf.auditRepo, nil, &queue.ID, models.AuditActionTicketCanceled, msg, true, metadata)

	tf.notifyTicketEvent(ctx, queue, services.EventTicketCancelled, ticket)

	result := ToTicketDTO(*ticket)
	return &result, nil
}

// notifyTicketEvent publishes a best-effort queue event for the ticket.
// Every transition shifts the positions of the tickets still waiting, so the
// event carries the refreshed call pointer and service average for displays
// to recompute from. Lookup failures degrade to a bare event.
func (tf *TicketFlowImpl) notifyTicketEvent(ctx context.Context, queue *models.Queue, eventType string, ticket *models.Ticket) {
	ticketUUID := ticket.UUID.String()
	event := services.QueueEvent{
		Type:         eventType,
		QueueUUID:    queue.UUID,
		TicketUUID:   &ticketUUID,
		TicketNumber: &ticket.Number,
		OccurredAt:   utils.UTCNow(),
	}

	if lastCalled, err := tf.ticketRepo.HighestCalledNumber(ctx, queue.ID); err == nil {
		event.LastCalledNumber = &lastCalled
	}
	avgSeconds, avgErr := tf.ticketRepo.AverageServiceSeconds(ctx, queue.ID)
	if avgErr == nil {
		event.AvgServiceSeconds = &avgSeconds
	}

	if ticket.IsWaiting() && avgErr == nil {
		if position, err := tf.ticketRepo.CountWaitingBelow(ctx, queue.ID, ticket.Number); err == nil {
			event.Position = &position
			event.ETAMinutes = estimateETA(position, avgSeconds, utils.IsTrue(queue.IsOpen))
		}
	}

	tf.notificationSvc.NotifyQueue(queue.UUID, event)
}
