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

// QueueFlow handles queue lifecycle and configuration operations
type QueueFlow interface {
	CreateQueue(ctx context.Context, ownerID uint, request *dto.CreateQueueRequest, metadata *ClientMetadata) (*dto.QueueDTO, error)
	SetQueueOpen(ctx context.Context, ownerID uint, queueUUID uuid.UUID, open bool, metadata *ClientMetadata) (*dto.QueueDTO, error)
	ListQueues(ctx context.Context, ownerID uint) ([]dto.QueueDTO, error)
	AddStage(ctx context.Context, ownerID uint, queueUUID uuid.UUID, request *dto.AddStageRequest) (*dto.StageDTO, error)
	ListStages(ctx context.Context, ownerID uint, queueUUID uuid.UUID) ([]dto.StageDTO, error)
	RemoveStage(ctx context.Context, ownerID uint, queueUUID uuid.UUID, stageID uint) error
	CreateCounter(ctx context.Context, ownerID uint, queueUUID uuid.UUID, request *dto.CreateCounterRequest) (*dto.CounterDTO, error)
	ListCounters(ctx context.Context, ownerID uint, queueUUID uuid.UUID) ([]dto.CounterDTO, error)
	RemoveCounter(ctx context.Context, ownerID uint, queueUUID uuid.UUID, counterID uint) error
}

// QueueFlowImpl implements the queue management business flow
type QueueFlowImpl struct {
	queueRepo       repository.QueueRepository
	stageRepo       repository.DisplayStageRepository
	counterRepo     repository.CounterRepository
	auditRepo       repository.AuditLogRepository
	quotaSvc        services.QuotaService
	notificationSvc services.NotificationService
	db              *gorm.DB
}

// NewQueueFlow creates a new queue flow instance
func NewQueueFlow(
	queueRepo repository.QueueRepository,
	stageRepo repository.DisplayStageRepository,
	counterRepo repository.CounterRepository,
	auditRepo repository.AuditLogRepository,
	quotaSvc services.QuotaService,
	notificationSvc services.NotificationService,
	db *gorm.DB,
) QueueFlow {
	return &QueueFlowImpl{
		queueRepo:       queueRepo,
		stageRepo:       stageRepo,
		counterRepo:     counterRepo,
		auditRepo:       auditRepo,
		quotaSvc:        quotaSvc,
		notificationSvc: notificationSvc,
		db:              db,
	}
}

// CreateQueue creates a queue with its default stages and first counter.
// New queues start closed; the owner opens them explicitly.
func (qf *QueueFlowImpl) CreateQueue(ctx context.Context, ownerID uint, request *dto.CreateQueueRequest, metadata *ClientMetadata) (*dto.QueueDTO, error) {
	owned, err := qf.queueRepo.Count(ctx, models.QueueFilter{OwnerID: &ownerID})
	if err != nil {
		return nil, NewBusinessError("QUEUE_CREATE_FAILED", "Failed to count owned queues", err)
	}
	if !qf.quotaSvc.CanCreateQueue(owned) {
		return nil, NewBusinessError("QUOTA_EXCEEDED", "Queue quota reached", ErrQuotaExceeded)
	}

	displayToken, err := services.GenerateDisplayToken()
	if err != nil {
		return nil, NewBusinessError("QUEUE_CREATE_FAILED", "Failed to generate display token", err)
	}

	accessMode := request.AccessMode
	if accessMode == "" {
		accessMode = models.AccessModeRotating
	}

	queue := &models.Queue{
		UUID:             uuid.New(),
		OwnerID:          ownerID,
		Name:             request.Name,
		IsOpen:           utils.ToPtr(false),
		AccessMode:       accessMode,
		RotationInterval: request.RotationInterval,
		TokenTTL:         request.TokenTTL,
		TokenMaxUses:     request.TokenMaxUses,
		DisplayToken:     displayToken,
		CreatedAt:        utils.UTCNow(),
		UpdatedAt:        utils.UTCNow(),
	}

	if accessMode == models.AccessModeStatic {
		secret, err := services.GenerateAccessCode(utils.AccessCodeLength)
		if err != nil {
			return nil, NewBusinessError("QUEUE_CREATE_FAILED", "Failed to generate static secret", err)
		}
		queue.StaticSecret = &secret
	}

	err = repository.WithTransaction(ctx, qf.db, func(txCtx context.Context) error {
		if err := qf.queueRepo.Save(txCtx, queue); err != nil {
			return err
		}

		if err := qf.stageRepo.SaveBatch(txCtx, models.DefaultStages(queue.ID)); err != nil {
			return err
		}

		firstCounter := &models.Counter{
			QueueID:   queue.ID,
			Number:    1,
			CreatedAt: utils.UTCNow(),
			UpdatedAt: utils.UTCNow(),
		}
		return qf.counterRepo.Save(txCtx, firstCounter)
	})
	if err != nil {
		return nil, NewBusinessError("QUEUE_CREATE_FAILED", "Failed to create queue", err)
	}

	msg := fmt.Sprintf("Queue created: %s", queue.UUID)
	_ = recordAudit(ctx, qf.auditRepo, &ownerID, &queue.ID, models.AuditActionQueueCreated, msg, true, metadata)

	result := ToQueueDTO(*queue)
	return &result, nil
}

// SetQueueOpen opens or closes a queue
func (qf *QueueFlowImpl) SetQueueOpen(ctx context.Context, ownerID uint, queueUUID uuid.UUID, open bool, metadata *ClientMetadata) (*dto.QueueDTO, error) {
	queue, err := qf.ownedQueue(ctx, ownerID, queueUUID)
	if err != nil {
		return nil, err
	}

	if err := qf.queueRepo.UpdateOpenState(ctx, queue.ID, open); err != nil {
		return nil, NewBusinessError("QUEUE_UPDATE_FAILED", "Failed to update queue open state", err)
	}
	queue.IsOpen = utils.ToPtr(open)

	action := models.AuditActionQueueOpened
	eventType := services.EventQueueOpened
	if !open {
		action = models.AuditActionQueueClosed
		eventType = services.EventQueueClosed
	}
	_ = recordAudit(ctx, qf.auditRepo, &ownerID, &queue.ID, action, fmt.Sprintf("Queue %s", action), true, metadata)

	qf.notificationSvc.NotifyQueue(queue.UUID, services.QueueEvent{
		Type:       eventType,
		QueueUUID:  queue.UUID,
		OccurredAt: utils.UTCNow(),
	})

	result := ToQueueDTO(*queue)
	return &result, nil
}

// ListQueues returns all queues owned by the operator
func (qf *QueueFlowImpl) ListQueues(ctx context.Context, ownerID uint) ([]dto.QueueDTO, error) {
	queues, err := qf.queueRepo.ByFilter(ctx, models.QueueFilter{OwnerID: &ownerID}, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LIST_FAILED", "Failed to list queues", err)
	}

	result := make([]dto.QueueDTO, 0, len(queues))
	for _, queue := range queues {
		result = append(result, ToQueueDTO(*queue))
	}
	return result, nil
}

// AddStage adds a display stage mapped to a canonical status
func (qf *QueueFlowImpl) AddStage(ctx context.Context, ownerID uint, queueUUID uuid.UUID, request *dto.AddStageRequest) (*dto.StageDTO, error) {
	queue, err := qf.ownedQueue(ctx, ownerID, queueUUID)
	if err != nil {
		return nil, err
	}

	stage := &models.DisplayStage{
		QueueID:   queue.ID,
		Label:     request.Label,
		Status:    request.Status,
		SortOrder: request.SortOrder,
		CreatedAt: utils.UTCNow(),
	}
	if err := qf.stageRepo.Save(ctx, stage); err != nil {
		return nil, NewBusinessError("STAGE_CREATE_FAILED", "Failed to create stage", err)
	}

	result := ToStageDTO(*stage)
	return &result, nil
}

// ListStages returns the queue's display stages in sort order
func (qf *QueueFlowImpl) ListStages(ctx context.Context, ownerID uint, queueUUID uuid.UUID) ([]dto.StageDTO, error) {
	queue, err := qf.ownedQueue(ctx, ownerID, queueUUID)
	if err != nil {
		return nil, err
	}

	stages, err := qf.stageRepo.ByFilter(ctx, models.DisplayStageFilter{QueueID: &queue.ID}, "", 0, 0)
	if err != nil {
		return nil, NewBusinessError("STAGE_LIST_FAILED", "Failed to list stages", err)
	}

	result := make([]dto.StageDTO, 0, len(stages))
	for _, stage := range stages {
		result = append(result, ToStageDTO(*stage))
	}
	return result, nil
}

// RemoveStage deletes a stage unless it is the last one mapped to its status
func (qf *QueueFlowImpl) RemoveStage(ctx context.Context, ownerID uint, queueUUID uuid.UUID, stageID uint) error {
	queue, err := qf.ownedQueue(ctx, ownerID, queueUUID)
	if err != nil {
		return err
	}

	stage, err := qf.stageRepo.ByID(ctx, stageID)
	if err != nil {
		return NewBusinessError("STAGE_REMOVE_FAILED", "Failed to load stage", err)
	}
	if stage == nil || stage.QueueID != queue.ID {
		return NewBusinessError("STAGE_NOT_FOUND", "Stage not found", ErrStageNotFound)
	}

	count, err := qf.stageRepo.CountByQueueAndStatus(ctx, queue.ID, stage.Status)
	if err != nil {
		return NewBusinessError("STAGE_REMOVE_FAILED", "Failed to count stages", err)
	}
	if count <= 1 {
		return NewBusinessError("LAST_STAGE", "Every status needs at least one stage", ErrLastStageForStatus)
	}

	if err := qf.stageRepo.Delete(ctx, stageID); err != nil {
		return NewBusinessError("STAGE_REMOVE_FAILED", "Failed to delete stage", err)
	}
	return nil
}

// CreateCounter adds a counter to the queue, numbered after the current highest
func (qf *QueueFlowImpl) CreateCounter(ctx context.Context, ownerID uint, queueUUID uuid.UUID, request *dto.CreateCounterRequest) (*dto.CounterDTO, error) {
	queue, err := qf.ownedQueue(ctx, ownerID, queueUUID)
	if err != nil {
		return nil, err
	}

	var counter *models.Counter
	err = repository.WithTransaction(ctx, qf.db, func(txCtx context.Context) error {
		existing, err := qf.counterRepo.ByQueue(txCtx, queue.ID)
		if err != nil {
			return err
		}
		if !qf.quotaSvc.CanAddCounter(int64(len(existing))) {
			return ErrQuotaExceeded
		}

		nextNumber := 1
		for _, c := range existing {
			if c.Number >= nextNumber {
				nextNumber = c.Number + 1
			}
		}

		counter = &models.Counter{
			QueueID:     queue.ID,
			Number:      nextNumber,
			DisplayName: request.DisplayName,
			CreatedAt:   utils.UTCNow(),
			UpdatedAt:   utils.UTCNow(),
		}
		return qf.counterRepo.Save(txCtx, counter)
	})
	if err != nil {
		if IsQuotaExceeded(err) {
			return nil, NewBusinessError("QUOTA_EXCEEDED", "Counter quota reached", err)
		}
		return nil, NewBusinessError("COUNTER_CREATE_FAILED", "Failed to create counter", err)
	}

	result := ToCounterDTO(*counter)
	return &result, nil
}

// ListCounters returns the queue's counters ordered by number
func (qf *QueueFlowImpl) ListCounters(ctx context.Context, ownerID uint, queueUUID uuid.UUID) ([]dto.CounterDTO, error) {
	queue, err := qf.ownedQueue(ctx, ownerID, queueUUID)
	if err != nil {
		return nil, err
	}

	counters, err := qf.counterRepo.ByQueue(ctx, queue.ID)
	if err != nil {
		return nil, NewBusinessError("COUNTER_LIST_FAILED", "Failed to list counters", err)
	}

	result := make([]dto.CounterDTO, 0, len(counters))
	for _, counter := range counters {
		result = append(result, ToCounterDTO(*counter))
	}
	return result, nil
}

// RemoveCounter deletes a counter. The last counter of a queue and counters
// with an operator signed in are protected.
func (qf *QueueFlowImpl) RemoveCounter(ctx context.Context, ownerID uint, queueUUID uuid.UUID, counterID uint) error {
	queue, err := qf.ownedQueue(ctx, ownerID, queueUUID)
	if err != nil {
		return err
	}

	err = repository.WithTransaction(ctx, qf.db, func(txCtx context.Context) error {
		counter, err := qf.counterRepo.ByIDForUpdate(txCtx, counterID)
		if err != nil {
			return err
		}
		if counter == nil || counter.QueueID != queue.ID {
			return ErrCounterNotFound
		}
		if counter.IsOccupied() {
			return ErrCounterInUse
		}

		total, err := qf.counterRepo.CountByQueue(txCtx, queue.ID)
		if err != nil {
			return err
		}
		if total <= 1 {
			return ErrLastCounter
		}

		return qf.counterRepo.Delete(txCtx, counterID)
	})
	if err != nil {
		switch {
		case IsCounterNotFound(err):
			return NewBusinessError("COUNTER_NOT_FOUND", "Counter not found", err)
		case IsCounterInUse(err):
			return NewBusinessError("COUNTER_IN_USE", "Counter is occupied", err)
		case IsLastCounter(err):
			return NewBusinessError("LAST_COUNTER", "A queue needs at least one counter", err)
		default:
			return NewBusinessError("COUNTER_REMOVE_FAILED", "Failed to remove counter", err)
		}
	}
	return nil
}

// ownedQueue loads a queue and verifies ownership
func (qf *QueueFlowImpl) ownedQueue(ctx context.Context, ownerID uint, queueUUID uuid.UUID) (*models.Queue, error) {
	queue, err := qf.queueRepo.ByUUID(ctx, queueUUID)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LOOKUP_FAILED", "Failed to load queue", err)
	}
	if queue == nil {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrQueueNotFound)
	}
	if queue.OwnerID != ownerID {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrNotQueueOwner)
	}
	return queue, nil
}
