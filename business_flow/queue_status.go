// Package businessflow contains the core business logic and use cases for queue management workflows
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/repository"
	"github.com/knobo/simple-queue-management-sub000/utils"
	"github.com/redis/go-redis/v9"
)

// publicStatusCacheTTL bounds how stale a kiosk snapshot may get
const publicStatusCacheTTL = 5 * time.Second

// QueueStatusFlow answers position and wait-time questions for tickets
type QueueStatusFlow interface {
	TicketStatus(ctx context.Context, ticketUUID uuid.UUID) (*dto.TicketStatusResponse, error)
	PublicStatus(ctx context.Context, displayToken string, number int64) (*dto.PublicStatusResponse, error)
}

// QueueStatusFlowImpl implements the status estimation business flow
type QueueStatusFlowImpl struct {
	queueRepo   repository.QueueRepository
	ticketRepo  repository.TicketRepository
	stageRepo   repository.DisplayStageRepository
	redisClient *redis.Client
}

// NewQueueStatusFlow creates a new queue status flow instance
func NewQueueStatusFlow(
	queueRepo repository.QueueRepository,
	ticketRepo repository.TicketRepository,
	stageRepo repository.DisplayStageRepository,
	redisClient *redis.Client,
) QueueStatusFlow {
	return &QueueStatusFlowImpl{
		queueRepo:   queueRepo,
		ticketRepo:  ticketRepo,
		stageRepo:   stageRepo,
		redisClient: redisClient,
	}
}

// estimateETA converts a queue position into a wait estimate in minutes.
// With no service history the fallback average applies. Estimates for live
// positions never drop below one minute.
func estimateETA(position int64, avgSeconds float64, waitingOpen bool) *int {
	if !waitingOpen {
		return nil
	}
	if avgSeconds <= 0 {
		avgSeconds = utils.FallbackServiceSeconds
	}

	minutes := int(math.Round(float64(position+1) * avgSeconds / 60))
	if minutes < utils.MinETAMinutes {
		minutes = utils.MinETAMinutes
	}
	return &minutes
}

// TicketStatus reports a ticket's exact position: the count of waiting
// tickets ahead of it in its queue
func (qs *QueueStatusFlowImpl) TicketStatus(ctx context.Context, ticketUUID uuid.UUID) (*dto.TicketStatusResponse, error) {
	ticket, err := qs.ticketRepo.ByUUID(ctx, ticketUUID)
	if err != nil {
		return nil, NewBusinessError("TICKET_LOOKUP_FAILED", "Failed to load ticket", err)
	}
	if ticket == nil {
		return nil, NewBusinessError("TICKET_NOT_FOUND", "Ticket not found", ErrTicketNotFound)
	}

	queue, err := qs.queueRepo.ByID(ctx, ticket.QueueID)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LOOKUP_FAILED", "Failed to load queue", err)
	}
	if queue == nil {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrQueueNotFound)
	}

	var position int64
	var eta *int
	if ticket.IsWaiting() {
		position, err = qs.ticketRepo.CountWaitingBelow(ctx, queue.ID, ticket.Number)
		if err != nil {
			return nil, NewBusinessError("STATUS_FAILED", "Failed to compute position", err)
		}

		avgSeconds, err := qs.ticketRepo.AverageServiceSeconds(ctx, queue.ID)
		if err != nil {
			return nil, NewBusinessError("STATUS_FAILED", "Failed to compute service average", err)
		}
		eta = estimateETA(position, avgSeconds, utils.IsTrue(queue.IsOpen))
	}

	ticketDTO := ToTicketDTO(*ticket)
	if ticket.StageID != nil {
		stage, err := qs.stageRepo.ByID(ctx, *ticket.StageID)
		if err == nil && stage != nil {
			ticketDTO.StageLabel = &stage.Label
		}
	}

	return &dto.TicketStatusResponse{
		Ticket:     ticketDTO,
		Position:   position,
		ETAMinutes: eta,
	}, nil
}

// PublicStatus reports an approximate position for kiosk displays, derived
// from the gap between a printed ticket number and the highest number already
// called. It needs no ticket lookup, so it also works for numbers shown on
// paper slips.
func (qs *QueueStatusFlowImpl) PublicStatus(ctx context.Context, displayToken string, number int64) (*dto.PublicStatusResponse, error) {
	cacheKey := fmt.Sprintf("public_status:%s:%d", displayToken, number)
	if qs.redisClient != nil {
		if cached, err := qs.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.PublicStatusResponse
			if json.Unmarshal([]byte(cached), &response) == nil {
				return &response, nil
			}
		}
	}

	queue, err := qs.queueRepo.ByDisplayToken(ctx, displayToken)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LOOKUP_FAILED", "Failed to load queue", err)
	}
	if queue == nil {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrQueueNotFound)
	}

	highestCalled, err := qs.ticketRepo.HighestCalledNumber(ctx, queue.ID)
	if err != nil {
		return nil, NewBusinessError("STATUS_FAILED", "Failed to compute position", err)
	}

	position := number - highestCalled - 1
	if position < 0 {
		position = 0
	}

	avgSeconds, err := qs.ticketRepo.AverageServiceSeconds(ctx, queue.ID)
	if err != nil {
		return nil, NewBusinessError("STATUS_FAILED", "Failed to compute service average", err)
	}

	response := &dto.PublicStatusResponse{
		QueueName:  queue.Name,
		IsOpen:     utils.IsTrue(queue.IsOpen),
		Number:     number,
		Position:   position,
		ETAMinutes: estimateETA(position, avgSeconds, utils.IsTrue(queue.IsOpen)),
	}

	if qs.redisClient != nil {
		if payload, err := json.Marshal(response); err == nil {
			qs.redisClient.Set(ctx, cacheKey, payload, publicStatusCacheTTL)
		}
	}

	return response, nil
}
