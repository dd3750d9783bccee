// Package businessflow contains the core business logic and use cases for queue management workflows
package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/app/services"
	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/knobo/simple-queue-management-sub000/repository"
	"github.com/knobo/simple-queue-management-sub000/utils"
	"gorm.io/gorm"
)

// defaultTokenTTLSeconds applies to time-limited queues without an explicit TTL
const defaultTokenTTLSeconds = 3600

// AccessTokenFlow handles join-token issuance, rotation, validation and the
// customer join operation
type AccessTokenFlow interface {
	RotateToken(ctx context.Context, ownerID uint, queueUUID uuid.UUID, metadata *ClientMetadata) (*dto.RotateTokenResponse, error)
	CurrentTokens(ctx context.Context, ownerID uint, queueUUID uuid.UUID) ([]dto.AccessTokenDTO, error)
	Join(ctx context.Context, request *dto.JoinRequest, metadata *ClientMetadata) (*dto.JoinResponse, error)
	RotateQueueToken(ctx context.Context, queue *models.Queue) error
}

// AccessTokenFlowImpl implements the access token business flow
type AccessTokenFlowImpl struct {
	queueRepo       repository.QueueRepository
	tokenRepo       repository.AccessTokenRepository
	ticketRepo      repository.TicketRepository
	sequenceRepo    repository.SequenceRepository
	stageRepo       repository.DisplayStageRepository
	auditRepo       repository.AuditLogRepository
	notificationSvc services.NotificationService
	db              *gorm.DB
}

// NewAccessTokenFlow creates a new access token flow instance
func NewAccessTokenFlow(
	queueRepo repository.QueueRepository,
	tokenRepo repository.AccessTokenRepository,
	ticketRepo repository.TicketRepository,
	sequenceRepo repository.SequenceRepository,
	stageRepo repository.DisplayStageRepository,
	auditRepo repository.AuditLogRepository,
	notificationSvc services.NotificationService,
	db *gorm.DB,
) AccessTokenFlow {
	return &AccessTokenFlowImpl{
		queueRepo:       queueRepo,
		tokenRepo:       tokenRepo,
		ticketRepo:      ticketRepo,
		sequenceRepo:    sequenceRepo,
		stageRepo:       stageRepo,
		auditRepo:       auditRepo,
		notificationSvc: notificationSvc,
		db:              db,
	}
}

// NeedsRotation reports whether a rotating queue's token is past its interval
func NeedsRotation(queue *models.Queue, now time.Time) bool {
	if queue.AccessMode != models.AccessModeRotating || queue.RotationInterval <= 0 {
		return false
	}
	if queue.LastRotatedAt == nil {
		return true
	}
	return now.Sub(*queue.LastRotatedAt) > time.Duration(queue.RotationInterval)*time.Second
}

// RotateToken mints a fresh join credential for an owned queue
func (af *AccessTokenFlowImpl) RotateToken(ctx context.Context, ownerID uint, queueUUID uuid.UUID, metadata *ClientMetadata) (*dto.RotateTokenResponse, error) {
	queue, err := af.queueRepo.ByUUID(ctx, queueUUID)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LOOKUP_FAILED", "Failed to load queue", err)
	}
	if queue == nil || queue.OwnerID != ownerID {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrQueueNotFound)
	}

	var token *models.AccessToken
	err = repository.WithTransaction(ctx, af.db, func(txCtx context.Context) error {
		token, err = af.mintToken(txCtx, queue)
		return err
	})
	if err != nil {
		return nil, NewBusinessError("TOKEN_ROTATE_FAILED", "Failed to rotate token", err)
	}

	msg := fmt.Sprintf("Join token rotated for queue %s", queue.UUID)
	_ = recordAudit(ctx, af.auditRepo, &ownerID, &queue.ID, models.AuditActionTokenRotated, msg, true, metadata)

	af.notificationSvc.NotifyQueue(queue.UUID, services.QueueEvent{
		Type:       services.EventTokenRotated,
		QueueUUID:  queue.UUID,
		OccurredAt: utils.UTCNow(),
	})

	return &dto.RotateTokenResponse{Token: ToAccessTokenDTO(*token)}, nil
}

// RotateQueueToken rotates a queue's token on behalf of the scheduler
func (af *AccessTokenFlowImpl) RotateQueueToken(ctx context.Context, queue *models.Queue) error {
	err := repository.WithTransaction(ctx, af.db, func(txCtx context.Context) error {
		_, err := af.mintToken(txCtx, queue)
		return err
	})
	if err != nil {
		return NewBusinessError("TOKEN_ROTATE_FAILED", "Failed to rotate token", err)
	}

	af.notificationSvc.NotifyQueue(queue.UUID, services.QueueEvent{
		Type:       services.EventTokenRotated,
		QueueUUID:  queue.UUID,
		OccurredAt: utils.UTCNow(),
	})
	return nil
}

// mintToken creates a new credential according to the queue's access mode.
// Must run inside a transaction.
func (af *AccessTokenFlowImpl) mintToken(ctx context.Context, queue *models.Queue) (*models.AccessToken, error) {
	code, err := services.GenerateAccessCode(utils.AccessCodeLength)
	if err != nil {
		return nil, err
	}
	now := utils.UTCNow()

	if queue.AccessMode == models.AccessModeStatic {
		// The static secret is the credential itself; swap it in place
		if err := af.queueRepo.UpdateStaticSecret(ctx, queue.ID, code); err != nil {
			return nil, err
		}
		if err := af.queueRepo.UpdateLastRotatedAt(ctx, queue.ID, now); err != nil {
			return nil, err
		}
		queue.StaticSecret = &code
		queue.LastRotatedAt = &now
		return &models.AccessToken{
			QueueID:   queue.ID,
			Code:      code,
			IsActive:  utils.ToPtr(true),
			CreatedAt: now,
		}, nil
	}

	token := &models.AccessToken{
		QueueID:   queue.ID,
		Code:      code,
		MaxUses:   queue.TokenMaxUses,
		IsActive:  utils.ToPtr(true),
		CreatedAt: now,
	}

	switch queue.AccessMode {
	case models.AccessModeRotating:
		// Only one live token at a time; retire the rest
		if err := af.tokenRepo.DeactivateAllForQueue(ctx, queue.ID); err != nil {
			return nil, err
		}
		if queue.TokenTTL != nil {
			token.ExpiresAt = utils.UTCNowAddPtr(time.Duration(*queue.TokenTTL) * time.Second)
		}
	case models.AccessModeOneTime:
		token.MaxUses = utils.ToPtr(1)
	case models.AccessModeTimeLimited:
		ttl := defaultTokenTTLSeconds
		if queue.TokenTTL != nil {
			ttl = *queue.TokenTTL
		}
		token.ExpiresAt = utils.UTCNowAddPtr(time.Duration(ttl) * time.Second)
	}

	if err := af.tokenRepo.Save(ctx, token); err != nil {
		return nil, err
	}
	if err := af.queueRepo.UpdateLastRotatedAt(ctx, queue.ID, now); err != nil {
		return nil, err
	}
	queue.LastRotatedAt = &now

	return token, nil
}

// CurrentTokens lists the queue's live join tokens for its owner
func (af *AccessTokenFlowImpl) CurrentTokens(ctx context.Context, ownerID uint, queueUUID uuid.UUID) ([]dto.AccessTokenDTO, error) {
	queue, err := af.queueRepo.ByUUID(ctx, queueUUID)
	if err != nil {
		return nil, NewBusinessError("QUEUE_LOOKUP_FAILED", "Failed to load queue", err)
	}
	if queue == nil || queue.OwnerID != ownerID {
		return nil, NewBusinessError("QUEUE_NOT_FOUND", "Queue not found", ErrQueueNotFound)
	}

	tokens, err := af.tokenRepo.ActiveByQueue(ctx, queue.ID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_LIST_FAILED", "Failed to list tokens", err)
	}

	result := make([]dto.AccessTokenDTO, 0, len(tokens))
	for _, token := range tokens {
		result = append(result, ToAccessTokenDTO(*token))
	}
	return result, nil
}

// Join admits a customer into a queue using a join credential. Every failure
// mode surfaces as the same generic invalid-token error so callers cannot
// probe which codes exist.
func (af *AccessTokenFlowImpl) Join(ctx context.Context, request *dto.JoinRequest, metadata *ClientMetadata) (*dto.JoinResponse, error) {
	var queue *models.Queue
	var ticket *models.Ticket
	var replacement *models.AccessToken
	var position int64
	var avgSeconds float64

	err := repository.WithTransaction(ctx, af.db, func(txCtx context.Context) error {
		token, err := af.tokenRepo.ByCodeForUpdate(txCtx, request.Token)
		if err != nil {
			return err
		}

		if token != nil {
			if !token.IsValid() {
				return ErrTokenInvalid
			}
			queue, err = af.queueRepo.ByID(txCtx, token.QueueID)
			if err != nil {
				return err
			}
			if queue == nil || queue.UsesStaticSecret() {
				return ErrTokenInvalid
			}
		} else {
			// Fall back to the legacy static secret path
			queue, err = af.queueRepo.ByStaticSecret(txCtx, request.Token)
			if err != nil {
				return err
			}
			if queue == nil {
				return ErrTokenInvalid
			}
		}

		if !utils.IsTrue(queue.IsOpen) {
			return ErrQueueClosed
		}

		if token != nil {
			if err := af.tokenRepo.IncrementUseCount(txCtx, token.ID); err != nil {
				return err
			}
			if queue.AccessMode == models.AccessModeOneTime {
				// Single admission per code: burn it and mint the successor
				if err := af.tokenRepo.Deactivate(txCtx, token.ID); err != nil {
					return err
				}
				replacement, err = af.mintToken(txCtx, queue)
				if err != nil {
					return err
				}
			}
		} else if utils.IsTrue(queue.RotateStaticSecret) {
			// Optional secret-per-join hardening for static queues
			if _, err := af.mintToken(txCtx, queue); err != nil {
				return err
			}
		}

		ticket, err = issueTicket(txCtx, queue, af.stageRepo, af.sequenceRepo, af.ticketRepo, request.CustomerName, request.CustomerEmail)
		if err != nil {
			return err
		}

		position, err = af.ticketRepo.CountWaitingBelow(txCtx, queue.ID, ticket.Number)
		if err != nil {
			return err
		}
		avgSeconds, err = af.ticketRepo.AverageServiceSeconds(txCtx, queue.ID)
		return err
	})
	if err != nil {
		switch {
		case IsTokenInvalid(err):
			return nil, NewBusinessError("TOKEN_INVALID", "Token is invalid", ErrTokenInvalid)
		case IsQueueClosed(err):
			return nil, NewBusinessError("QUEUE_CLOSED", "Queue is closed", err)
		case IsMissingStageMapping(err):
			return nil, NewBusinessError("MISSING_STAGE_MAPPING", "Queue has no waiting stage", err)
		default:
			return nil, NewBusinessError("JOIN_FAILED", "Failed to join queue", err)
		}
	}

	msg := fmt.Sprintf("Ticket %d issued via join token in queue %s", ticket.Number, queue.UUID)
	_ = recordAudit(ctx, af.auditRepo, nil, &queue.ID, models.AuditActionTokenConsumed, msg, true, metadata)

	ticketUUID := ticket.UUID.String()
	af.notificationSvc.NotifyQueue(queue.UUID, services.QueueEvent{
		Type:         services.EventTicketIssued,
		QueueUUID:    queue.UUID,
		TicketUUID:   &ticketUUID,
		TicketNumber: &ticket.Number,
		Position:     &position,
		ETAMinutes:   estimateETA(position, avgSeconds, true),
		OccurredAt:   utils.UTCNow(),
	})

	response := &dto.JoinResponse{
		Ticket:     ToTicketDTO(*ticket),
		Position:   position,
		ETAMinutes: estimateETA(position, avgSeconds, true),
	}
	if replacement != nil {
		response.NextToken = &replacement.Code
	}
	return response, nil
}
