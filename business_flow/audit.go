// Package businessflow contains the core business logic and use cases for queue management workflows
package businessflow

import (
	"context"

	"github.com/knobo/simple-queue-management-sub000/models"
	"github.com/knobo/simple-queue-management-sub000/repository"
	"github.com/knobo/simple-queue-management-sub000/utils"
)

// recordAudit writes an audit entry outside the caller's transaction so a
// rolled-back operation still leaves a trace. Errors are returned for the
// caller to ignore or log.
func recordAudit(ctx context.Context, auditRepo repository.AuditLogRepository, operatorID, queueID *uint, action, description string, success bool, metadata *ClientMetadata) error {
	entry := &models.AuditLog{
		OperatorID:  operatorID,
		QueueID:     queueID,
		Action:      action,
		Description: utils.ToPtr(description),
		Success:     utils.ToPtr(success),
		CreatedAt:   utils.UTCNow(),
	}

	if metadata != nil {
		if metadata.IPAddress != "" {
			entry.IPAddress = utils.ToPtr(metadata.IPAddress)
		}
		if metadata.UserAgent != "" {
			entry.UserAgent = utils.ToPtr(metadata.UserAgent)
		}
		if metadata.RequestID != "" {
			entry.RequestID = utils.ToPtr(metadata.RequestID)
		}
	}

	freshCtx := context.WithValue(ctx, repository.TxContextKey, nil)
	return auditRepo.Save(freshCtx, entry)
}
