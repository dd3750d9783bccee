// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/knobo/simple-queue-management-sub000/app/dto"
	"github.com/knobo/simple-queue-management-sub000/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToQueueDTO converts a queue model to its API shape
func ToQueueDTO(queue models.Queue) dto.QueueDTO {
	return dto.QueueDTO{
		UUID:             queue.UUID.String(),
		Name:             queue.Name,
		IsOpen:           queue.IsOpen != nil && *queue.IsOpen,
		AccessMode:       queue.AccessMode,
		RotationInterval: queue.RotationInterval,
		DisplayToken:     queue.DisplayToken,
		CreatedAt:        queue.CreatedAt.Format(time.RFC3339),
	}
}

// ToTicketDTO converts a ticket model to its API shape
func ToTicketDTO(ticket models.Ticket) dto.TicketDTO {
	out := dto.TicketDTO{
		UUID:      ticket.UUID.String(),
		Number:    ticket.Number,
		Status:    ticket.Status,
		CounterID: ticket.CounterID,
		CreatedAt: ticket.CreatedAt.Format(time.RFC3339),
	}
	if ticket.CalledAt != nil {
		calledAt := ticket.CalledAt.Format(time.RFC3339)
		out.CalledAt = &calledAt
	}
	if ticket.CompletedAt != nil {
		completedAt := ticket.CompletedAt.Format(time.RFC3339)
		out.CompletedAt = &completedAt
	}
	return out
}

// ToStageDTO converts a display stage model to its API shape
func ToStageDTO(stage models.DisplayStage) dto.StageDTO {
	return dto.StageDTO{
		ID:        stage.ID,
		Label:     stage.Label,
		Status:    stage.Status,
		SortOrder: stage.SortOrder,
	}
}

// ToCounterDTO converts a counter model to its API shape
func ToCounterDTO(counter models.Counter) dto.CounterDTO {
	return dto.CounterDTO{
		ID:                counter.ID,
		Number:            counter.Number,
		DisplayName:       counter.DisplayName,
		CurrentOperatorID: counter.CurrentOperatorID,
		CurrentTicketID:   counter.CurrentTicketID,
	}
}

// ToSessionDTO converts a counter session model to its API shape
func ToSessionDTO(session models.CounterSession) dto.SessionDTO {
	out := dto.SessionDTO{
		ID:        session.ID,
		CounterID: session.CounterID,
		StartedAt: session.StartedAt.Format(time.RFC3339),
	}
	if session.EndedAt != nil {
		endedAt := session.EndedAt.Format(time.RFC3339)
		out.EndedAt = &endedAt
	}
	return out
}

// ToAccessTokenDTO converts an access token model to its API shape
func ToAccessTokenDTO(token models.AccessToken) dto.AccessTokenDTO {
	out := dto.AccessTokenDTO{
		Code:      token.Code,
		MaxUses:   token.MaxUses,
		UseCount:  token.UseCount,
		IsActive:  token.IsActive != nil && *token.IsActive,
		CreatedAt: token.CreatedAt.Format(time.RFC3339),
	}
	if token.ExpiresAt != nil {
		expiresAt := token.ExpiresAt.Format(time.RFC3339)
		out.ExpiresAt = &expiresAt
	}
	return out
}

// ToOperatorDTO converts an operator model to its API shape
func ToOperatorDTO(operator models.Operator) dto.OperatorDTO {
	return dto.OperatorDTO{
		UUID:  operator.UUID.String(),
		Name:  operator.Name,
		Email: operator.Email,
		Role:  operator.Role,
	}
}
