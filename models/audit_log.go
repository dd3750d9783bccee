package models

import "time"

// Audit actions recorded by business flows
const (
	AuditActionLoginSuccess   = "login_success"
	AuditActionLoginFailed    = "login_failed"
	AuditActionQueueCreated   = "queue_created"
	AuditActionQueueOpened    = "queue_opened"
	AuditActionQueueClosed    = "queue_closed"
	AuditActionTicketIssued   = "ticket_issued"
	AuditActionTicketCalled   = "ticket_called"
	AuditActionTicketServed   = "ticket_served"
	AuditActionTicketDone     = "ticket_completed"
	AuditActionTicketCanceled = "ticket_cancelled"
	AuditActionSessionStarted = "session_started"
	AuditActionSessionEnded   = "session_ended"
	AuditActionTokenRotated   = "token_rotated"
	AuditActionTokenConsumed  = "token_consumed"
)

// AuditLog records security and lifecycle events with request metadata
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OperatorID  *uint     `gorm:"index:idx_audit_logs_operator_id" json:"operator_id,omitempty"`
	QueueID     *uint     `gorm:"index:idx_audit_logs_queue_id" json:"queue_id,omitempty"`
	Action      string    `gorm:"size:50;not null;index:idx_audit_logs_action" json:"action"`
	Description *string   `gorm:"size:500" json:"description,omitempty"`
	Success     *bool     `gorm:"default:true" json:"success"`
	IPAddress   *string   `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   *string   `gorm:"size:500" json:"user_agent,omitempty"`
	RequestID   *string   `gorm:"size:64" json:"request_id,omitempty"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID         *uint
	OperatorID *uint
	QueueID    *uint
	Action     *string
	Success    *bool
}
