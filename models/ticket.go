package models

import (
	"time"

	"github.com/google/uuid"
)

// Canonical ticket statuses. A ticket only moves forward through the state
// machine; completed and cancelled are terminal.
const (
	TicketStatusWaiting   = "waiting"
	TicketStatusCalled    = "called"
	TicketStatusCompleted = "completed"
	TicketStatusCancelled = "cancelled"
)

// CanonicalStatuses lists every status in display order
var CanonicalStatuses = []string{
	TicketStatusWaiting,
	TicketStatusCalled,
	TicketStatusCompleted,
	TicketStatusCancelled,
}

var ticketTransitions = map[string][]string{
	TicketStatusCalled:    {TicketStatusWaiting},
	TicketStatusCompleted: {TicketStatusCalled},
	TicketStatusCancelled: {TicketStatusWaiting, TicketStatusCalled},
}

// ValidTicketTransition reports whether a ticket may move from one status to another
func ValidTicketTransition(from, to string) bool {
	allowed, ok := ticketTransitions[to]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}

// IsTerminalTicketStatus reports whether a status admits no further transitions
func IsTerminalTicketStatus(status string) bool {
	return status == TicketStatusCompleted || status == TicketStatusCancelled
}

// Ticket represents one place in a waiting line. Number is unique and
// strictly increasing per queue and is never reused, even after cancellation.
type Ticket struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_tickets_uuid" json:"uuid"`
	QueueID       uint       `gorm:"not null;index:idx_tickets_queue_id;uniqueIndex:idx_tickets_queue_number,priority:1" json:"queue_id"`
	Number        int64      `gorm:"not null;uniqueIndex:idx_tickets_queue_number,priority:2" json:"number"`
	Status        string     `gorm:"size:20;not null;index:idx_tickets_status" json:"status"`
	StageID       *uint      `json:"stage_id,omitempty"`
	CounterID     *uint      `gorm:"index:idx_tickets_counter_id" json:"counter_id,omitempty"`
	OperatorID    *uint      `json:"operator_id,omitempty"`
	CustomerName  *string    `gorm:"size:120" json:"customer_name,omitempty"`
	CustomerEmail *string    `gorm:"size:255" json:"customer_email,omitempty"`
	CreatedAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	CalledAt      *time.Time `json:"called_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// IsWaiting reports whether the ticket is still in line
func (t *Ticket) IsWaiting() bool {
	return t.Status == TicketStatusWaiting
}

// TicketFilter represents filter criteria for ticket queries
type TicketFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	QueueID       *uint
	Number        *int64
	Status        *string
	CounterID     *uint
	OperatorID    *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
