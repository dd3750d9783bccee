package models

import "time"

// Counter is a numbered service point inside a queue. CurrentOperatorID and
// CurrentTicketID track live occupancy; a counter with an operator bound is
// occupied and cannot be claimed by another operator.
type Counter struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	QueueID           uint      `gorm:"not null;index:idx_counters_queue_id;uniqueIndex:idx_counters_queue_number,priority:1" json:"queue_id"`
	Number            int       `gorm:"not null;uniqueIndex:idx_counters_queue_number,priority:2" json:"number"`
	DisplayName       *string   `gorm:"size:80" json:"display_name,omitempty"`
	CurrentOperatorID *uint     `gorm:"index:idx_counters_current_operator" json:"current_operator_id,omitempty"`
	CurrentTicketID   *uint     `json:"current_ticket_id,omitempty"`
	CreatedAt         time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Counter) TableName() string {
	return "counters"
}

// IsOccupied reports whether an operator is currently bound to the counter
func (c *Counter) IsOccupied() bool {
	return c.CurrentOperatorID != nil
}

// CounterFilter represents filter criteria for counter queries
type CounterFilter struct {
	ID                *uint
	QueueID           *uint
	Number            *int
	CurrentOperatorID *uint
	CurrentTicketID   *uint
}
