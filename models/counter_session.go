package models

import "time"

// CounterSession records one operator's shift at a counter. An open session
// has a nil EndedAt; an operator holds at most one open session at a time.
type CounterSession struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	CounterID  uint       `gorm:"not null;index:idx_counter_sessions_counter_id" json:"counter_id"`
	Counter    Counter    `gorm:"foreignKey:CounterID;references:ID" json:"counter,omitempty"`
	OperatorID uint       `gorm:"not null;index:idx_counter_sessions_operator_id" json:"operator_id"`
	StartedAt  time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}

func (CounterSession) TableName() string {
	return "counter_sessions"
}

// IsActive reports whether the session is still open
func (s *CounterSession) IsActive() bool {
	return s.EndedAt == nil
}

// CounterSessionFilter represents filter criteria for counter session queries
type CounterSessionFilter struct {
	ID         *uint
	CounterID  *uint
	OperatorID *uint
	Active     *bool
}
