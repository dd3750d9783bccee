package models

import "time"

// SequenceCounter hands out strictly increasing ticket numbers per queue.
// Rows are read with a row lock inside the issuing transaction so two
// concurrent joins never receive the same number.
type SequenceCounter struct {
	QueueID    uint      `gorm:"primaryKey" json:"queue_id"`
	LastNumber int64     `gorm:"not null;default:0" json:"last_number"`
	UpdatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (SequenceCounter) TableName() string {
	return "sequence_counters"
}
