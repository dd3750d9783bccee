package models

import "time"

// DisplayStage is an owner-configurable label bound to exactly one canonical
// ticket status. Every queue retains at least one stage per canonical status.
type DisplayStage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	QueueID   uint      `gorm:"not null;index:idx_display_stages_queue_id" json:"queue_id"`
	Label     string    `gorm:"size:80;not null" json:"label"`
	Status    string    `gorm:"size:20;not null;index:idx_display_stages_status" json:"status"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DisplayStage) TableName() string {
	return "display_stages"
}

// DefaultStages returns the four stages seeded at queue creation, one per
// canonical status
func DefaultStages(queueID uint) []*DisplayStage {
	labels := map[string]string{
		TicketStatusWaiting:   "Waiting",
		TicketStatusCalled:    "Called",
		TicketStatusCompleted: "Completed",
		TicketStatusCancelled: "Cancelled",
	}
	stages := make([]*DisplayStage, 0, len(CanonicalStatuses))
	for i, status := range CanonicalStatuses {
		stages = append(stages, &DisplayStage{
			QueueID:   queueID,
			Label:     labels[status],
			Status:    status,
			SortOrder: i,
		})
	}
	return stages
}

// DisplayStageFilter represents filter criteria for display stage queries
type DisplayStageFilter struct {
	ID      *uint
	QueueID *uint
	Status  *string
}
