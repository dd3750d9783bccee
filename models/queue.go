// Package models contains domain entities and business models for the queue management system
package models

import (
	"time"

	"github.com/google/uuid"
)

// Access-token modes selectable per queue
const (
	AccessModeStatic      = "static"
	AccessModeRotating    = "rotating"
	AccessModeOneTime     = "one_time"
	AccessModeTimeLimited = "time_limited"
)

// Queue represents a named waiting line. Exactly one of the legacy static
// secret or the dynamic token set is authoritative at a time, selected by
// AccessMode.
type Queue struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UUID               uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_queues_uuid" json:"uuid"`
	OwnerID            uint       `gorm:"not null;index:idx_queues_owner_id" json:"owner_id"`
	Owner              Operator   `gorm:"foreignKey:OwnerID;references:ID" json:"owner,omitempty"`
	Name               string     `gorm:"size:120;not null" json:"name"`
	IsOpen             *bool      `gorm:"default:false;index:idx_queues_is_open" json:"is_open"`
	AccessMode         string     `gorm:"size:20;not null;default:rotating" json:"access_mode"`
	StaticSecret       *string    `gorm:"size:255;index:idx_queues_static_secret" json:"-"` // Never serialize the join secret
	RotateStaticSecret *bool      `gorm:"default:false" json:"rotate_static_secret"`
	RotationInterval   int        `gorm:"default:0" json:"rotation_interval"` // seconds; 0 disables rotation
	TokenTTL           *int       `json:"token_ttl,omitempty"`                // seconds
	TokenMaxUses       *int       `json:"token_max_uses,omitempty"`
	LastRotatedAt      *time.Time `json:"last_rotated_at,omitempty"`
	DisplayToken       string     `gorm:"size:32;not null;uniqueIndex:idx_queues_display_token" json:"display_token"`
	CreatedAt          time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Queue) TableName() string {
	return "queues"
}

// UsesStaticSecret reports whether the legacy fixed secret gates joins
func (q *Queue) UsesStaticSecret() bool {
	return q.AccessMode == AccessModeStatic
}

// QueueFilter represents filter criteria for queue queries
type QueueFilter struct {
	ID           *uint
	UUID         *uuid.UUID
	OwnerID      *uint
	IsOpen       *bool
	AccessMode   *string
	DisplayToken *string
	StaticSecret *string
}
