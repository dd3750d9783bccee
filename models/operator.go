package models

import (
	"time"

	"github.com/google/uuid"
)

// Operator roles
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// Operator is a staff account that serves tickets at counters. Owners may
// additionally manage queues, counters, and stages.
type Operator struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_operators_uuid" json:"uuid"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:idx_operators_email" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:staff" json:"role"`
	IsActive     *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Operator) TableName() string {
	return "operators"
}

// IsOwner reports whether the operator may manage queue configuration
func (o *Operator) IsOwner() bool {
	return o.Role == RoleOwner
}

// OperatorFilter represents filter criteria for operator queries
type OperatorFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Email    *string
	Role     *string
	IsActive *bool
}
