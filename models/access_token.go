package models

import (
	"time"

	"github.com/knobo/simple-queue-management-sub000/utils"
)

// AccessToken is a generated join code for a queue. Validity requires the
// active flag, an unexpired deadline when set, and remaining uses when capped.
type AccessToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	QueueID   uint       `gorm:"not null;index:idx_access_tokens_queue_id" json:"queue_id"`
	Queue     Queue      `gorm:"foreignKey:QueueID;references:ID" json:"queue,omitempty"`
	Code      string     `gorm:"size:64;not null;uniqueIndex:idx_access_tokens_code" json:"code"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUses   *int       `json:"max_uses,omitempty"`
	UseCount  int        `gorm:"default:0" json:"use_count"`
	IsActive  *bool      `gorm:"default:true;index:idx_access_tokens_is_active" json:"is_active"`
	CreatedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AccessToken) TableName() string {
	return "access_tokens"
}

// IsExpired reports whether the token's deadline has passed
func (t *AccessToken) IsExpired() bool {
	return utils.IsExpiredPtr(t.ExpiresAt)
}

// IsExhausted reports whether the token's use cap has been reached
func (t *AccessToken) IsExhausted() bool {
	return t.MaxUses != nil && t.UseCount >= *t.MaxUses
}

// IsValid reports whether the token can still admit a customer
func (t *AccessToken) IsValid() bool {
	return utils.IsTrue(t.IsActive) && !t.IsExpired() && !t.IsExhausted()
}

// AccessTokenFilter represents filter criteria for access token queries
type AccessTokenFilter struct {
	ID       *uint
	QueueID  *uint
	Code     *string
	IsActive *bool
}
