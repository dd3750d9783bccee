// Package dto contains data transfer objects for API requests and responses
package dto

// CreateQueueRequest creates a new queue for the authenticated owner
type CreateQueueRequest struct {
	Name             string `json:"name" validate:"required,min=1,max=120"`
	AccessMode       string `json:"access_mode" validate:"omitempty,oneof=static rotating one_time time_limited"`
	RotationInterval int    `json:"rotation_interval" validate:"omitempty,min=0"` // seconds
	TokenTTL         *int   `json:"token_ttl,omitempty" validate:"omitempty,min=1"`
	TokenMaxUses     *int   `json:"token_max_uses,omitempty" validate:"omitempty,min=1"`
}

// QueueDTO is the API shape of a queue
type QueueDTO struct {
	UUID             string `json:"uuid"`
	Name             string `json:"name"`
	IsOpen           bool   `json:"is_open"`
	AccessMode       string `json:"access_mode"`
	RotationInterval int    `json:"rotation_interval"`
	DisplayToken     string `json:"display_token"`
	CreatedAt        string `json:"created_at"`
}

// SetQueueOpenRequest opens or closes a queue
type SetQueueOpenRequest struct {
	Open bool `json:"open"`
}

// AddStageRequest adds a display stage mapped to a canonical status
type AddStageRequest struct {
	Label     string `json:"label" validate:"required,min=1,max=80"`
	Status    string `json:"status" validate:"required,oneof=waiting called completed cancelled"`
	SortOrder int    `json:"sort_order" validate:"omitempty,min=0"`
}

// StageDTO is the API shape of a display stage
type StageDTO struct {
	ID        uint   `json:"id"`
	Label     string `json:"label"`
	Status    string `json:"status"`
	SortOrder int    `json:"sort_order"`
}

// CreateCounterRequest adds a counter to a queue
type CreateCounterRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=80"`
}

// CounterDTO is the API shape of a counter
type CounterDTO struct {
	ID                uint    `json:"id"`
	Number            int     `json:"number"`
	DisplayName       *string `json:"display_name,omitempty"`
	CurrentOperatorID *uint   `json:"current_operator_id,omitempty"`
	CurrentTicketID   *uint   `json:"current_ticket_id,omitempty"`
}
