// Package dto contains data transfer objects for API requests and responses
package dto

// StartSessionRequest signs the operator in at a counter
type StartSessionRequest struct {
	CounterID uint `json:"counter_id" validate:"required"`
}

// SessionDTO is the API shape of a counter session
type SessionDTO struct {
	ID        uint    `json:"id"`
	CounterID uint    `json:"counter_id"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at,omitempty"`
}
