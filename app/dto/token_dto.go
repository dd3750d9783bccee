// Package dto contains data transfer objects for API requests and responses
package dto

// JoinRequest enters a queue using a join token or static secret
type JoinRequest struct {
	Token         string  `json:"token" validate:"required,min=1,max=255"`
	CustomerName  *string `json:"customer_name,omitempty" validate:"omitempty,max=120"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
}

// JoinResponse returns the issued ticket with its starting position
type JoinResponse struct {
	Ticket     TicketDTO `json:"ticket"`
	Position   int64     `json:"position"`
	ETAMinutes *int      `json:"eta_minutes,omitempty"`
	NextToken  *string   `json:"next_token,omitempty"` // replacement code for one-time queues
}

// AccessTokenDTO is the API shape of a join token, visible to owners only
type AccessTokenDTO struct {
	Code      string  `json:"code"`
	ExpiresAt *string `json:"expires_at,omitempty"`
	MaxUses   *int    `json:"max_uses,omitempty"`
	UseCount  int     `json:"use_count"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
}

// RotateTokenResponse returns the freshly minted join token
type RotateTokenResponse struct {
	Token AccessTokenDTO `json:"token"`
}
