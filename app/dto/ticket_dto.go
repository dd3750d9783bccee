// Package dto contains data transfer objects for API requests and responses
package dto

// IssueTicketRequest issues a ticket directly (kiosk or staff entry)
type IssueTicketRequest struct {
	CustomerName  *string `json:"customer_name,omitempty" validate:"omitempty,max=120"`
	CustomerEmail *string `json:"customer_email,omitempty" validate:"omitempty,email"`
}

// TicketDTO is the API shape of a ticket
type TicketDTO struct {
	UUID        string  `json:"uuid"`
	Number      int64   `json:"number"`
	Status      string  `json:"status"`
	StageLabel  *string `json:"stage_label,omitempty"`
	CounterID   *uint   `json:"counter_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	CalledAt    *string `json:"called_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// CallNextRequest calls the next waiting ticket, optionally binding the
// caller's counter
type CallNextRequest struct {
	BindCounter bool `json:"bind_counter"`
}

// CallNextResponse reports the called ticket, or none when the queue is empty
type CallNextResponse struct {
	Called bool       `json:"called"`
	Ticket *TicketDTO `json:"ticket,omitempty"`
}

// TicketStatusResponse reports a ticket's live position in its queue
type TicketStatusResponse struct {
	Ticket     TicketDTO `json:"ticket"`
	Position   int64     `json:"position"`
	ETAMinutes *int      `json:"eta_minutes,omitempty"`
}

// PublicStatusResponse is the anonymous kiosk view of a queue, keyed by the
// queue's display token and a ticket number
type PublicStatusResponse struct {
	QueueName  string `json:"queue_name"`
	IsOpen     bool   `json:"is_open"`
	Number     int64  `json:"number"`
	Position   int64  `json:"position"`
	ETAMinutes *int   `json:"eta_minutes,omitempty"`
}
