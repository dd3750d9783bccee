// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue event types published to subscribers
const (
	EventTicketIssued    = "ticket_issued"
	EventTicketCalled    = "ticket_called"
	EventTicketCompleted = "ticket_completed"
	EventTicketCancelled = "ticket_cancelled"
	EventQueueOpened     = "queue_opened"
	EventQueueClosed     = "queue_closed"
	EventTokenRotated    = "token_rotated"
)

// QueueEvent is the payload published when queue state changes. Ticket
// lifecycle events carry the current call pointer and service average so
// displays can recompute position and ETA for every slip still waiting.
type QueueEvent struct {
	Type              string    `json:"type"`
	QueueUUID         uuid.UUID `json:"queue_uuid"`
	TicketUUID        *string   `json:"ticket_uuid,omitempty"`
	TicketNumber      *int64    `json:"ticket_number,omitempty"`
	Position          *int64    `json:"position,omitempty"`
	ETAMinutes        *int      `json:"eta_minutes,omitempty"`
	LastCalledNumber  *int64    `json:"last_called_number,omitempty"`
	AvgServiceSeconds *float64  `json:"avg_service_seconds,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// NotificationService broadcasts queue events to customer-facing displays.
// Delivery is best-effort: publishing never blocks or fails the business
// operation that triggered it.
type NotificationService interface {
	NotifyQueue(queueUUID uuid.UUID, event QueueEvent)
}

// RedisNotificationService publishes queue events on redis pub/sub channels
type RedisNotificationService struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisNotificationService creates a redis-backed notification service
func NewRedisNotificationService(client *redis.Client, keyPrefix string) NotificationService {
	return &RedisNotificationService{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// NotifyQueue publishes the event on the queue's channel in a background
// goroutine. Failures are logged and dropped.
func (s *RedisNotificationService) NotifyQueue(queueUUID uuid.UUID, event QueueEvent) {
	if s.client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		payload, err := json.Marshal(event)
		if err != nil {
			log.Printf("failed to marshal queue event: %v", err)
			return
		}

		channel := fmt.Sprintf("%squeue:%s", s.keyPrefix, queueUUID)
		if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
			log.Printf("failed to publish queue event to %s: %v", channel, err)
		}
	}()
}

// NoopNotificationService discards all events
type NoopNotificationService struct{}

// NewNoopNotificationService creates a notification service that drops events
func NewNoopNotificationService() NotificationService {
	return &NoopNotificationService{}
}

// NotifyQueue discards the event
func (s *NoopNotificationService) NotifyQueue(queueUUID uuid.UUID, event QueueEvent) {}
