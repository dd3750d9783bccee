// Package scheduler runs background jobs for the queue management service
package scheduler

import (
	"context"
	"log"
	"time"

	businessflow "github.com/knobo/simple-queue-management-sub000/business_flow"
	"github.com/knobo/simple-queue-management-sub000/repository"
	"github.com/knobo/simple-queue-management-sub000/utils"
	"github.com/redis/go-redis/v9"
)

// RotationScheduler periodically refreshes join tokens for queues in
// rotating mode whose rotation interval has elapsed.
type RotationScheduler struct {
	queueRepo    repository.QueueRepository
	tokenFlow    businessflow.AccessTokenFlow
	redisClient  *redis.Client
	pollInterval time.Duration
}

// NewRotationScheduler creates a new rotation scheduler
func NewRotationScheduler(queueRepo repository.QueueRepository, tokenFlow businessflow.AccessTokenFlow, redisClient *redis.Client, pollInterval time.Duration) *RotationScheduler {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &RotationScheduler{
		queueRepo:    queueRepo,
		tokenFlow:    tokenFlow,
		redisClient:  redisClient,
		pollInterval: pollInterval,
	}
}

// Start launches the polling loop and returns a stop function
func (s *RotationScheduler) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		log.Printf("Rotation scheduler started (poll interval %s)", s.pollInterval)

		for {
			select {
			case <-ctx.Done():
				log.Println("Rotation scheduler stopped")
				return
			case <-ticker.C:
				s.rotateDueQueues(ctx)
			}
		}
	}()

	return cancel
}

// rotateDueQueues scans rotating queues and refreshes the ones whose interval elapsed
func (s *RotationScheduler) rotateDueQueues(ctx context.Context) {
	queues, err := s.queueRepo.ListRotating(ctx)
	if err != nil {
		log.Println("Rotation scan failed", err)
		return
	}

	now := utils.UTCNow()
	for _, queue := range queues {
		if !businessflow.NeedsRotation(queue, now) {
			continue
		}

		// Redis lock keeps multiple instances from rotating the same queue
		if s.redisClient != nil {
			lockKey := "rotate_lock:" + queue.UUID.String()
			acquired, err := s.redisClient.SetNX(ctx, lockKey, "1", 10*time.Second).Result()
			if err != nil {
				log.Println("Rotation lock failed", queue.UUID, err)
				continue
			}
			if !acquired {
				continue
			}
		}

		if err := s.tokenFlow.RotateQueueToken(ctx, queue); err != nil {
			log.Println("Scheduled rotation failed", queue.UUID, err)
		}
	}
}
