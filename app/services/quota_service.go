// Package services provides external service integrations and technical concerns like notifications and tokens
package services

// QuotaService enforces per-account resource limits
type QuotaService interface {
	CanCreateQueue(ownedQueues int64) bool
	CanAddCounter(queueCounters int64) bool
}

// PlanQuotaService applies fixed plan limits. A limit of 0 means unlimited.
type PlanQuotaService struct {
	maxQueuesPerOwner   int64
	maxCountersPerQueue int64
}

// NewPlanQuotaService creates a quota service with the given plan limits
func NewPlanQuotaService(maxQueuesPerOwner, maxCountersPerQueue int64) QuotaService {
	return &PlanQuotaService{
		maxQueuesPerOwner:   maxQueuesPerOwner,
		maxCountersPerQueue: maxCountersPerQueue,
	}
}

// CanCreateQueue reports whether the owner may create another queue
func (s *PlanQuotaService) CanCreateQueue(ownedQueues int64) bool {
	return s.maxQueuesPerOwner <= 0 || ownedQueues < s.maxQueuesPerOwner
}

// CanAddCounter reports whether the queue may gain another counter
func (s *PlanQuotaService) CanAddCounter(queueCounters int64) bool {
	return s.maxCountersPerQueue <= 0 || queueCounters < s.maxCountersPerQueue
}
