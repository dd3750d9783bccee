// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/knobo/simple-queue-management-sub000/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketRepositoryImpl implements TicketRepository interface
type TicketRepositoryImpl struct {
	*BaseRepository[models.Ticket, models.TicketFilter]
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &TicketRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Ticket, models.TicketFilter](db),
	}
}

// ByUUID retrieves a ticket by its UUID
func (r *TicketRepositoryImpl) ByUUID(ctx context.Context, ticketUUID uuid.UUID) (*models.Ticket, error) {
	db := r.getDB(ctx)

	var ticket models.Ticket
	err := db.Where("uuid = ?", ticketUUID).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ticket by uuid: %w", err)
	}

	return &ticket, nil
}

// ByQueueAndNumber retrieves a ticket by its queue and position number
func (r *TicketRepositoryImpl) ByQueueAndNumber(ctx context.Context, queueID uint, number int64) (*models.Ticket, error) {
	db := r.getDB(ctx)

	var ticket models.Ticket
	err := db.Where("queue_id = ? AND number = ?", queueID, number).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ticket by queue and number: %w", err)
	}

	return &ticket, nil
}

// ByIDForUpdate retrieves a ticket by ID with a row lock. Must run inside a transaction.
func (r *TicketRepositoryImpl) ByIDForUpdate(ctx context.Context, ticketID uint) (*models.Ticket, error) {
	db := r.getDB(ctx)

	var ticket models.Ticket
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", ticketID).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock ticket: %w", err)
	}

	return &ticket, nil
}

// NextWaitingForUpdate locks and returns the lowest-numbered waiting ticket
// in the queue, or nil when no one is waiting. Must run inside a transaction.
func (r *TicketRepositoryImpl) NextWaitingForUpdate(ctx context.Context, queueID uint) (*models.Ticket, error) {
	db := r.getDB(ctx)

	var ticket models.Ticket
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("queue_id = ? AND status = ?", queueID, models.TicketStatusWaiting).
		Order("number ASC").
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock next waiting ticket: %w", err)
	}

	return &ticket, nil
}

// MarkCalled transitions a ticket to called with its counter assignment
func (r *TicketRepositoryImpl) MarkCalled(ctx context.Context, ticketID uint, stageID, counterID, operatorID *uint, at time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Ticket{}).Where("id = ?", ticketID).
		Updates(map[string]any{
			"status":      models.TicketStatusCalled,
			"stage_id":    stageID,
			"counter_id":  counterID,
			"operator_id": operatorID,
			"called_at":   at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark ticket called: %w", err)
	}

	return nil
}

// MarkCompleted transitions a ticket to completed
func (r *TicketRepositoryImpl) MarkCompleted(ctx context.Context, ticketID uint, stageID *uint, at time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Ticket{}).Where("id = ?", ticketID).
		Updates(map[string]any{
			"status":       models.TicketStatusCompleted,
			"stage_id":     stageID,
			"completed_at": at,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark ticket completed: %w", err)
	}

	return nil
}

// MarkCancelled transitions a ticket to cancelled
func (r *TicketRepositoryImpl) MarkCancelled(ctx context.Context, ticketID uint, stageID *uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Ticket{}).Where("id = ?", ticketID).
		Updates(map[string]any{
			"status":   models.TicketStatusCancelled,
			"stage_id": stageID,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark ticket cancelled: %w", err)
	}

	return nil
}

// CountWaitingBelow counts waiting tickets in the queue with a lower number
func (r *TicketRepositoryImpl) CountWaitingBelow(ctx context.Context, queueID uint, number int64) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.Ticket{}).
		Where("queue_id = ? AND status = ? AND number < ?", queueID, models.TicketStatusWaiting, number).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count waiting tickets: %w", err)
	}

	return count, nil
}

// HighestCalledNumber returns the highest ticket number that was ever called,
// or 0 when no ticket has been called yet. Tickets cancelled straight from
// waiting never carry a call time and do not advance the pointer.
func (r *TicketRepositoryImpl) HighestCalledNumber(ctx context.Context, queueID uint) (int64, error) {
	db := r.getDB(ctx)

	var result struct {
		Max *int64
	}
	err := db.Model(&models.Ticket{}).
		Select("MAX(number) AS max").
		Where("queue_id = ? AND called_at IS NOT NULL", queueID).
		Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find highest called number: %w", err)
	}
	if result.Max == nil {
		return 0, nil
	}

	return *result.Max, nil
}

// AverageServiceSeconds returns the mean seconds between call and completion
// over the queue's completed tickets, or 0 when there is no history
func (r *TicketRepositoryImpl) AverageServiceSeconds(ctx context.Context, queueID uint) (float64, error) {
	db := r.getDB(ctx)

	var result struct {
		Avg *float64
	}
	err := db.Model(&models.Ticket{}).
		Select("AVG(EXTRACT(EPOCH FROM (completed_at - called_at))) AS avg").
		Where("queue_id = ? AND status = ? AND called_at IS NOT NULL AND completed_at IS NOT NULL",
			queueID, models.TicketStatusCompleted).
		Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute average service time: %w", err)
	}
	if result.Avg == nil {
		return 0, nil
	}

	return *result.Avg, nil
}

func (r *TicketRepositoryImpl) applyFilter(query *gorm.DB, filter models.TicketFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.QueueID != nil {
		query = query.Where("queue_id = ?", *filter.QueueID)
	}
	if filter.Number != nil {
		query = query.Where("number = ?", *filter.Number)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CounterID != nil {
		query = query.Where("counter_id = ?", *filter.CounterID)
	}
	if filter.OperatorID != nil {
		query = query.Where("operator_id = ?", *filter.OperatorID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves tickets based on filter criteria
func (r *TicketRepositoryImpl) ByFilter(ctx context.Context, filter models.TicketFilter, orderBy string, limit, offset int) ([]*models.Ticket, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Ticket{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "number ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Ticket
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of tickets matching filter
func (r *TicketRepositoryImpl) Count(ctx context.Context, filter models.TicketFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Ticket{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any ticket matches the filter
func (r *TicketRepositoryImpl) Exists(ctx context.Context, filter models.TicketFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
