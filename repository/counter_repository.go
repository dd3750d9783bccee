// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/knobo/simple-queue-management-sub000/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CounterRepositoryImpl implements CounterRepository interface
type CounterRepositoryImpl struct {
	*BaseRepository[models.Counter, models.CounterFilter]
}

// NewCounterRepository creates a new counter repository
func NewCounterRepository(db *gorm.DB) CounterRepository {
	return &CounterRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Counter, models.CounterFilter](db),
	}
}

// ByQueue retrieves all counters in a queue ordered by number
func (r *CounterRepositoryImpl) ByQueue(ctx context.Context, queueID uint) ([]*models.Counter, error) {
	db := r.getDB(ctx)

	var counters []*models.Counter
	err := db.Where("queue_id = ?", queueID).Order("number ASC").Find(&counters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list counters by queue: %w", err)
	}

	return counters, nil
}

// ByIDForUpdate retrieves a counter by ID with a row lock. Must run inside a transaction.
func (r *CounterRepositoryImpl) ByIDForUpdate(ctx context.Context, counterID uint) (*models.Counter, error) {
	db := r.getDB(ctx)

	var counter models.Counter
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", counterID).First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock counter: %w", err)
	}

	return &counter, nil
}

// ByCurrentOperator retrieves counters currently bound to the operator
func (r *CounterRepositoryImpl) ByCurrentOperator(ctx context.Context, operatorID uint) ([]*models.Counter, error) {
	db := r.getDB(ctx)

	var counters []*models.Counter
	err := db.Where("current_operator_id = ?", operatorID).Find(&counters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list counters by operator: %w", err)
	}

	return counters, nil
}

// CountByQueue counts counters in a queue
func (r *CounterRepositoryImpl) CountByQueue(ctx context.Context, queueID uint) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.Counter{}).Where("queue_id = ?", queueID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count counters: %w", err)
	}

	return count, nil
}

// SetCurrentOperator binds or clears the operator at the counter. A nil
// operatorID writes NULL.
func (r *CounterRepositoryImpl) SetCurrentOperator(ctx context.Context, counterID uint, operatorID *uint) error {
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

	err = db.Model(&models.Counter{}).Where("id = ?", counterID).
		Updates(map[string]any{"current_operator_id": operatorID, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to set counter operator: %w", err)
	}

	return nil
}

// SetCurrentTicket binds or clears the ticket being served at the counter
func (r *CounterRepositoryImpl) SetCurrentTicket(ctx context.Context, counterID uint, ticketID *uint) error {
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

	err = db.Model(&models.Counter{}).Where("id = ?", counterID).
		Updates(map[string]any{"current_ticket_id": ticketID, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to set counter ticket: %w", err)
	}

	return nil
}

// Release clears both the operator and ticket bindings on the counter
func (r *CounterRepositoryImpl) Release(ctx context.Context, counterID uint) error {
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

	err = db.Model(&models.Counter{}).Where("id = ?", counterID).
		Updates(map[string]any{
			"current_operator_id": nil,
			"current_ticket_id":   nil,
			"updated_at":          time.Now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to release counter: %w", err)
	}

	return nil
}

// Delete removes a counter
func (r *CounterRepositoryImpl) Delete(ctx context.Context, counterID uint) error {
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

	err = db.Delete(&models.Counter{}, counterID).Error
	if err != nil {
		return fmt.Errorf("failed to delete counter: %w", err)
	}

	return nil
}

func (r *CounterRepositoryImpl) applyFilter(query *gorm.DB, filter models.CounterFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.QueueID != nil {
		query = query.Where("queue_id = ?", *filter.QueueID)
	}
	if filter.Number != nil {
		query = query.Where("number = ?", *filter.Number)
	}
	if filter.CurrentOperatorID != nil {
		query = query.Where("current_operator_id = ?", *filter.CurrentOperatorID)
	}
	if filter.CurrentTicketID != nil {
		query = query.Where("current_ticket_id = ?", *filter.CurrentTicketID)
	}
	return query
}

// ByFilter retrieves counters based on filter criteria
func (r *CounterRepositoryImpl) ByFilter(ctx context.Context, filter models.CounterFilter, orderBy string, limit, offset int) ([]*models.Counter, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Counter{})

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

	var rows []*models.Counter
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of counters matching filter
func (r *CounterRepositoryImpl) Count(ctx context.Context, filter models.CounterFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Counter{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any counter matches the filter
func (r *CounterRepositoryImpl) Exists(ctx context.Context, filter models.CounterFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
