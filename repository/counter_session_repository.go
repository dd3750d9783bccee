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

// CounterSessionRepositoryImpl implements CounterSessionRepository interface
type CounterSessionRepositoryImpl struct {
	*BaseRepository[models.CounterSession, models.CounterSessionFilter]
}

// NewCounterSessionRepository creates a new counter session repository
func NewCounterSessionRepository(db *gorm.DB) CounterSessionRepository {
	return &CounterSessionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CounterSession, models.CounterSessionFilter](db),
	}
}

// ActiveByOperator retrieves the operator's open session, or nil when the
// operator is not signed in anywhere
func (r *CounterSessionRepositoryImpl) ActiveByOperator(ctx context.Context, operatorID uint) (*models.CounterSession, error) {
	db := r.getDB(ctx)

	var session models.CounterSession
	err := db.Where("operator_id = ? AND ended_at IS NULL", operatorID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active session by operator: %w", err)
	}

	return &session, nil
}

// ActiveByCounterForUpdate locks and returns the counter's open session, or
// nil when the counter is free. Must run inside a transaction.
func (r *CounterSessionRepositoryImpl) ActiveByCounterForUpdate(ctx context.Context, counterID uint) (*models.CounterSession, error) {
	db := r.getDB(ctx)

	var session models.CounterSession
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("counter_id = ? AND ended_at IS NULL", counterID).
		Order("started_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock active session by counter: %w", err)
	}

	return &session, nil
}

// End closes a session
func (r *CounterSessionRepositoryImpl) End(ctx context.Context, sessionID uint, at time.Time) error {
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

	err = db.Model(&models.CounterSession{}).Where("id = ?", sessionID).
		Update("ended_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	return nil
}

func (r *CounterSessionRepositoryImpl) applyFilter(query *gorm.DB, filter models.CounterSessionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CounterID != nil {
		query = query.Where("counter_id = ?", *filter.CounterID)
	}
	if filter.OperatorID != nil {
		query = query.Where("operator_id = ?", *filter.OperatorID)
	}
	if filter.Active != nil {
		if *filter.Active {
			query = query.Where("ended_at IS NULL")
		} else {
			query = query.Where("ended_at IS NOT NULL")
		}
	}
	return query
}

// ByFilter retrieves sessions based on filter criteria
func (r *CounterSessionRepositoryImpl) ByFilter(ctx context.Context, filter models.CounterSessionFilter, orderBy string, limit, offset int) ([]*models.CounterSession, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CounterSession{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.CounterSession
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of sessions matching filter
func (r *CounterSessionRepositoryImpl) Count(ctx context.Context, filter models.CounterSessionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.CounterSession{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any session matches the filter
func (r *CounterSessionRepositoryImpl) Exists(ctx context.Context, filter models.CounterSessionFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
