// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/knobo/simple-queue-management-sub000/models"
	"gorm.io/gorm"
)

// DisplayStageRepositoryImpl implements DisplayStageRepository interface
type DisplayStageRepositoryImpl struct {
	*BaseRepository[models.DisplayStage, models.DisplayStageFilter]
}

// NewDisplayStageRepository creates a new display stage repository
func NewDisplayStageRepository(db *gorm.DB) DisplayStageRepository {
	return &DisplayStageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DisplayStage, models.DisplayStageFilter](db),
	}
}

// FirstByQueueAndStatus retrieves the lowest-ordered stage mapped to the status
func (r *DisplayStageRepositoryImpl) FirstByQueueAndStatus(ctx context.Context, queueID uint, status string) (*models.DisplayStage, error) {
	db := r.getDB(ctx)

	var stage models.DisplayStage
	err := db.Where("queue_id = ? AND status = ?", queueID, status).
		Order("sort_order ASC, id ASC").
		First(&stage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find stage by queue and status: %w", err)
	}

	return &stage, nil
}

// CountByQueueAndStatus counts stages mapped to the status in the queue
func (r *DisplayStageRepositoryImpl) CountByQueueAndStatus(ctx context.Context, queueID uint, status string) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.DisplayStage{}).
		Where("queue_id = ? AND status = ?", queueID, status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count stages: %w", err)
	}

	return count, nil
}

// Delete removes a stage
func (r *DisplayStageRepositoryImpl) Delete(ctx context.Context, stageID uint) error {
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

	err = db.Delete(&models.DisplayStage{}, stageID).Error
	if err != nil {
		return fmt.Errorf("failed to delete stage: %w", err)
	}

	return nil
}

func (r *DisplayStageRepositoryImpl) applyFilter(query *gorm.DB, filter models.DisplayStageFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.QueueID != nil {
		query = query.Where("queue_id = ?", *filter.QueueID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

// ByFilter retrieves stages based on filter criteria
func (r *DisplayStageRepositoryImpl) ByFilter(ctx context.Context, filter models.DisplayStageFilter, orderBy string, limit, offset int) ([]*models.DisplayStage, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.DisplayStage{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "sort_order ASC, id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.DisplayStage
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of stages matching filter
func (r *DisplayStageRepositoryImpl) Count(ctx context.Context, filter models.DisplayStageFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.DisplayStage{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any stage matches the filter
func (r *DisplayStageRepositoryImpl) Exists(ctx context.Context, filter models.DisplayStageFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
