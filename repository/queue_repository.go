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
)

// QueueRepositoryImpl implements QueueRepository interface
type QueueRepositoryImpl struct {
	*BaseRepository[models.Queue, models.QueueFilter]
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &QueueRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Queue, models.QueueFilter](db),
	}
}

// ByUUID retrieves a queue by its UUID
func (r *QueueRepositoryImpl) ByUUID(ctx context.Context, queueUUID uuid.UUID) (*models.Queue, error) {
	db := r.getDB(ctx)

	var queue models.Queue
	err := db.Where("uuid = ?", queueUUID).First(&queue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find queue by uuid: %w", err)
	}

	return &queue, nil
}

// ByDisplayToken retrieves a queue by its public display token
func (r *QueueRepositoryImpl) ByDisplayToken(ctx context.Context, token string) (*models.Queue, error) {
	db := r.getDB(ctx)

	var queue models.Queue
	err := db.Where("display_token = ?", token).First(&queue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find queue by display token: %w", err)
	}

	return &queue, nil
}

// ByStaticSecret retrieves a queue whose legacy static secret matches
func (r *QueueRepositoryImpl) ByStaticSecret(ctx context.Context, secret string) (*models.Queue, error) {
	db := r.getDB(ctx)

	var queue models.Queue
	err := db.Where("static_secret = ? AND access_mode = ?", secret, models.AccessModeStatic).
		First(&queue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find queue by static secret: %w", err)
	}

	return &queue, nil
}

// ListRotating retrieves all queues with time-based rotation enabled
func (r *QueueRepositoryImpl) ListRotating(ctx context.Context) ([]*models.Queue, error) {
	db := r.getDB(ctx)

	var queues []*models.Queue
	err := db.Where("access_mode = ? AND rotation_interval > 0", models.AccessModeRotating).
		Find(&queues).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rotating queues: %w", err)
	}

	return queues, nil
}

// UpdateOpenState opens or closes a queue
func (r *QueueRepositoryImpl) UpdateOpenState(ctx context.Context, queueID uint, isOpen bool) error {
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

	err = db.Model(&models.Queue{}).Where("id = ?", queueID).
		Updates(map[string]any{"is_open": isOpen, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to update queue open state: %w", err)
	}

	return nil
}

// UpdateStaticSecret replaces the legacy join secret
func (r *QueueRepositoryImpl) UpdateStaticSecret(ctx context.Context, queueID uint, secret string) error {
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

	err = db.Model(&models.Queue{}).Where("id = ?", queueID).
		Updates(map[string]any{"static_secret": secret, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to update static secret: %w", err)
	}

	return nil
}

// UpdateLastRotatedAt records when the queue's join token was last rotated
func (r *QueueRepositoryImpl) UpdateLastRotatedAt(ctx context.Context, queueID uint, at time.Time) error {
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

	err = db.Model(&models.Queue{}).Where("id = ?", queueID).
		Updates(map[string]any{"last_rotated_at": at, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return fmt.Errorf("failed to update last rotated at: %w", err)
	}

	return nil
}

func (r *QueueRepositoryImpl) applyFilter(query *gorm.DB, filter models.QueueFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.IsOpen != nil {
		query = query.Where("is_open = ?", *filter.IsOpen)
	}
	if filter.AccessMode != nil {
		query = query.Where("access_mode = ?", *filter.AccessMode)
	}
	if filter.DisplayToken != nil {
		query = query.Where("display_token = ?", *filter.DisplayToken)
	}
	if filter.StaticSecret != nil {
		query = query.Where("static_secret = ?", *filter.StaticSecret)
	}
	return query
}

// ByFilter retrieves queues based on filter criteria
func (r *QueueRepositoryImpl) ByFilter(ctx context.Context, filter models.QueueFilter, orderBy string, limit, offset int) ([]*models.Queue, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Queue{})

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

	var rows []*models.Queue
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of queues matching filter
func (r *QueueRepositoryImpl) Count(ctx context.Context, filter models.QueueFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Queue{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any queue matches the filter
func (r *QueueRepositoryImpl) Exists(ctx context.Context, filter models.QueueFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
