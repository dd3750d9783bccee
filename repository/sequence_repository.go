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

// SequenceRepositoryImpl implements SequenceRepository interface
type SequenceRepositoryImpl struct {
	DB *gorm.DB
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &SequenceRepositoryImpl{DB: db}
}

func (r *SequenceRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB
}

// NextNumber returns the next ticket number for the queue. The counter row is
// locked for the duration of the surrounding transaction, so concurrent joins
// serialize here and numbers come out strictly increasing with no duplicates.
func (r *SequenceRepositoryImpl) NextNumber(ctx context.Context, queueID uint) (int64, error) {
	db := r.getDB(ctx)

	var counter models.SequenceCounter
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("queue_id = ?", queueID).First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = models.SequenceCounter{
				QueueID:    queueID,
				LastNumber: 1,
				UpdatedAt:  time.Now().UTC(),
			}
			if err := db.Create(&counter).Error; err != nil {
				return 0, fmt.Errorf("failed to create sequence counter: %w", err)
			}
			return counter.LastNumber, nil
		}
		return 0, fmt.Errorf("failed to lock sequence counter: %w", err)
	}

	counter.LastNumber++
	counter.UpdatedAt = time.Now().UTC()
	if err := db.Save(&counter).Error; err != nil {
		return 0, fmt.Errorf("failed to advance sequence counter: %w", err)
	}

	return counter.LastNumber, nil
}
