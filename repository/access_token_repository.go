// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/knobo/simple-queue-management-sub000/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccessTokenRepositoryImpl implements AccessTokenRepository interface
type AccessTokenRepositoryImpl struct {
	*BaseRepository[models.AccessToken, models.AccessTokenFilter]
}

// NewAccessTokenRepository creates a new access token repository
func NewAccessTokenRepository(db *gorm.DB) AccessTokenRepository {
	return &AccessTokenRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AccessToken, models.AccessTokenFilter](db),
	}
}

// ByCode retrieves a token by its join code
func (r *AccessTokenRepositoryImpl) ByCode(ctx context.Context, code string) (*models.AccessToken, error) {
	db := r.getDB(ctx)

	var token models.AccessToken
	err := db.Where("code = ?", code).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find token by code: %w", err)
	}

	return &token, nil
}

// ByCodeForUpdate locks and returns a token by its join code. Must run inside
// a transaction so concurrent consumers of a capped token serialize.
func (r *AccessTokenRepositoryImpl) ByCodeForUpdate(ctx context.Context, code string) (*models.AccessToken, error) {
	db := r.getDB(ctx)

	var token models.AccessToken
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock token by code: %w", err)
	}

	return &token, nil
}

// ActiveByQueue retrieves all active tokens for a queue
func (r *AccessTokenRepositoryImpl) ActiveByQueue(ctx context.Context, queueID uint) ([]*models.AccessToken, error) {
	db := r.getDB(ctx)

	var tokens []*models.AccessToken
	err := db.Where("queue_id = ? AND is_active = ?", queueID, true).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active tokens by queue: %w", err)
	}

	return tokens, nil
}

// DeactivateAllForQueue retires every active token for the queue
func (r *AccessTokenRepositoryImpl) DeactivateAllForQueue(ctx context.Context, queueID uint) error {
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

	err = db.Model(&models.AccessToken{}).
		Where("queue_id = ? AND is_active = ?", queueID, true).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate queue tokens: %w", err)
	}

	return nil
}

// IncrementUseCount bumps a token's recorded use count
func (r *AccessTokenRepositoryImpl) IncrementUseCount(ctx context.Context, tokenID uint) error {
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

	err = db.Model(&models.AccessToken{}).Where("id = ?", tokenID).
		Update("use_count", gorm.Expr("use_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment token use count: %w", err)
	}

	return nil
}

// Deactivate retires a single token
func (r *AccessTokenRepositoryImpl) Deactivate(ctx context.Context, tokenID uint) error {
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

	err = db.Model(&models.AccessToken{}).Where("id = ?", tokenID).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate token: %w", err)
	}

	return nil
}

func (r *AccessTokenRepositoryImpl) applyFilter(query *gorm.DB, filter models.AccessTokenFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.QueueID != nil {
		query = query.Where("queue_id = ?", *filter.QueueID)
	}
	if filter.Code != nil {
		query = query.Where("code = ?", *filter.Code)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves tokens based on filter criteria
func (r *AccessTokenRepositoryImpl) ByFilter(ctx context.Context, filter models.AccessTokenFilter, orderBy string, limit, offset int) ([]*models.AccessToken, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AccessToken{})

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

	var rows []*models.AccessToken
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of tokens matching filter
func (r *AccessTokenRepositoryImpl) Count(ctx context.Context, filter models.AccessTokenFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AccessToken{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any token matches the filter
func (r *AccessTokenRepositoryImpl) Exists(ctx context.Context, filter models.AccessTokenFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
