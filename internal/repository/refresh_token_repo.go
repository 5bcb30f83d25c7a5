package repository

import (
	"errors"
	"fmt"
	"time"

	"tienda-backend/internal/models"

	"gorm.io/gorm"
)

// errAlreadyConsumed aborts the rotation transaction when the parent record
// was consumed by a concurrent rotation or revoked in the meantime.
var errAlreadyConsumed = errors.New("refresh token already consumed")

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepo(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create persists a new refresh token record
func (r *RefreshTokenRepository) Create(token *models.RefreshToken) error {
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindByHash finds a refresh token by its hash regardless of state.
// Revoked and expired records are returned too; the registry decides
// how to react to their state.
func (r *RefreshTokenRepository) FindByHash(hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.Where("token_hash = ?", hash).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// FindByID finds a refresh token by its primary key
func (r *RefreshTokenRepository) FindByID(id uint) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.First(&token, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find refresh token by id: %w", err)
	}
	return &token, nil
}

// Rotate atomically supersedes the parent record with a new child record.
//
// The child is inserted and the parent is consumed with a conditional update
// inside one transaction: the UPDATE only matches while the parent is still
// active, so of two concurrent rotations exactly one observes RowsAffected=1.
// The loser gets (false, nil) and must treat the token as already consumed.
func (r *RefreshTokenRepository) Rotate(parentID uint, child *models.RefreshToken) (bool, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(child).Error; err != nil {
			return err
		}
		res := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ? AND rotated_to_id IS NULL", parentID, false).
			Updates(map[string]interface{}{
				"revoked":       true,
				"rotated_to_id": child.ID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyConsumed
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadyConsumed) {
			return false, nil
		}
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	return true, nil
}

// RevokeByID marks the given refresh tokens as revoked
func (r *RefreshTokenRepository) RevokeByID(ids ...uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.Model(&models.RefreshToken{}).
		Where("id IN ?", ids).
		Update("revoked", true).Error
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpired removes refresh token rows that expired before the given
// instant. Returns the number of rows deleted.
func (r *RefreshTokenRepository) DeleteExpired(before time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", before).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
