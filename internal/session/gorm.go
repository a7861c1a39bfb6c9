package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dkurbatov/learning_platform/internal/models"
)

// GormStore keeps refresh-token records in the refresh_tokens table.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Save(ctx context.Context, rec *models.RefreshToken) error {
	return s.DB.WithContext(ctx).Create(rec).Error
}

func (s *GormStore) Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var rec models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// Rotate runs inside a transaction. On databases without serializable
// isolation two concurrent rotations of the same token can still both
// read the old row before either marks it revoked; the window is
// narrowed, not closed.
func (s *GormStore) Rotate(ctx context.Context, oldHash string, next *models.RefreshToken) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.RefreshToken
		if err := tx.Where("token_hash = ?", oldHash).First(&old).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if old.Revoked || old.ExpiresAt < time.Now().Unix() {
			return ErrRevoked
		}
		if err := tx.Model(&models.RefreshToken{}).
			Where("token_hash = ?", oldHash).
			Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(next).Error
	})
}

func (s *GormStore) Revoke(ctx context.Context, tokenHash string) error {
	return s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (s *GormStore) Delete(ctx context.Context, tokenHash string) error {
	return s.DB.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		Delete(&models.RefreshToken{}).Error
}

func (s *GormStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("expires_at < ?", time.Now().Unix()).
		Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
