package repository

import (
	"strings"
	"time"

	"github.com/ManuelReschke/TenantFox/app/models"
	"gorm.io/gorm"
)

// tokenRepository implements the TokenRepository interface
type tokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository instance
func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Create stores a freshly issued token
func (r *tokenRepository) Create(token *models.APIToken) error {
	return r.db.Create(token).Error
}

// GetActiveByHash resolves a token hash that has not been revoked
func (r *tokenRepository) GetActiveByHash(hash string) (*models.APIToken, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var token models.APIToken
	err := r.db.Where("token_hash = ? AND revoked_at IS NULL", trimmed).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke marks the token revoked. Returns false if it was already revoked.
func (r *tokenRepository) Revoke(id uint) (bool, error) {
	res := r.db.Model(&models.APIToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RevokeAllForUser revokes every active token of the user
func (r *tokenRepository) RevokeAllForUser(userID uint) error {
	return r.db.Model(&models.APIToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", time.Now()).Error
}

// TouchLastUsed records the time of the latest successful authentication
func (r *tokenRepository) TouchLastUsed(id uint) error {
	return r.db.Model(&models.APIToken{}).Where("id = ?", id).Update("last_used_at", time.Now()).Error
}
