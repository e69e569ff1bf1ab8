package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// APIToken is a bearer credential. Only the SHA-256 hash of the secret is stored.
type APIToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	TokenHash  string     `gorm:"type:char(64);not null;uniqueIndex" json:"-"`
	Prefix     string     `gorm:"type:varchar(20);default:''" json:"prefix"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastUsedAt *time.Time `gorm:"type:timestamp;default:null" json:"last_used_at"`
	RevokedAt  *time.Time `gorm:"type:timestamp;default:null;index" json:"revoked_at"`
}

var tokenEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

const tokenPrefix = "tfx_"

// IssueAPIToken generates a new token for the user and returns the raw secret
// alongside the record. Callers must persist the record.
func IssueAPIToken(userID uint) (string, *APIToken, error) {
	rawToken, prefix, hash, err := generateTokenMaterial()
	if err != nil {
		return "", nil, err
	}
	return rawToken, &APIToken{
		UserID:    userID,
		TokenHash: hash,
		Prefix:    prefix,
	}, nil
}

// IsActive reports whether the token has not been revoked.
func (t *APIToken) IsActive() bool {
	return t != nil && t.TokenHash != "" && t.RevokedAt == nil
}

// Revoke marks the token unusable without deleting the record.
func (t *APIToken) Revoke() {
	now := time.Now()
	t.RevokedAt = &now
}

// HashAccessToken returns the SHA-256 hash for the provided bearer secret.
func HashAccessToken(raw string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(sum[:])
}

func generateTokenMaterial() (string, string, string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", err
	}
	encoded := strings.ToLower(tokenEncoding.EncodeToString(b))
	rawToken := tokenPrefix + encoded
	if len(rawToken) < 12 {
		return "", "", "", fmt.Errorf("token generation failed: token too short")
	}
	prefix := rawToken[:min(len(rawToken), 12)]
	return rawToken, prefix, HashAccessToken(rawToken), nil
}
