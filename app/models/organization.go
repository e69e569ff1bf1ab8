package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Organization is the tenant boundary. Users and the subscription reference it by ID.
type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      string    `gorm:"type:char(36);uniqueIndex" json:"uuid"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=2,max=200"`
	Slug      string    `gorm:"type:varchar(80);not null;uniqueIndex" json:"slug" validate:"required,min=3,max=80"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Organization) Validate() error {
	return validator.New().Struct(o)
}

// BeforeCreate assigns the public UUID and derives a slug from the name when missing.
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == "" {
		o.UUID = uuid.New().String()
	}
	if strings.TrimSpace(o.Slug) == "" {
		o.Slug = MakeOrganizationSlug(o.Name)
	}
	return nil
}

// MakeOrganizationSlug turns a display name into a URL-safe slug.
func MakeOrganizationSlug(name string) string {
	s := slug.Make(strings.TrimSpace(name))
	if len(s) > 80 {
		s = strings.Trim(s[:80], "-")
	}
	return s
}

// IsValidOrganizationSlug reports whether s is lowercase kebab-case.
func IsValidOrganizationSlug(s string) bool {
	return len(s) >= 3 && len(s) <= 80 && slug.IsSlug(s)
}
