package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	ROLE_OWNER  = "owner"
	ROLE_MEMBER = "member"
)

// User belongs to exactly one organization.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrganizationID uint      `gorm:"not null;index" json:"organization_id"`
	Email          string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"email" validate:"required,email,min=5,max=255"`
	FullName       string    `gorm:"type:varchar(200);not null" json:"full_name" validate:"required,min=2,max=200"`
	Password       string    `gorm:"type:varchar(255);default:''" json:"-"`
	Role           string    `gorm:"type:varchar(20);not null;default:'member'" json:"role" validate:"oneof=owner member"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// NewUser builds a validated user for an organization. An empty password leaves
// the account without a login credential (invited member).
func NewUser(organizationID uint, email, fullName, password, role string) (*User, error) {
	u := &User{
		OrganizationID: organizationID,
		Email:          NormalizeEmail(email),
		FullName:       strings.TrimSpace(fullName),
		Role:           role,
	}
	if u.Role == "" {
		u.Role = ROLE_MEMBER
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	if password != "" {
		if err := u.SetPassword(password); err != nil {
			return nil, err
		}
	}

	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	if u.Password == "" {
		return false
	}
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// IsOwner reports whether the user administers its organization.
func (u *User) IsOwner() bool {
	return u.Role == ROLE_OWNER
}
