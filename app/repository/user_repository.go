package repository

import (
	"github.com/ManuelReschke/TenantFox/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIDInOrganization retrieves a user only if it belongs to the organization
func (r *userRepository) GetByIDInOrganization(organizationID, id uint) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ? AND organization_id = ?", id, organizationID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByOrganization returns all users of an organization ordered by ID
func (r *userRepository) ListByOrganization(organizationID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("organization_id = ?", organizationID).Order("id ASC").Find(&users).Error
	return users, err
}

// CountByOrganization returns the number of users of an organization
func (r *userRepository) CountByOrganization(organizationID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("organization_id = ?", organizationID).Count(&count).Error
	return count, err
}

// EmailExists reports whether any user already uses the email
func (r *userRepository) EmailExists(email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email = ?", models.NormalizeEmail(email)).Count(&count).Error
	return count > 0, err
}

// Delete removes a user from the database
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}
