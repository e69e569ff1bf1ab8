package repository

import (
	"github.com/ManuelReschke/TenantFox/app/models"
	"gorm.io/gorm"
)

// OrganizationRepository defines the interface for organization-related database operations
type OrganizationRepository interface {
	Create(org *models.Organization) error
	GetByID(id uint) (*models.Organization, error)
	GetBySlug(slug string) (*models.Organization, error)
	SlugExists(slug string) (bool, error)
}

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByIDInOrganization(organizationID, id uint) (*models.User, error)
	ListByOrganization(organizationID uint) ([]models.User, error)
	CountByOrganization(organizationID uint) (int64, error)
	EmailExists(email string) (bool, error)
	Delete(id uint) error
}

// TokenRepository defines the interface for API token operations
type TokenRepository interface {
	Create(token *models.APIToken) error
	GetActiveByHash(hash string) (*models.APIToken, error)
	Revoke(id uint) (bool, error)
	RevokeAllForUser(userID uint) error
	TouchLastUsed(id uint) error
}

// SubscriptionRepository defines the interface for subscription operations
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByOrganizationID(organizationID uint) (*models.Subscription, error)
	GetOrCreate(organizationID uint) (*models.Subscription, error)
	LockByOrganizationID(organizationID uint) (*models.Subscription, error)
	FindByStripeCustomerID(customerID string) (*models.Subscription, error)
	Save(sub *models.Subscription) error
}

// Repositories holds all repository instances
type Repositories struct {
	Organization OrganizationRepository
	User         UserRepository
	Token        TokenRepository
	Subscription SubscriptionRepository
}

// NewRepositories creates a new instance of all repositories bound to db.
// Pass a transaction handle to get transaction-scoped repositories.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Organization: NewOrganizationRepository(db),
		User:         NewUserRepository(db),
		Token:        NewTokenRepository(db),
		Subscription: NewSubscriptionRepository(db),
	}
}
