package repository

import (
	"errors"
	"strings"

	"github.com/ManuelReschke/TenantFox/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create stores a new subscription
func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// GetByOrganizationID retrieves the subscription of an organization
func (r *subscriptionRepository) GetByOrganizationID(organizationID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("organization_id = ?", organizationID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetOrCreate returns the subscription of an organization, creating the default
// starter/trialing row when none exists yet.
func (r *subscriptionRepository) GetOrCreate(organizationID uint) (*models.Subscription, error) {
	sub, err := r.GetByOrganizationID(organizationID)
	if err == nil {
		return sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.createDefault(organizationID)
}

// LockByOrganizationID is GetOrCreate with a row lock (SELECT ... FOR UPDATE).
// Must be called inside a transaction; the lock is released on commit or rollback.
func (r *subscriptionRepository) LockByOrganizationID(organizationID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organization_id = ?", organizationID).
		First(&sub).Error
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return r.createDefault(organizationID)
}

// FindByStripeCustomerID resolves a subscription through the provider customer reference
func (r *subscriptionRepository) FindByStripeCustomerID(customerID string) (*models.Subscription, error) {
	trimmed := strings.TrimSpace(customerID)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var sub models.Subscription
	err := r.db.Where("stripe_customer_id = ?", trimmed).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Save persists all subscription fields
func (r *subscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *subscriptionRepository) createDefault(organizationID uint) (*models.Subscription, error) {
	sub := &models.Subscription{
		OrganizationID: organizationID,
		Plan:           "starter",
		Status:         models.BillingStatusTrialing,
	}
	if err := r.db.Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}
