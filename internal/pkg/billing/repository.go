package billing

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/TenantFox/app/models"
	"github.com/ManuelReschke/TenantFox/app/repository"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	// Transaction runs fn against a repository bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx Repository) error) error
	FindWebhookEvent(ctx context.Context, provider, eventID string) (*models.BillingWebhookEvent, error)
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, error)
	OrganizationExists(ctx context.Context, id uint) (bool, error)
	FindOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error)
	FindSubscriptionByCustomerID(ctx context.Context, customerID string) (*models.Subscription, error)
	LockSubscription(ctx context.Context, organizationID uint) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, sub *models.Subscription) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) repos(ctx context.Context) *repository.Repositories {
	return repository.NewRepositories(r.db.WithContext(ctx))
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) FindWebhookEvent(ctx context.Context, provider, eventID string) (*models.BillingWebhookEvent, error) {
	var event models.BillingWebhookEvent
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, eventID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateWebhookEventIfNotExists inserts the ledger row unless the
// (provider, provider_event_id) pair is already present. created is false when
// another delivery recorded the event first.
func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) OrganizationExists(ctx context.Context, id uint) (bool, error) {
	_, err := r.repos(ctx).Organization.GetByID(id)
	if err == nil {
		return true, nil
	}
	if repository.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (r *gormRepository) FindOrganizationBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	return r.repos(ctx).Organization.GetBySlug(slug)
}

func (r *gormRepository) FindSubscriptionByCustomerID(ctx context.Context, customerID string) (*models.Subscription, error) {
	return r.repos(ctx).Subscription.FindByStripeCustomerID(customerID)
}

func (r *gormRepository) LockSubscription(ctx context.Context, organizationID uint) (*models.Subscription, error) {
	return r.repos(ctx).Subscription.LockByOrganizationID(organizationID)
}

func (r *gormRepository) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.repos(ctx).Subscription.Save(sub)
}
