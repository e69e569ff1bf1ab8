package repository

import (
	"context"

	"gorm.io/gorm"
)

// Factory hands out repositories scoped to a request context or a transaction
type Factory struct {
	db *gorm.DB
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// DB returns the underlying handle
func (f *Factory) DB() *gorm.DB {
	return f.db
}

// GetRepositories returns repositories bound to ctx
func (f *Factory) GetRepositories(ctx context.Context) *Repositories {
	return NewRepositories(f.db.WithContext(ctx))
}

// Transaction runs fn with repositories bound to a single database transaction.
// Returning an error from fn rolls the transaction back.
func (f *Factory) Transaction(ctx context.Context, fn func(repos *Repositories) error) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
