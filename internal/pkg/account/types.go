package account

import "github.com/ManuelReschke/TenantFox/app/models"

// RegisterInput creates an organization together with its owner.
type RegisterInput struct {
	OrganizationName string `json:"organization_name" validate:"required,min=2,max=200"`
	OrganizationSlug string `json:"organization_slug" validate:"omitempty,min=3,max=80"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Password         string `json:"password" validate:"required,min=8,max=72"`
	FullName         string `json:"full_name" validate:"required,min=2,max=200"`
}

// LoginInput exchanges credentials for a new token.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// MemberInput adds a user to the caller's organization. Password may be empty
// for members that only use tokens issued by an owner.
type MemberInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	FullName string `json:"full_name" validate:"required,min=2,max=200"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=owner member"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User         *models.User
	Organization *models.Organization
	Subscription *models.Subscription
	Token        *models.APIToken
}

// Session is returned whenever a new raw token is issued. The raw token is
// only ever available here.
type Session struct {
	Token        string
	Organization *models.Organization
	User         *models.User
	Subscription *models.Subscription
}
