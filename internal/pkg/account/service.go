package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ManuelReschke/TenantFox/app/models"
	"github.com/ManuelReschke/TenantFox/app/repository"
	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TenantFox/internal/pkg/metrics"
)

var validate = validator.New()

// Service owns organizations, their users and API tokens.
type Service struct {
	repos   *repository.Factory
	metrics *metrics.Metrics
	log     *zap.Logger
}

// NewService creates an account service. m may be nil.
func NewService(db *gorm.DB, m *metrics.Metrics, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repos:   repository.NewFactory(db),
		metrics: m,
		log:     log.Named("account"),
	}
}

// Register creates an organization, its owner, a starter/trialing subscription
// and a first token in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = models.NormalizeEmail(in.Email)
	in.OrganizationName = strings.TrimSpace(in.OrganizationName)
	in.OrganizationSlug = strings.ToLower(strings.TrimSpace(in.OrganizationSlug))
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	slug := in.OrganizationSlug
	if slug == "" {
		slug = models.MakeOrganizationSlug(in.OrganizationName)
	}
	if !models.IsValidOrganizationSlug(slug) {
		return nil, apperror.New(apperror.ValidationFailed, "Organization slug must be 3-80 lowercase letters, digits or hyphens.")
	}

	session := &Session{}
	err := s.repos.Transaction(ctx, func(repos *repository.Repositories) error {
		exists, err := repos.User.EmailExists(in.Email)
		if err != nil {
			return err
		}
		if exists {
			return apperror.New(apperror.Conflict, "Email already registered.")
		}
		exists, err = repos.Organization.SlugExists(slug)
		if err != nil {
			return err
		}
		if exists {
			return apperror.New(apperror.Conflict, "Organization slug already exists.")
		}

		org := &models.Organization{Name: in.OrganizationName, Slug: slug}
		if err := repos.Organization.Create(org); err != nil {
			return err
		}

		owner, err := models.NewUser(org.ID, in.Email, in.FullName, in.Password, models.ROLE_OWNER)
		if err != nil {
			return validationError(err)
		}
		if err := repos.User.Create(owner); err != nil {
			return err
		}

		sub := &models.Subscription{
			OrganizationID: org.ID,
			Plan:           string(entitlements.PlanStarter),
			Status:         models.BillingStatusTrialing,
		}
		if err := repos.Subscription.Create(sub); err != nil {
			return err
		}

		raw, err := issueToken(repos, owner.ID)
		if err != nil {
			return err
		}

		*session = Session{Token: raw, Organization: org, User: owner, Subscription: sub}
		return nil
	})
	if err != nil {
		return nil, s.translate(err, "Registration failed.")
	}

	s.log.Info("organization registered",
		zap.Uint("organization_id", session.Organization.ID),
		zap.String("slug", session.Organization.Slug),
	)
	return session, nil
}

// Login verifies credentials and issues an additional token. Existing tokens
// stay valid.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	invalid := apperror.New(apperror.AuthenticationFailed, "Invalid email or password.")

	repos := s.repos.GetRepositories(ctx)
	user, err := repos.User.GetByEmail(in.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, invalid
		}
		return nil, apperror.Wrap(apperror.Internal, "Login failed.", err)
	}
	if !user.CheckPassword(in.Password) {
		return nil, invalid
	}

	session := &Session{User: user}
	err = s.repos.Transaction(ctx, func(repos *repository.Repositories) error {
		org, err := repos.Organization.GetByID(user.OrganizationID)
		if err != nil {
			return err
		}
		sub, err := repos.Subscription.GetOrCreate(org.ID)
		if err != nil {
			return err
		}
		raw, err := issueToken(repos, user.ID)
		if err != nil {
			return err
		}
		session.Token, session.Organization, session.Subscription = raw, org, sub
		return nil
	})
	if err != nil {
		return nil, s.translate(err, "Login failed.")
	}
	return session, nil
}

// Authenticate resolves a raw bearer token to its principal and records the
// token use. The subscription is created with defaults if it is missing.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*Principal, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, apperror.New(apperror.AuthenticationFailed, "Missing bearer token.")
	}

	repos := s.repos.GetRepositories(ctx)
	token, err := repos.Token.GetActiveByHash(models.HashAccessToken(rawToken))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.New(apperror.AuthenticationFailed, "Invalid or revoked token.")
		}
		return nil, apperror.Wrap(apperror.Internal, "Token verification failed.", err)
	}

	user, err := repos.User.GetByID(token.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.New(apperror.AuthenticationFailed, "Token user not found.")
		}
		return nil, apperror.Wrap(apperror.Internal, "Token verification failed.", err)
	}

	org, err := repos.Organization.GetByID(user.OrganizationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.New(apperror.AuthenticationFailed, "Organization not found.")
		}
		return nil, apperror.Wrap(apperror.Internal, "Token verification failed.", err)
	}

	sub, err := repos.Subscription.GetOrCreate(org.ID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "Subscription lookup failed.", err)
	}

	// Refresh last-used timestamp best-effort.
	if err := repos.Token.TouchLastUsed(token.ID); err != nil {
		s.log.Warn("failed to update token usage timestamp", zap.Uint("token_id", token.ID), zap.Error(err))
	}

	return &Principal{User: user, Organization: org, Subscription: sub, Token: token}, nil
}

// RotateToken revokes the presented token and issues a replacement. Other
// tokens of the user are not affected.
func (s *Service) RotateToken(ctx context.Context, p *Principal) (string, error) {
	var raw string
	err := s.repos.Transaction(ctx, func(repos *repository.Repositories) error {
		revoked, err := repos.Token.Revoke(p.Token.ID)
		if err != nil {
			return err
		}
		if !revoked {
			return apperror.New(apperror.AuthenticationFailed, "Token was already revoked.")
		}
		raw, err = issueToken(repos, p.User.ID)
		return err
	})
	if err != nil {
		return "", s.translate(err, "Token rotation failed.")
	}

	s.log.Info("token rotated", zap.Uint("user_id", p.User.ID), zap.Uint("revoked_token_id", p.Token.ID))
	return raw, nil
}

// ListMembers returns the users of an organization.
func (s *Service) ListMembers(ctx context.Context, organizationID uint) ([]models.User, error) {
	users, err := s.repos.GetRepositories(ctx).User.ListByOrganization(organizationID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "Could not list users.", err)
	}
	return users, nil
}

// CreateMember adds a user under the plan's max_users limit. The subscription
// row is locked while counting so concurrent creations cannot overshoot.
func (s *Service) CreateMember(ctx context.Context, organizationID uint, in MemberInput) (*models.User, error) {
	in.Email = models.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	var user *models.User
	err := s.repos.Transaction(ctx, func(repos *repository.Repositories) error {
		sub, err := repos.Subscription.LockByOrganizationID(organizationID)
		if err != nil {
			return err
		}

		count, err := repos.User.CountByOrganization(organizationID)
		if err != nil {
			return err
		}
		limit := entitlements.LimitFor(sub, entitlements.LimitMaxUsers)
		if count >= limit {
			s.metrics.ObserveLimitRejection(string(entitlements.LimitMaxUsers))
			return apperror.Newf(apperror.LimitExceeded, "Plan user limit reached (%d). Upgrade plan to add more users.", limit)
		}

		exists, err := repos.User.EmailExists(in.Email)
		if err != nil {
			return err
		}
		if exists {
			return apperror.New(apperror.Conflict, "Email already registered.")
		}

		user, err = models.NewUser(organizationID, in.Email, in.FullName, in.Password, in.Role)
		if err != nil {
			return validationError(err)
		}
		return repos.User.Create(user)
	})
	if err != nil {
		return nil, s.translate(err, "Could not create user.")
	}

	s.log.Info("member created", zap.Uint("organization_id", organizationID), zap.Uint("user_id", user.ID))
	return user, nil
}

// DeleteMember removes a member and revokes their tokens. Owners cannot be
// removed and callers cannot remove themselves.
func (s *Service) DeleteMember(ctx context.Context, organizationID, actorID, userID uint) error {
	if actorID == userID {
		return apperror.New(apperror.ValidationFailed, "You cannot remove yourself.")
	}

	err := s.repos.Transaction(ctx, func(repos *repository.Repositories) error {
		user, err := repos.User.GetByIDInOrganization(organizationID, userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.New(apperror.NotFound, "User not found.")
			}
			return err
		}
		if user.IsOwner() {
			return apperror.New(apperror.AuthorizationDenied, "Owners cannot be removed.")
		}
		if err := repos.Token.RevokeAllForUser(user.ID); err != nil {
			return err
		}
		return repos.User.Delete(user.ID)
	})
	if err != nil {
		return s.translate(err, "Could not remove user.")
	}

	s.log.Info("member removed", zap.Uint("organization_id", organizationID), zap.Uint("user_id", userID))
	return nil
}

// GetSubscription returns the organization's subscription, creating defaults if missing.
func (s *Service) GetSubscription(ctx context.Context, organizationID uint) (*models.Subscription, error) {
	sub, err := s.repos.GetRepositories(ctx).Subscription.GetOrCreate(organizationID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "Subscription lookup failed.", err)
	}
	return sub, nil
}

func issueToken(repos *repository.Repositories, userID uint) (string, error) {
	raw, token, err := models.IssueAPIToken(userID)
	if err != nil {
		return "", err
	}
	if err := repos.Token.Create(token); err != nil {
		return "", err
	}
	return raw, nil
}

// translate keeps typed errors, maps unique violations that slipped past the
// pre-checks to Conflict and hides everything else.
func (s *Service) translate(err error, message string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if repository.IsUniqueViolation(err) {
		return apperror.Wrap(apperror.Conflict, "Email or organization slug already exists.", err)
	}
	s.log.Error(strings.ToLower(strings.TrimSuffix(message, ".")), zap.Error(err))
	return apperror.Wrap(apperror.Internal, message, err)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperror.Wrap(apperror.ValidationFailed, fmt.Sprintf("Field %s failed the %s check.", toSnake(fe.Field()), fe.Tag()), err)
	}
	return apperror.Wrap(apperror.ValidationFailed, "Invalid input.", err)
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
