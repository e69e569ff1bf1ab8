package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ManuelReschke/TenantFox/app/models"
	"github.com/ManuelReschke/TenantFox/app/repository"
	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/TenantFox/internal/pkg/metrics"
)

// Archiver stores raw webhook payloads outside the database.
type Archiver interface {
	Archive(ctx context.Context, provider, eventID string, payload []byte) error
}

// errDuplicateDelivery aborts the transaction when a concurrent delivery won the ledger insert.
var errDuplicateDelivery = errors.New("webhook event already recorded")

// Service turns verified provider events into subscription state.
type Service struct {
	repo     Repository
	ledger   *Ledger
	secret   string
	cache    SeenCache
	cacheTTL time.Duration
	archiver Archiver
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// Option configures optional collaborators of the service.
type Option func(*Service)

// WithSeenCache enables the Redis fast path of the idempotency ledger.
func WithSeenCache(cache SeenCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithArchiver stores every processed payload through a.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithMetrics counts webhook outcomes and plan changes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService creates a billing service from an injected repository. An empty
// webhookSecret disables signature verification.
func NewService(repo Repository, webhookSecret string, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		secret: strings.TrimSpace(webhookSecret),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("billing")
	s.ledger = NewLedger(repo, s.cache, s.cacheTTL, s.log)
	if s.secret == "" {
		s.log.Warn("STRIPE_WEBHOOK_SECRET is empty, webhook signatures are not verified")
	}
	return s
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, webhookSecret string, opts ...Option) *Service {
	return NewService(NewRepository(db), webhookSecret, opts...)
}

// HandleWebhook runs one delivery through verify, parse, dedupe and apply.
// The ledger row and the subscription change commit together or not at all.
func (s *Service) HandleWebhook(ctx context.Context, d WebhookDelivery) (*WebhookResult, error) {
	provider := models.BillingProviderStripe

	if !VerifyStripeWebhookSignature(d.Body, d.Signature, s.secret) {
		s.metrics.ObserveWebhook(provider, string(OutcomeRejectedSignature))
		return &WebhookResult{Outcome: OutcomeRejectedSignature},
			apperror.New(apperror.SignatureInvalid, "Invalid webhook signature.")
	}

	// A known header id short-circuits before parsing so a redelivery with a
	// damaged body is still acknowledged as a duplicate.
	res := &WebhookResult{}
	headerID := strings.TrimSpace(d.EventIDHeader)
	if headerID != "" {
		if err := checkEventID(headerID); err != nil {
			return s.malformed(provider, "Event id exceeds 191 characters.", err)
		}
		res.IdempotencyKey = headerID
		seen, err := s.ledger.AlreadyProcessed(ctx, provider, headerID)
		if err != nil {
			return s.failed(res, s.log.With(zap.String("event_id", headerID)), err)
		}
		if seen {
			if event, err := ParseEvent(d.Body); err == nil {
				res.EventType = event.EventType()
			}
			return s.duplicate(res, s.log.With(zap.String("event_id", headerID))), nil
		}
	}

	event, err := ParseEvent(d.Body)
	if err != nil {
		return s.malformed(provider, "Invalid JSON payload.", err)
	}

	res.IdempotencyKey, err = ResolveEventID(headerID, event.EventID(), d.Body)
	if err != nil {
		return s.malformed(provider, "Event id exceeds 191 characters.", err)
	}
	res.EventType = event.EventType()
	log := s.log.With(zap.String("event_id", res.IdempotencyKey), zap.String("event_type", res.EventType))

	if headerID == "" {
		seen, err := s.ledger.AlreadyProcessed(ctx, provider, res.IdempotencyKey)
		if err != nil {
			return s.failed(res, log, err)
		}
		if seen {
			return s.duplicate(res, log), nil
		}
	}

	var changedPlan string
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		orgID, err := s.resolveOrganization(ctx, tx, event)
		if err != nil {
			return err
		}

		outcome := OutcomeIgnored
		if orgID != nil {
			outcome = OutcomeApplied
		}
		record := &models.BillingWebhookEvent{
			Provider:        provider,
			ProviderEventID: res.IdempotencyKey,
			EventType:       res.EventType,
			OrganizationID:  orgID,
			Outcome:         string(outcome),
			PayloadJSON:     string(d.Body),
		}
		created, err := s.ledger.Record(ctx, tx, record)
		if err != nil {
			return err
		}
		if !created {
			return errDuplicateDelivery
		}

		if orgID != nil {
			sub, err := s.apply(ctx, tx, *orgID, event)
			if err != nil {
				return err
			}
			changedPlan = sub.Plan
		}
		res.Outcome = outcome
		res.OrganizationID = orgID
		res.SubscriptionUpdated = orgID != nil
		return nil
	})
	if errors.Is(err, errDuplicateDelivery) {
		*res = WebhookResult{Outcome: OutcomeDuplicate, IdempotencyKey: res.IdempotencyKey, EventType: res.EventType}
		s.metrics.ObserveWebhook(provider, string(res.Outcome))
		log.Info("concurrent duplicate webhook skipped")
		return res, nil
	}
	if err != nil {
		return s.failed(res, log, err)
	}

	s.ledger.Remember(ctx, provider, res.IdempotencyKey)
	s.archive(ctx, provider, res.IdempotencyKey, d.Body, log)
	s.metrics.ObserveWebhook(provider, string(res.Outcome))
	if changedPlan != "" {
		s.metrics.ObservePlanChange("webhook", changedPlan)
	}

	fields := []zap.Field{zap.String("outcome", string(res.Outcome))}
	if res.OrganizationID != nil {
		fields = append(fields, zap.Uint("organization_id", *res.OrganizationID))
	}
	log.Info("webhook processed", fields...)
	return res, nil
}

func (s *Service) malformed(provider, message string, err error) (*WebhookResult, error) {
	s.metrics.ObserveWebhook(provider, string(OutcomeMalformed))
	return &WebhookResult{Outcome: OutcomeMalformed}, apperror.Wrap(apperror.ValidationFailed, message, err)
}

func (s *Service) duplicate(res *WebhookResult, log *zap.Logger) *WebhookResult {
	res.Outcome = OutcomeDuplicate
	s.metrics.ObserveWebhook(models.BillingProviderStripe, string(res.Outcome))
	log.Info("duplicate webhook skipped")
	return res
}

func (s *Service) failed(res *WebhookResult, log *zap.Logger, err error) (*WebhookResult, error) {
	res.Outcome = OutcomeApplyFailed
	res.SubscriptionUpdated = false
	res.OrganizationID = nil
	s.metrics.ObserveWebhook(models.BillingProviderStripe, string(res.Outcome))
	log.Error("webhook processing failed", zap.Error(err))
	return res, apperror.Wrap(apperror.Internal, "Webhook processing failed.", err)
}

// resolveOrganization maps the event to a local organization. nil means the
// event is acknowledged without touching any subscription.
func (s *Service) resolveOrganization(ctx context.Context, tx Repository, event Event) (*uint, error) {
	var ref OrganizationRef
	switch ev := event.(type) {
	case *SubscriptionEvent:
		ref = ev.Org
	case *InvoiceEvent:
		ref = ev.Org
	default:
		return nil, nil
	}

	if ref.ID != 0 {
		ok, err := tx.OrganizationExists(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			id := ref.ID
			return &id, nil
		}
	}

	if ref.Slug != "" {
		org, err := tx.FindOrganizationBySlug(ctx, ref.Slug)
		if err == nil {
			return &org.ID, nil
		}
		if !repository.IsNotFound(err) {
			return nil, err
		}
	}

	if ref.CustomerID != "" {
		sub, err := tx.FindSubscriptionByCustomerID(ctx, ref.CustomerID)
		if err == nil {
			id := sub.OrganizationID
			return &id, nil
		}
		if !repository.IsNotFound(err) {
			return nil, err
		}
	}

	return nil, nil
}

// apply mutates the locked subscription row. Arrival order wins: the latest
// delivered event overwrites earlier state.
func (s *Service) apply(ctx context.Context, tx Repository, organizationID uint, event Event) (*models.Subscription, error) {
	sub, err := tx.LockSubscription(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	switch ev := event.(type) {
	case *SubscriptionEvent:
		if ev.Plan != "" {
			sub.Plan = string(ev.Plan)
		}
		if ev.Status != "" {
			sub.Status = ev.Status
		}
		if ev.Org.CustomerID != "" {
			sub.StripeCustomerID = ev.Org.CustomerID
		}
		if ev.SubscriptionID != "" {
			sub.StripeSubscriptionID = ev.SubscriptionID
		}
		if ev.PeriodStart != nil {
			sub.CurrentPeriodStart = ev.PeriodStart
		}
		if ev.PeriodEnd != nil {
			sub.CurrentPeriodEnd = ev.PeriodEnd
		}

	case *InvoiceEvent:
		if ev.Paid {
			sub.Status = models.BillingStatusActive
			if ev.PeriodStart != nil {
				sub.CurrentPeriodStart = ev.PeriodStart
			}
			if ev.PeriodEnd != nil {
				sub.CurrentPeriodEnd = ev.PeriodEnd
			}
		} else {
			sub.Status = models.BillingStatusPastDue
		}
		if ev.Org.CustomerID != "" {
			sub.StripeCustomerID = ev.Org.CustomerID
		}
		if ev.SubscriptionID != "" {
			sub.StripeSubscriptionID = ev.SubscriptionID
		}
	}

	if err := tx.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) archive(ctx context.Context, provider, eventID string, payload []byte, log *zap.Logger) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(ctx, provider, eventID, payload); err != nil {
		log.Warn("webhook payload archive failed", zap.Error(err))
	}
}

var validate = validator.New()

// ChangePlan applies an owner-initiated plan or status change directly. It is
// not idempotent and does not touch the webhook ledger.
func (s *Service) ChangePlan(ctx context.Context, organizationID uint, change PlanChange) (*models.Subscription, error) {
	change.Plan = strings.ToLower(strings.TrimSpace(change.Plan))
	change.Status = strings.ToLower(strings.TrimSpace(change.Status))
	if change.Plan == "" && change.Status == "" {
		return nil, apperror.New(apperror.ValidationFailed, "Provide plan or status.")
	}
	if err := validate.Struct(change); err != nil {
		return nil, apperror.Wrap(apperror.ValidationFailed, "Plan must be one of starter, growth, enterprise and status one of trialing, active, past_due, canceled.", err)
	}

	var sub *models.Subscription
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		sub, err = tx.LockSubscription(ctx, organizationID)
		if err != nil {
			return err
		}
		if change.Plan != "" {
			plan, _ := entitlements.ParsePlan(change.Plan)
			sub.Plan = string(plan)
		}
		if change.Status != "" {
			sub.Status = change.Status
		}
		return tx.SaveSubscription(ctx, sub)
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "Could not update subscription.", err)
	}

	s.metrics.ObservePlanChange("api", sub.Plan)
	s.log.Info("subscription changed by owner",
		zap.Uint("organization_id", organizationID),
		zap.String("plan", sub.Plan),
		zap.String("status", sub.Status),
	)
	return sub, nil
}
