package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ManuelReschke/TenantFox/app/models"
	"github.com/ManuelReschke/TenantFox/app/repository"
)

// DefaultSeenTTL is how long the cache remembers a processed event id.
const DefaultSeenTTL = 72 * time.Hour

// MaxEventIDLength matches the width of billing_webhook_events.provider_event_id.
const MaxEventIDLength = 191

// ErrEventIDTooLong is returned for event ids the ledger column cannot hold.
var ErrEventIDTooLong = errors.New("webhook event id too long")

// SeenCache is an optional fast path in front of the durable ledger. It may
// forget entries at any time; the database stays authoritative.
type SeenCache interface {
	IsEventSeen(ctx context.Context, provider, eventID string) (bool, error)
	MarkEventSeen(ctx context.Context, provider, eventID string, ttl time.Duration) error
}

// Ledger answers "has this event been processed" and records processed events.
type Ledger struct {
	repo  Repository
	cache SeenCache
	ttl   time.Duration
	log   *zap.Logger
}

// NewLedger builds a ledger over repo. cache may be nil.
func NewLedger(repo Repository, cache SeenCache, ttl time.Duration, log *zap.Logger) *Ledger {
	if ttl <= 0 {
		ttl = DefaultSeenTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{repo: repo, cache: cache, ttl: ttl, log: log}
}

// ResolveEventID picks the idempotency key: header id, payload id, then a
// content hash so identical bodies without ids are still deduplicated.
func ResolveEventID(headerID, payloadID string, body []byte) (string, error) {
	for _, id := range []string{headerID, payloadID} {
		if id = strings.TrimSpace(id); id != "" {
			return id, checkEventID(id)
		}
	}
	sum := sha256.Sum256(body)
	return "hash:" + hex.EncodeToString(sum[:]), nil
}

func checkEventID(id string) error {
	if len(id) > MaxEventIDLength {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrEventIDTooLong, len(id), MaxEventIDLength)
	}
	return nil
}

// AlreadyProcessed reports whether a committed ledger row exists for the event.
// Cache errors fall through to the database.
func (l *Ledger) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	if l.cache != nil {
		seen, err := l.cache.IsEventSeen(ctx, provider, eventID)
		if err != nil {
			l.log.Warn("idempotency cache lookup failed", zap.String("event_id", eventID), zap.Error(err))
		} else if seen {
			return true, nil
		}
	}

	_, err := l.repo.FindWebhookEvent(ctx, provider, eventID)
	if err == nil {
		return true, nil
	}
	if repository.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Record inserts the ledger row inside tx. created is false when a concurrent
// delivery of the same event already holds the row.
func (l *Ledger) Record(ctx context.Context, tx Repository, event *models.BillingWebhookEvent) (bool, error) {
	return tx.CreateWebhookEventIfNotExists(ctx, event)
}

// Remember marks the event in the cache after the ledger row committed.
func (l *Ledger) Remember(ctx context.Context, provider, eventID string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.MarkEventSeen(ctx, provider, eventID, l.ttl); err != nil {
		l.log.Warn("idempotency cache write failed", zap.String("event_id", eventID), zap.Error(err))
	}
}
