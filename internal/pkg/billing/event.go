package billing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/ManuelReschke/TenantFox/app/models"
	"github.com/ManuelReschke/TenantFox/internal/pkg/entitlements"
)

// ErrMalformedPayload is returned by ParseEvent when the body is not a JSON object.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// Event is a decoded provider event. The concrete type is one of
// *SubscriptionEvent, *InvoiceEvent or *UnknownEvent.
type Event interface {
	EventID() string
	EventType() string
	isEvent()
}

type eventHeader struct {
	ID   string
	Type string
}

func (h eventHeader) EventID() string   { return h.ID }
func (h eventHeader) EventType() string { return h.Type }
func (eventHeader) isEvent()            {}

// OrganizationRef carries every hint a payload gives about the target organization.
type OrganizationRef struct {
	ID         uint
	Slug       string
	CustomerID string
}

// SubscriptionEvent covers subscription created/updated/deleted.
type SubscriptionEvent struct {
	eventHeader
	Org            OrganizationRef
	Deleted        bool
	Plan           entitlements.Plan
	Status         string
	SubscriptionID string
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
}

// InvoiceEvent covers invoice payment results.
type InvoiceEvent struct {
	eventHeader
	Org            OrganizationRef
	Paid           bool
	SubscriptionID string
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
}

// UnknownEvent is acknowledged and recorded without touching any subscription.
type UnknownEvent struct {
	eventHeader
}

const (
	eventSubscriptionCreated     = "customer.subscription.created"
	eventSubscriptionUpdated     = "customer.subscription.updated"
	eventSubscriptionDeleted     = "customer.subscription.deleted"
	eventSubscriptionCreatedFlat = "subscription.created"
	eventSubscriptionUpdatedFlat = "subscription.updated"
	eventSubscriptionDeletedFlat = "subscription.deleted"
	eventInvoicePaid             = "invoice.paid"
	eventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	eventInvoicePaymentFailed    = "invoice.payment_failed"
)

// flatPlan decodes a flat plan given either as a bare name or as a plan object.
type flatPlan struct {
	Name string
}

func (p *flatPlan) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.Name)
	}
	var obj struct {
		Nickname string `json:"nickname"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Name = obj.Nickname
	return nil
}

// flatPayload is the simplified shape posted by senders that skip the Stripe
// envelope: tier and organization reference sit at the top level.
type flatPayload struct {
	Tier             string               `json:"tier"`
	Plan             flatPlan             `json:"plan"`
	Status           string               `json:"status"`
	OrganizationID   interface{}          `json:"organization_id"`
	OrganizationSlug string               `json:"organization_slug"`
	Customer         *stripe.Customer     `json:"customer"`
	Subscription     *stripe.Subscription `json:"subscription"`
}

// legacyObject holds fields that API versions before 2025-03-31 carried on the
// object itself instead of on subscription items or the invoice parent.
type legacyObject struct {
	Subscription       *stripe.Subscription `json:"subscription"`
	CurrentPeriodStart int64                `json:"current_period_start"`
	CurrentPeriodEnd   int64                `json:"current_period_end"`
}

// ParseEvent decodes a raw webhook body into an Event.
func ParseEvent(body []byte) (Event, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrMalformedPayload
	}

	var envelope stripe.Event
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	var flat flatPayload
	if err := json.Unmarshal(trimmed, &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	header := eventHeader{
		ID:   strings.TrimSpace(envelope.ID),
		Type: strings.ToLower(strings.TrimSpace(string(envelope.Type))),
	}
	if header.Type == "" {
		header.Type = "unknown"
	}
	var object json.RawMessage
	if envelope.Data != nil {
		object = envelope.Data.Raw
	}

	switch header.Type {
	case eventSubscriptionCreated, eventSubscriptionUpdated, eventSubscriptionDeleted,
		eventSubscriptionCreatedFlat, eventSubscriptionUpdatedFlat, eventSubscriptionDeletedFlat:
		return parseSubscriptionEvent(header, object, &flat)
	case eventInvoicePaid, eventInvoicePaymentSucceeded, eventInvoicePaymentFailed:
		return parseInvoiceEvent(header, object, &flat)
	default:
		return &UnknownEvent{eventHeader: header}, nil
	}
}

func parseSubscriptionEvent(header eventHeader, object json.RawMessage, flat *flatPayload) (Event, error) {
	var sub stripe.Subscription
	var legacy legacyObject
	if err := decodeObject(object, &sub, &legacy); err != nil {
		return nil, err
	}

	ev := &SubscriptionEvent{
		eventHeader:    header,
		Org:            organizationRef(sub.Customer, flat, sub.Metadata),
		Deleted:        strings.HasSuffix(header.Type, ".deleted"),
		Plan:           resolvePlan(subscriptionPlanNames(&sub), flat),
		Status:         normalizeStatus(firstNonEmpty(string(sub.Status), flat.Status)),
		SubscriptionID: firstNonEmpty(subscriptionObjectID(&sub), subscriptionID(flat.Subscription)),
	}
	ev.PeriodStart, ev.PeriodEnd = subscriptionPeriod(&sub, &legacy)
	if ev.Deleted {
		ev.Status = models.BillingStatusCanceled
	}
	return ev, nil
}

func parseInvoiceEvent(header eventHeader, object json.RawMessage, flat *flatPayload) (Event, error) {
	var inv stripe.Invoice
	var legacy legacyObject
	if err := decodeObject(object, &inv, &legacy); err != nil {
		return nil, err
	}

	var parentMetadata map[string]string
	var parentSub *stripe.Subscription
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
		parentMetadata = inv.Parent.SubscriptionDetails.Metadata
		parentSub = inv.Parent.SubscriptionDetails.Subscription
	}

	ev := &InvoiceEvent{
		eventHeader: header,
		Org:         organizationRef(inv.Customer, flat, inv.Metadata, parentMetadata),
		Paid:        header.Type != eventInvoicePaymentFailed,
		SubscriptionID: firstNonEmpty(
			subscriptionID(parentSub),
			subscriptionID(legacy.Subscription),
			subscriptionID(flat.Subscription),
		),
	}
	ev.PeriodStart, ev.PeriodEnd = invoicePeriod(&inv)
	return ev, nil
}

// decodeObject unmarshals data.object into every target. A missing object
// leaves the targets zero.
func decodeObject(object json.RawMessage, targets ...interface{}) error {
	object = bytes.TrimSpace(object)
	if len(object) == 0 || bytes.Equal(object, []byte("null")) {
		return nil
	}
	for _, target := range targets {
		if err := json.Unmarshal(object, target); err != nil {
			return fmt.Errorf("%w: data.object: %v", ErrMalformedPayload, err)
		}
	}
	return nil
}

// organizationRef collects organization hints in resolution order: object
// metadata, invoice subscription metadata, then flat payload fields.
func organizationRef(customer *stripe.Customer, flat *flatPayload, metadata ...map[string]string) OrganizationRef {
	ref := OrganizationRef{
		CustomerID: firstNonEmpty(customerID(customer), customerID(flat.Customer)),
	}

	for _, md := range metadata {
		if ref.ID == 0 {
			ref.ID = parseOrganizationID(md["organization_id"])
		}
		if ref.Slug == "" {
			ref.Slug = strings.TrimSpace(md["organization_slug"])
		}
	}
	if ref.ID == 0 {
		ref.ID = parseOrganizationID(flat.OrganizationID)
	}
	if ref.Slug == "" {
		ref.Slug = strings.TrimSpace(flat.OrganizationSlug)
	}
	return ref
}

// subscriptionPlanNames lists the human readable plan names on a subscription.
// Opaque price ids are left out on purpose.
func subscriptionPlanNames(sub *stripe.Subscription) []string {
	var names []string
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item == nil || item.Price == nil {
				continue
			}
			names = append(names, item.Price.Nickname, item.Price.LookupKey)
		}
	}
	return append(names, sub.Metadata["plan"])
}

// resolvePlan returns the first candidate that normalizes to a known tier.
func resolvePlan(names []string, flat *flatPayload) entitlements.Plan {
	for _, name := range append(names, flat.Tier, flat.Plan.Name) {
		if plan := normalizePlan(name); plan != "" {
			return plan
		}
	}
	return ""
}

func subscriptionObjectID(sub *stripe.Subscription) string {
	if sub.Object == "subscription" || strings.HasPrefix(sub.ID, "sub_") {
		return sub.ID
	}
	return ""
}

func subscriptionPeriod(sub *stripe.Subscription, legacy *legacyObject) (*time.Time, *time.Time) {
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			if item != nil && (item.CurrentPeriodStart != 0 || item.CurrentPeriodEnd != 0) {
				return unixTime(item.CurrentPeriodStart), unixTime(item.CurrentPeriodEnd)
			}
		}
	}
	return unixTime(legacy.CurrentPeriodStart), unixTime(legacy.CurrentPeriodEnd)
}

func invoicePeriod(inv *stripe.Invoice) (*time.Time, *time.Time) {
	if inv.Lines != nil && len(inv.Lines.Data) > 0 {
		if line := inv.Lines.Data[0]; line != nil && line.Period != nil && (line.Period.Start != 0 || line.Period.End != 0) {
			return unixTime(line.Period.Start), unixTime(line.Period.End)
		}
	}
	return unixTime(inv.PeriodStart), unixTime(inv.PeriodEnd)
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func subscriptionID(sub *stripe.Subscription) string {
	if sub == nil {
		return ""
	}
	return sub.ID
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

func parseOrganizationID(v interface{}) uint {
	switch id := v.(type) {
	case float64:
		if id > 0 && id == float64(uint(id)) {
			return uint(id)
		}
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err == nil {
			return uint(n)
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
