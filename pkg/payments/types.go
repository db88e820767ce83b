package payments

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/asaas"
)

// Notification is one delivery from the billing provider.
type Notification struct {
	ID         string
	Event      EventName
	OccurredAt time.Time
	Payment    *asaas.Payment
}

// NotificationFromWebhook converts a decoded webhook body.
func NotificationFromWebhook(evt asaas.WebhookEvent) Notification {
	return Notification{
		ID:         evt.ID,
		Event:      EventName(evt.Event),
		OccurredAt: evt.DateCreated.Time,
		Payment:    evt.Payment,
	}
}

// Validate checks the two fields every notification must carry.
func (n Notification) Validate() error {
	if n.Event == "" {
		return ErrMissingEvent
	}
	if n.Payment == nil {
		return ErrMissingPayment
	}
	return nil
}

// Payment is the local mirror of a provider charge. ExternalID is unique.
type Payment struct {
	ExternalID        string
	AccountID         *uuid.UUID
	CustomerID        string
	SubscriptionID    string
	Amount            int64
	NetAmount         int64
	BillingType       string
	Status            Status
	DueDate           *time.Time
	PaymentDate       *time.Time
	InvoiceURL        string
	BankSlipURL       string
	ReceiptURL        string
	ExternalReference string
	LastEvent         EventName
	LastEventAt       time.Time
	UpdatedAt         time.Time
}

// Window is a subscription validity period.
type Window struct {
	Start time.Time
	End   time.Time
}

// Store persists payment records.
type Store interface {
	// UpsertPayment inserts or updates the row keyed by p.ExternalID. It
	// reports applied=false when the stored row already reflects a newer
	// event, in which case nothing is written.
	UpsertPayment(ctx context.Context, p *Payment) (applied bool, err error)
}

// AccountResolver maps provider identifiers to local accounts. Both methods
// return ErrAccountNotFound when nothing matches.
type AccountResolver interface {
	AccountByReference(ctx context.Context, ref string) (uuid.UUID, error)
	AccountByCustomerID(ctx context.Context, customerID string) (uuid.UUID, error)
}

// SubscriptionWriter mutates the subscription window of an account.
type SubscriptionWriter interface {
	Activate(ctx context.Context, accountID uuid.UUID, w Window) error
	Deactivate(ctx context.Context, accountID uuid.UUID, at time.Time) error
	MarkOverdue(ctx context.Context, accountID uuid.UUID, graceEndsAt time.Time) error
}

// Outcome summarizes what a dispatch did.
type Outcome string

const (
	OutcomeApplied           Outcome = "applied"
	OutcomeStale             Outcome = "stale"
	OutcomeIgnored           Outcome = "ignored"
	OutcomeUnknownEvent      Outcome = "unknown_event"
	OutcomeStoreError        Outcome = "store_error"
	OutcomeUnresolvedAccount Outcome = "unresolved_account"
	OutcomeSubscriptionError Outcome = "subscription_error"
)

// Result reports the effect of one notification.
type Result struct {
	Event     EventName
	Outcome   Outcome
	Status    Status
	Action    Action
	AccountID *uuid.UUID
}
