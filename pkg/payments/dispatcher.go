package payments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/asaas"
	"github.com/autovitrine/marketplace/pkg/logger"
)

// DefaultGracePeriod is how long an overdue account keeps access.
const DefaultGracePeriod = 3 * 24 * time.Hour

// Dispatcher applies provider notifications.
type Dispatcher struct {
	store    Store
	accounts AccountResolver
	subs     SubscriptionWriter
	grace    time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithGracePeriod sets how long after an overdue notice access is kept.
func WithGracePeriod(p time.Duration) Option {
	return func(d *Dispatcher) {
		if p >= 0 {
			d.grace = p
		}
	}
}

// NewDispatcher panics when a dependency is nil.
func NewDispatcher(store Store, accounts AccountResolver, subs SubscriptionWriter, opts ...Option) *Dispatcher {
	if store == nil {
		panic("payments: store is required")
	}
	if accounts == nil {
		panic("payments: account resolver is required")
	}
	if subs == nil {
		panic("payments: subscription writer is required")
	}
	d := &Dispatcher{
		store:    store,
		accounts: accounts,
		subs:     subs,
		grace:    DefaultGracePeriod,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(logger.Component("payments"))
	return d
}

// Dispatch applies n. The returned error is non-nil only when n fails
// Validate or when an event that stores a payment carries no payment id.
// Every other failure is logged and reflected in Result.Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, n Notification) (Result, error) {
	res := Result{Event: n.Event, Action: ActionNone}
	if err := n.Validate(); err != nil {
		return res, err
	}

	log := d.log.With(logger.Event(string(n.Event)), logger.PaymentID(n.Payment.ID))

	tr, ok := transitions[n.Event]
	if !ok {
		log.WarnContext(ctx, "unhandled payment event")
		res.Outcome = OutcomeUnknownEvent
		return res, nil
	}
	if tr.logOnly {
		log.InfoContext(ctx, "payment viewed", logger.CustomerID(n.Payment.Customer))
		res.Outcome = OutcomeIgnored
		return res, nil
	}
	if n.Payment.ID == "" {
		return res, ErrMissingPaymentID
	}

	now := d.now().UTC()
	status := tr.status
	if tr.fromPayload {
		status = Status(strings.ToUpper(strings.TrimSpace(n.Payment.Status)))
		if status == "" {
			status = StatusPending
		}
	}
	res.Status = status

	accountID, resolveErr := d.resolveAccount(ctx, n.Payment)
	if resolveErr == nil {
		res.AccountID = &accountID
	}

	rec := toRecord(n, status, now)
	rec.AccountID = res.AccountID

	applied, err := d.store.UpsertPayment(ctx, rec)
	if err != nil {
		log.ErrorContext(ctx, "failed to store payment", logger.Error(err))
		res.Outcome = OutcomeStoreError
		return res, nil
	}
	if !applied {
		log.InfoContext(ctx, "stale payment event skipped", slog.Time("occurred_at", rec.LastEventAt))
		res.Outcome = OutcomeStale
		return res, nil
	}

	res.Outcome = OutcomeApplied
	if tr.action == ActionNone {
		log.InfoContext(ctx, "payment updated", logger.Status(string(status)))
		return res, nil
	}

	res.Action = tr.action
	if resolveErr != nil {
		log.WarnContext(ctx, "payment has no local account",
			logger.CustomerID(n.Payment.Customer),
			slog.String("external_reference", n.Payment.ExternalReference),
			logger.Error(resolveErr))
		res.Outcome = OutcomeUnresolvedAccount
		return res, nil
	}

	log = log.With(logger.AccountID(accountID))
	if err := d.applyAction(ctx, tr.action, accountID, now); err != nil {
		log.ErrorContext(ctx, "failed to update subscription", slog.String("action", string(tr.action)), logger.Error(err))
		res.Outcome = OutcomeSubscriptionError
		return res, nil
	}
	log.InfoContext(ctx, "subscription updated", slog.String("action", string(tr.action)), logger.Status(string(status)))
	return res, nil
}

func (d *Dispatcher) applyAction(ctx context.Context, action Action, accountID uuid.UUID, now time.Time) error {
	switch action {
	case ActionActivate:
		return d.subs.Activate(ctx, accountID, ActivationWindow(now))
	case ActionDeactivate:
		return d.subs.Deactivate(ctx, accountID, now)
	case ActionGrace:
		return d.subs.MarkOverdue(ctx, accountID, now.Add(d.grace))
	}
	return nil
}

// ActivationWindow is the period granted by a confirmed payment: one
// calendar month from now, whatever the subscription cycle.
func ActivationWindow(now time.Time) Window {
	return Window{Start: now, End: now.AddDate(0, 1, 0)}
}

// resolveAccount tries the external reference first and the provider
// customer id second.
func (d *Dispatcher) resolveAccount(ctx context.Context, p *asaas.Payment) (uuid.UUID, error) {
	var errs []error
	if ref := strings.TrimSpace(p.ExternalReference); ref != "" {
		id, err := d.accounts.AccountByReference(ctx, ref)
		if err == nil {
			return id, nil
		}
		errs = append(errs, err)
	}
	if p.Customer != "" {
		id, err := d.accounts.AccountByCustomerID(ctx, p.Customer)
		if err == nil {
			return id, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return uuid.Nil, ErrAccountNotFound
	}
	return uuid.Nil, errors.Join(errs...)
}

func toRecord(n Notification, status Status, now time.Time) *Payment {
	p := n.Payment
	occurred := n.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}
	rec := &Payment{
		ExternalID:        p.ID,
		CustomerID:        p.Customer,
		SubscriptionID:    p.Subscription,
		Amount:            asaas.Cents(p.Value),
		NetAmount:         asaas.Cents(p.NetValue),
		BillingType:       string(p.BillingType),
		Status:            status,
		InvoiceURL:        p.InvoiceURL,
		BankSlipURL:       p.BankSlipURL,
		ReceiptURL:        p.TransactionReceiptURL,
		ExternalReference: p.ExternalReference,
		LastEvent:         n.Event,
		LastEventAt:       occurred.UTC(),
		UpdatedAt:         now,
	}
	if !p.DueDate.IsZero() {
		due := p.DueDate.UTC()
		rec.DueDate = &due
	}
	if p.PaymentDate != nil && !p.PaymentDate.IsZero() {
		paid := p.PaymentDate.UTC()
		rec.PaymentDate = &paid
	}
	return rec
}
