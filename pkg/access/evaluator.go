package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/logger"
	"github.com/autovitrine/marketplace/pkg/plans"
)

// AccountReader loads owner accounts. It returns ErrAccountNotFound when the
// account does not exist.
type AccountReader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
}

// SubscriptionReader loads the current subscription of an account. It
// returns ErrSubscriptionNotFound when the account never subscribed.
type SubscriptionReader interface {
	CurrentSubscription(ctx context.Context, accountID uuid.UUID) (*Subscription, error)
}

// PromotionReader loads the promotional window relevant at now: the one
// covering now if any, otherwise the latest one that has already started.
// Windows that start after now are ignored. It returns ErrPromotionNotFound
// when there is none.
type PromotionReader interface {
	LatestPromotion(ctx context.Context, accountID uuid.UUID, now time.Time) (*Promotion, error)
}

// UsageCounter counts resource usage.
type UsageCounter interface {
	Count(ctx context.Context, ownerID uuid.UUID, res plans.Resource) (int64, error)
}

// Evaluator answers capacity and entitlement questions. It never mutates
// state and reserves nothing: a permit is advisory until the write that
// consumes it re-checks the limit.
type Evaluator struct {
	catalog       *plans.Catalog
	accounts      AccountReader
	subscriptions SubscriptionReader
	promotions    PromotionReader
	counter       UsageCounter
	now           func() time.Time
	log           *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEvaluator loads the plan catalog from src and returns an evaluator.
// Panics if a required dependency is nil.
func NewEvaluator(
	ctx context.Context,
	src plans.Source,
	accounts AccountReader,
	subscriptions SubscriptionReader,
	promotions PromotionReader,
	counter UsageCounter,
	opts ...Option,
) (*Evaluator, error) {
	if src == nil {
		panic("access: plans source is required")
	}
	if accounts == nil {
		panic("access: AccountReader is required")
	}
	if subscriptions == nil {
		panic("access: SubscriptionReader is required")
	}
	if promotions == nil {
		panic("access: PromotionReader is required")
	}
	if counter == nil {
		panic("access: UsageCounter is required")
	}

	catalog, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(plans.ErrFailedToLoadPlans, err)
	}

	e := &Evaluator{
		catalog:       catalog,
		accounts:      accounts,
		subscriptions: subscriptions,
		promotions:    promotions,
		counter:       counter,
		now:           time.Now,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logger.Component("access"))
	return e, nil
}

// Catalog returns the plan catalog the evaluator was built with.
func (e *Evaluator) Catalog() *plans.Catalog { return e.catalog }

// PlanFor resolves the owner's plan. A missing account or unknown plan
// resolves to the base tier; a failed lookup is logged and does the same.
func (e *Evaluator) PlanFor(ctx context.Context, ownerID uuid.UUID) plans.Plan {
	acc, err := e.accounts.GetAccount(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			e.log.WarnContext(ctx, "account lookup failed, using base plan",
				logger.AccountID(ownerID), logger.Error(err))
		}
		return e.catalog.Base()
	}
	return e.catalog.LookupPtr(acc.PlanID)
}

// LimitFor returns the owner's plan and its cap on res.
func (e *Evaluator) LimitFor(ctx context.Context, ownerID uuid.UUID, res plans.Resource) (plans.Plan, plans.Limit) {
	plan := e.PlanFor(ctx, ownerID)
	return plan, plan.Limit(res)
}

// CanAddResource decides whether the owner may add one more vehicle.
func (e *Evaluator) CanAddResource(ctx context.Context, ownerID uuid.UUID) Decision {
	return e.CanUse(ctx, ownerID, plans.ResourceVehicles)
}

// CanFeatureResource decides whether the owner may feature one more vehicle.
// The featured limit is always finite, so this always counts.
func (e *Evaluator) CanFeatureResource(ctx context.Context, ownerID uuid.UUID) Decision {
	return e.CanUse(ctx, ownerID, plans.ResourceFeaturedVehicles)
}

// CanUse decides whether the owner may consume one more unit of res.
// Permitted iff the limit is unlimited or current < max. A count that cannot
// be obtained denies.
func (e *Evaluator) CanUse(ctx context.Context, ownerID uuid.UUID, res plans.Resource) Decision {
	plan, limit := e.LimitFor(ctx, ownerID, res)
	d := Decision{Resource: res, PlanID: plan.ID, Max: limit}

	if limit.IsUnlimited() {
		d.Permitted = true
		d.Code = CodeUnlimited
		d.Reason = fmt.Sprintf("Plan %s has no limit on %s", plan.Name, resourceLabel(res))
		return d
	}

	current, err := e.counter.Count(ctx, ownerID, res)
	if err != nil {
		e.log.ErrorContext(ctx, "usage count failed",
			logger.AccountID(ownerID), logger.Resource(string(res)), logger.Error(err))
		d.Code = CodeUsageUnavailable
		d.Reason = fmt.Sprintf("Could not verify current %s usage, try again shortly", resourceLabel(res))
		return d
	}

	return Decide(plan, res, current)
}

// Decide compares a known usage count with plan's limit for res. Stores use
// it to report a limit reached inside a write transaction in the same terms
// as the advisory checks.
func Decide(plan plans.Plan, res plans.Resource, current int64) Decision {
	limit := plan.Limit(res)
	d := Decision{Resource: res, PlanID: plan.ID, Max: limit, Current: current, Known: true}
	if limit.IsUnlimited() {
		d.Permitted = true
		d.Code = CodeUnlimited
		d.Reason = fmt.Sprintf("Plan %s has no limit on %s", plan.Name, resourceLabel(res))
		return d
	}
	maxN, _ := limit.Max()
	if limit.Allows(current) {
		d.Permitted = true
		d.Code = CodeWithinLimit
		d.Reason = fmt.Sprintf("Using %d of %d %s", current, maxN, resourceLabel(res))
		return d
	}
	d.Code = CodeLimitReached
	d.Reason = fmt.Sprintf("Plan %s allows up to %d %s", plan.Name, maxN, resourceLabel(res))
	return d
}

// HasFeature reports whether the owner's plan includes f.
func (e *Evaluator) HasFeature(ctx context.Context, ownerID uuid.UUID, f plans.Feature) bool {
	return e.PlanFor(ctx, ownerID).HasFeature(f)
}

// EvaluateEntitlement decides whether the account may use paid features now.
// The first matching rule wins: an active trial, an active promotion with
// uses left, an unlimited or privileged plan, then the paid subscription.
// Lookup failures in the first three rules count as "rule does not apply";
// a failed subscription lookup denies with DenialConnectionError.
func (e *Evaluator) EvaluateEntitlement(ctx context.Context, accountID uuid.UUID) Entitlement {
	now := e.now()

	acc, err := e.accounts.GetAccount(ctx, accountID)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			e.log.WarnContext(ctx, "account lookup failed during entitlement check",
				logger.AccountID(accountID), logger.Error(err))
		}
		acc = nil
	}

	if acc.TrialActiveAt(now) {
		days := daysUntil(now, *acc.TrialEndsAt)
		return Entitlement{
			Permitted:     true,
			Kind:          KindTrial,
			DaysRemaining: days,
			Reason:        fmt.Sprintf("Trial active, %d day(s) remaining", days),
		}
	}

	promo, err := e.promotions.LatestPromotion(ctx, accountID, now)
	if err != nil {
		if !errors.Is(err, ErrPromotionNotFound) {
			e.log.WarnContext(ctx, "promotion lookup failed during entitlement check",
				logger.AccountID(accountID), logger.Error(err))
		}
		promo = nil
	}
	if promo.ActiveAt(now) && promo.MaxUses.Allows(promo.Uses) {
		days := daysUntil(now, promo.EndsAt)
		return Entitlement{
			Permitted:     true,
			Kind:          KindPromotional,
			DaysRemaining: days,
			Campaign:      promo.CampaignName,
			Reason:        fmt.Sprintf("Promotion %q active, %d day(s) remaining", promo.CampaignName, days),
		}
	}

	if acc != nil && (acc.Unlimited || (acc.PlanID != nil && plans.IsPrivileged(*acc.PlanID))) {
		return Entitlement{
			Permitted: true,
			Kind:      KindUnlimited,
			Reason:    "Unlimited access",
		}
	}

	sub, err := e.subscriptions.CurrentSubscription(ctx, accountID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		sub = nil
	case err != nil:
		e.log.ErrorContext(ctx, "subscription lookup failed",
			logger.AccountID(accountID), logger.Error(err))
		return Entitlement{
			Kind:   KindNone,
			Denial: DenialConnectionError,
			Reason: "Could not verify your subscription, try again shortly",
		}
	}

	return fromSubscription(now, sub, promo)
}

func fromSubscription(now time.Time, sub *Subscription, promo *Promotion) Entitlement {
	denied := func(d Denial, reason string) Entitlement {
		return Entitlement{Kind: KindNone, Denial: d, Reason: reason}
	}

	if sub == nil {
		if promo != nil && !now.Before(promo.EndsAt) {
			return denied(DenialPromotionalExpired,
				fmt.Sprintf("Promotion %q ended, subscribe to keep access", promo.CampaignName))
		}
		return denied(DenialNoSubscription, "No active subscription")
	}

	unexpired := sub.EndsAt == nil || now.Before(*sub.EndsAt)

	switch {
	case sub.Status.grantsAccess() && unexpired:
		e := Entitlement{Permitted: true, Kind: KindSubscription, Reason: "Subscription active"}
		if sub.EndsAt != nil {
			e.DaysRemaining = daysUntil(now, *sub.EndsAt)
			e.Reason = fmt.Sprintf("Subscription active, %d day(s) remaining", e.DaysRemaining)
		}
		return e
	case sub.Status == StatusPendingPayment && sub.GraceEndsAt != nil && now.Before(*sub.GraceEndsAt):
		days := daysUntil(now, *sub.GraceEndsAt)
		return Entitlement{
			Permitted:     true,
			Kind:          KindGracePeriod,
			DaysRemaining: days,
			Reason:        "Payment pending, access kept during grace period",
			Warning:       fmt.Sprintf("Payment pending: access ends in %d day(s) unless payment is confirmed", days),
		}
	case sub.Status == StatusPendingPayment:
		return denied(DenialPaymentOverdue, "Payment overdue, grace period ended")
	case sub.Status == StatusBlocked:
		return denied(DenialBlocked, "Account blocked, contact support")
	case sub.Status == StatusCancelled:
		return denied(DenialCancelled, "Subscription cancelled")
	default:
		return denied(DenialExpired, "Subscription expired")
	}
}

// daysUntil counts started days between now and end; a partial day counts
// as a full one.
func daysUntil(now, end time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Hours() / 24))
}

func resourceLabel(res plans.Resource) string {
	switch res {
	case plans.ResourceVehicles:
		return "vehicles"
	case plans.ResourceFeaturedVehicles:
		return "featured vehicles"
	case plans.ResourceStorageMB:
		return "MB of photo storage"
	case plans.ResourceExternalCalls:
		return "external calls per month"
	default:
		return string(res)
	}
}
