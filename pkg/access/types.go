package access

import (
	"time"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/plans"
)

// Account is the owner record the evaluator needs: the chosen plan and the
// windows granted outside of a paid subscription.
type Account struct {
	ID                 uuid.UUID
	PlanID             *plans.PlanID
	TrialStartsAt      *time.Time
	TrialEndsAt        *time.Time
	Unlimited          bool
	ProviderCustomerID *string
}

// TrialActiveAt reports whether at falls within the trial window.
func (a *Account) TrialActiveAt(at time.Time) bool {
	if a == nil || a.TrialEndsAt == nil {
		return false
	}
	if a.TrialStartsAt != nil && at.Before(*a.TrialStartsAt) {
		return false
	}
	return at.Before(*a.TrialEndsAt)
}

// SubscriptionStatus is the lifecycle state of a paid subscription.
type SubscriptionStatus string

const (
	StatusActive            SubscriptionStatus = "active"
	StatusPendingPayment    SubscriptionStatus = "pending_payment"
	StatusBlocked           SubscriptionStatus = "blocked"
	StatusCancelled         SubscriptionStatus = "cancelled"
	StatusTrial             SubscriptionStatus = "trial"
	StatusPromotionalActive SubscriptionStatus = "promotional_active"
)

// Subscription is the paid subscription record of an account.
type Subscription struct {
	ID                     uuid.UUID
	AccountID              uuid.UUID
	PlanID                 plans.PlanID
	Status                 SubscriptionStatus
	Cycle                  string
	StartsAt               *time.Time
	EndsAt                 *time.Time
	GraceEndsAt            *time.Time
	ProviderSubscriptionID *string
	UpdatedAt              time.Time
}

// grantsAccess reports whether the status alone allows access.
func (s SubscriptionStatus) grantsAccess() bool {
	switch s {
	case StatusActive, StatusTrial, StatusPromotionalActive:
		return true
	}
	return false
}

// Promotion is a promotional campaign window granted to an account.
// Uses counts redemptions of the campaign so far.
type Promotion struct {
	CampaignName string
	StartsAt     time.Time
	EndsAt       time.Time
	Uses         int64
	MaxUses      plans.Limit
}

// ActiveAt reports whether at falls within the promotional window.
func (p *Promotion) ActiveAt(at time.Time) bool {
	if p == nil {
		return false
	}
	return !at.Before(p.StartsAt) && at.Before(p.EndsAt)
}

// DecisionCode classifies a capacity decision.
type DecisionCode string

const (
	CodeWithinLimit      DecisionCode = "within_limit"
	CodeUnlimited        DecisionCode = "unlimited"
	CodeLimitReached     DecisionCode = "limit_reached"
	CodeUsageUnavailable DecisionCode = "usage_unavailable"
)

// Decision is the answer to "may this owner add one more unit of a resource".
// Current is only meaningful when Known is true.
type Decision struct {
	Permitted bool           `json:"permitted"`
	Code      DecisionCode   `json:"code"`
	Reason    string         `json:"reason"`
	Resource  plans.Resource `json:"resource"`
	PlanID    plans.PlanID   `json:"plan_id"`
	Current   int64          `json:"current"`
	Max       plans.Limit    `json:"max"`
	Known     bool           `json:"known"`
}

// Kind tells which rule granted an entitlement.
type Kind string

const (
	KindTrial        Kind = "trial"
	KindPromotional  Kind = "promotional"
	KindUnlimited    Kind = "unlimited"
	KindSubscription Kind = "subscription"
	KindGracePeriod  Kind = "grace_period"
	KindNone         Kind = "none"
)

// Denial tells why an entitlement was refused.
type Denial string

const (
	DenialNoSubscription     Denial = "no_subscription"
	DenialPromotionalExpired Denial = "promotional_expired"
	DenialBlocked            Denial = "blocked"
	DenialCancelled          Denial = "cancelled"
	DenialExpired            Denial = "expired"
	DenialPaymentOverdue     Denial = "payment_overdue"
	DenialConnectionError    Denial = "connection_error"
)

// Entitlement is the answer to "may this account use paid features now".
type Entitlement struct {
	Permitted     bool   `json:"permitted"`
	Kind          Kind   `json:"kind"`
	Denial        Denial `json:"denial,omitempty"`
	Reason        string `json:"reason"`
	Warning       string `json:"warning,omitempty"`
	DaysRemaining int    `json:"days_remaining,omitempty"`
	Campaign      string `json:"campaign,omitempty"`
}
