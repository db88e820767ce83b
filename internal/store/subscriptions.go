package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/payments"
	"github.com/autovitrine/marketplace/pkg/pg"
	"github.com/autovitrine/marketplace/pkg/plans"
)

// SubscriptionRepo reads subscriptions and applies the changes payment
// notifications trigger.
type SubscriptionRepo struct {
	db       DB
	basePlan plans.PlanID
}

// NewSubscriptionRepo returns a repo that activates basePlan for accounts
// that never chose a plan.
func NewSubscriptionRepo(db DB, basePlan plans.PlanID) *SubscriptionRepo {
	if db == nil {
		panic("store: db is required")
	}
	if basePlan == "" {
		basePlan = plans.PlanFree
	}
	return &SubscriptionRepo{db: db, basePlan: basePlan}
}

// CurrentSubscription implements access.SubscriptionReader.
func (r *SubscriptionRepo) CurrentSubscription(ctx context.Context, accountID uuid.UUID) (*access.Subscription, error) {
	var (
		sub    access.Subscription
		planID string
		status string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, account_id, plan_id, status, cycle, starts_at, ends_at, grace_ends_at,
			provider_subscription_id, updated_at
		FROM subscriptions
		WHERE account_id = $1
	`, accountID).Scan(
		&sub.ID,
		&sub.AccountID,
		&planID,
		&status,
		&sub.Cycle,
		&sub.StartsAt,
		&sub.EndsAt,
		&sub.GraceEndsAt,
		&sub.ProviderSubscriptionID,
		&sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, access.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("getting subscription: %w", err)
	}
	sub.PlanID = plans.PlanID(planID)
	sub.Status = access.SubscriptionStatus(status)
	return &sub, nil
}

// Activate starts or renews the paid window of the account on its current
// plan and clears any grace period.
func (r *SubscriptionRepo) Activate(ctx context.Context, accountID uuid.UUID, w payments.Window) error {
	return pg.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO subscriptions (id, account_id, plan_id, status, starts_at, ends_at)
			SELECT $1, a.id, COALESCE(a.plan_id, $3), 'active', $4, $5
			FROM accounts a
			WHERE a.id = $2
			ON CONFLICT (account_id) DO UPDATE SET
				plan_id = EXCLUDED.plan_id,
				status = 'active',
				starts_at = EXCLUDED.starts_at,
				ends_at = EXCLUDED.ends_at,
				grace_ends_at = NULL,
				updated_at = NOW()
		`, uuid.New(), accountID, string(r.basePlan), w.Start, w.End)
		if err != nil {
			return fmt.Errorf("activating subscription: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return access.ErrAccountNotFound
		}
		return setAccountWindow(ctx, tx, accountID, &w.Start, &w.End)
	})
}

// Deactivate cancels the subscription as of at.
func (r *SubscriptionRepo) Deactivate(ctx context.Context, accountID uuid.UUID, at time.Time) error {
	return pg.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE subscriptions
			SET status = 'cancelled', ends_at = $2, grace_ends_at = NULL, updated_at = NOW()
			WHERE account_id = $1
		`, accountID, at)
		if err != nil {
			return fmt.Errorf("deactivating subscription: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return access.ErrSubscriptionNotFound
		}
		return setAccountWindow(ctx, tx, accountID, nil, &at)
	})
}

// MarkOverdue moves a live subscription to pending_payment. A subscription
// that is already pending keeps its original grace deadline, so repeated
// overdue notices do not extend it. Cancelled and blocked subscriptions are
// left alone.
func (r *SubscriptionRepo) MarkOverdue(ctx context.Context, accountID uuid.UUID, graceEndsAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE subscriptions
		SET status = 'pending_payment',
			grace_ends_at = CASE
				WHEN status = 'pending_payment' AND grace_ends_at IS NOT NULL THEN grace_ends_at
				ELSE $2
			END,
			updated_at = NOW()
		WHERE account_id = $1
			AND status IN ('active', 'pending_payment', 'trial', 'promotional_active')
	`, accountID, graceEndsAt)
	if err != nil {
		return fmt.Errorf("marking subscription overdue: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE account_id = $1)`, accountID).Scan(&exists); err != nil {
		return fmt.Errorf("checking subscription: %w", err)
	}
	if !exists {
		return access.ErrSubscriptionNotFound
	}
	return nil
}

// setAccountWindow mirrors the subscription window on the account row. A nil
// start leaves the stored start unchanged.
func setAccountWindow(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, start, end *time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE accounts
		SET subscription_starts_at = COALESCE($2, subscription_starts_at),
			subscription_ends_at = $3,
			updated_at = NOW()
		WHERE id = $1
	`, accountID, start, end)
	if err != nil {
		return fmt.Errorf("updating account window: %w", err)
	}
	return nil
}
