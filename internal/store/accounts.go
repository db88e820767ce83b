package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/payments"
	"github.com/autovitrine/marketplace/pkg/pg"
	"github.com/autovitrine/marketplace/pkg/plans"
)

// AccountRepo reads and updates owner accounts.
type AccountRepo struct {
	db DB
}

func NewAccountRepo(db DB) *AccountRepo {
	if db == nil {
		panic("store: db is required")
	}
	return &AccountRepo{db: db}
}

const accountColumns = `id, plan_id, trial_starts_at, trial_ends_at, unlimited, provider_customer_id`

func scanAccount(row interface{ Scan(...any) error }) (*access.Account, error) {
	var (
		acc    access.Account
		planID *string
	)
	if err := row.Scan(&acc.ID, &planID, &acc.TrialStartsAt, &acc.TrialEndsAt, &acc.Unlimited, &acc.ProviderCustomerID); err != nil {
		return nil, err
	}
	if planID != nil {
		id := plans.PlanID(*planID)
		acc.PlanID = &id
	}
	return &acc, nil
}

// CreateAccount inserts acc. Accounts are normally provisioned by the
// hosted backend; this exists for seeding and tests.
func (r *AccountRepo) CreateAccount(ctx context.Context, acc *access.Account, externalRef string) error {
	var planID *string
	if acc.PlanID != nil {
		s := string(*acc.PlanID)
		planID = &s
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (id, plan_id, trial_starts_at, trial_ends_at, unlimited, provider_customer_id, external_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, acc.ID, planID, acc.TrialStartsAt, acc.TrialEndsAt, acc.Unlimited, acc.ProviderCustomerID, nullString(externalRef))
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	return nil
}

// GetAccount implements access.AccountReader.
func (r *AccountRepo) GetAccount(ctx context.Context, id uuid.UUID) (*access.Account, error) {
	acc, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, access.ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return acc, nil
}

// AccountByReference resolves the externalReference of a charge. The
// reference is normally the account id; legacy charges carry a value stored
// in accounts.external_reference.
func (r *AccountRepo) AccountByReference(ctx context.Context, ref string) (uuid.UUID, error) {
	if ref == "" {
		return uuid.Nil, payments.ErrAccountNotFound
	}
	var id uuid.UUID
	query := `SELECT id FROM accounts WHERE external_reference = $1`
	args := []any{ref}
	if parsed, err := uuid.Parse(ref); err == nil {
		query = `SELECT id FROM accounts WHERE id = $1 OR external_reference = $2 ORDER BY (id = $1) DESC LIMIT 1`
		args = []any{parsed, ref}
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if pg.IsNotFoundError(err) {
			return uuid.Nil, payments.ErrAccountNotFound
		}
		return uuid.Nil, fmt.Errorf("resolving account by reference: %w", err)
	}
	return id, nil
}

// AccountByCustomerID resolves the provider customer of a charge.
func (r *AccountRepo) AccountByCustomerID(ctx context.Context, customerID string) (uuid.UUID, error) {
	if customerID == "" {
		return uuid.Nil, payments.ErrAccountNotFound
	}
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM accounts WHERE provider_customer_id = $1`, customerID).Scan(&id)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return uuid.Nil, payments.ErrAccountNotFound
		}
		return uuid.Nil, fmt.Errorf("resolving account by customer: %w", err)
	}
	return id, nil
}

// SetProviderCustomerID links the account to its billing customer.
func (r *AccountRepo) SetProviderCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts SET provider_customer_id = $2, updated_at = $3 WHERE id = $1
	`, id, customerID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("setting provider customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return access.ErrAccountNotFound
	}
	return nil
}
