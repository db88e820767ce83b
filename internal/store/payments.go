package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/payments"
	"github.com/autovitrine/marketplace/pkg/pg"
)

type PaymentRepo struct {
	db DB
}

func NewPaymentRepo(db DB) *PaymentRepo {
	if db == nil {
		panic("store: db is required")
	}
	return &PaymentRepo{db: db}
}

// UpsertPayment implements payments.Store. The conflict branch only runs when
// the incoming event is not older than the stored one; a skipped update
// returns no row and reports applied=false.
func (r *PaymentRepo) UpsertPayment(ctx context.Context, p *payments.Payment) (bool, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		INSERT INTO payments (
			external_id, account_id, customer_id, subscription_id, amount, net_amount,
			billing_type, status, due_date, payment_date, invoice_url, bank_slip_url,
			receipt_url, external_reference, last_event, last_event_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (external_id) DO UPDATE SET
			account_id = COALESCE(EXCLUDED.account_id, payments.account_id),
			customer_id = EXCLUDED.customer_id,
			subscription_id = EXCLUDED.subscription_id,
			amount = EXCLUDED.amount,
			net_amount = EXCLUDED.net_amount,
			billing_type = EXCLUDED.billing_type,
			status = EXCLUDED.status,
			due_date = EXCLUDED.due_date,
			payment_date = EXCLUDED.payment_date,
			invoice_url = EXCLUDED.invoice_url,
			bank_slip_url = EXCLUDED.bank_slip_url,
			receipt_url = EXCLUDED.receipt_url,
			external_reference = EXCLUDED.external_reference,
			last_event = EXCLUDED.last_event,
			last_event_at = EXCLUDED.last_event_at,
			updated_at = EXCLUDED.updated_at
		WHERE payments.last_event_at <= EXCLUDED.last_event_at
		RETURNING external_id
	`,
		p.ExternalID,
		p.AccountID,
		p.CustomerID,
		p.SubscriptionID,
		p.Amount,
		p.NetAmount,
		p.BillingType,
		string(p.Status),
		p.DueDate,
		p.PaymentDate,
		p.InvoiceURL,
		p.BankSlipURL,
		p.ReceiptURL,
		p.ExternalReference,
		string(p.LastEvent),
		p.LastEventAt,
		p.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("upserting payment: %w", err)
	}
	return true, nil
}

const paymentColumns = `external_id, account_id, customer_id, subscription_id, amount, net_amount,
	billing_type, status, due_date, payment_date, invoice_url, bank_slip_url, receipt_url,
	external_reference, last_event, last_event_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*payments.Payment, error) {
	var (
		p         payments.Payment
		status    string
		lastEvent string
	)
	err := row.Scan(
		&p.ExternalID,
		&p.AccountID,
		&p.CustomerID,
		&p.SubscriptionID,
		&p.Amount,
		&p.NetAmount,
		&p.BillingType,
		&status,
		&p.DueDate,
		&p.PaymentDate,
		&p.InvoiceURL,
		&p.BankSlipURL,
		&p.ReceiptURL,
		&p.ExternalReference,
		&lastEvent,
		&p.LastEventAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = payments.Status(status)
	p.LastEvent = payments.EventName(lastEvent)
	return &p, nil
}

func (r *PaymentRepo) GetPayment(ctx context.Context, externalID string) (*payments.Payment, error) {
	p, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_id = $1`, externalID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("getting payment: %w", err)
	}
	return p, nil
}

// ListByAccount returns the account's payments, most recently notified first.
func (r *PaymentRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]payments.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE account_id = $1
		ORDER BY last_event_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}
	defer rows.Close()

	var out []payments.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment row: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}
	return out, nil
}
