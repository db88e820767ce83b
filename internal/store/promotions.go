package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/pg"
	"github.com/autovitrine/marketplace/pkg/plans"
)

type PromotionRepo struct {
	db DB
}

func NewPromotionRepo(db DB) *PromotionRepo {
	if db == nil {
		panic("store: db is required")
	}
	return &PromotionRepo{db: db}
}

// LatestPromotion implements access.PromotionReader. A window covering now
// wins; otherwise the started window that ended last is returned.
func (r *PromotionRepo) LatestPromotion(ctx context.Context, accountID uuid.UUID, now time.Time) (*access.Promotion, error) {
	var (
		p       access.Promotion
		maxUses *int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT campaign_name, starts_at, ends_at, uses, max_uses
		FROM promotions
		WHERE account_id = $1 AND starts_at <= $2
		ORDER BY (ends_at > $2) DESC, ends_at DESC, starts_at DESC
		LIMIT 1
	`, accountID, now).Scan(&p.CampaignName, &p.StartsAt, &p.EndsAt, &p.Uses, &maxUses)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, access.ErrPromotionNotFound
		}
		return nil, fmt.Errorf("getting promotion: %w", err)
	}
	p.MaxUses = plans.Unlimited()
	if maxUses != nil {
		p.MaxUses = plans.Limited(*maxUses)
	}
	return &p, nil
}

// GrantPromotion records a promotional window for the account.
func (r *PromotionRepo) GrantPromotion(ctx context.Context, accountID uuid.UUID, p access.Promotion) error {
	var maxUses *int64
	if n, ok := p.MaxUses.Max(); ok {
		maxUses = &n
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO promotions (id, account_id, campaign_name, starts_at, ends_at, uses, max_uses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), accountID, p.CampaignName, p.StartsAt, p.EndsAt, p.Uses, maxUses, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("granting promotion: %w", err)
	}
	return nil
}
