package api

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/autovitrine/marketplace/internal/listing"
	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/payments"
	"github.com/autovitrine/marketplace/pkg/plans"
)

func (rt *Router) listPlans(r *http.Request) (Response, error) {
	catalog := rt.deps.Evaluator.Catalog()
	all := catalog.Plans()
	if r.URL.Query().Get("all") != "true" {
		all = slices.DeleteFunc(all, func(p plans.Plan) bool { return !p.Public })
	}
	return JSON(all, WithMeta(map[string]any{"version": catalog.Version(), "base": catalog.Base().ID})), nil
}

func (rt *Router) getPlan(r *http.Request) (Response, error) {
	p, ok := rt.deps.Evaluator.Catalog().Get(plans.PlanID(chi.URLParam(r, "planID")))
	if !ok {
		return nil, plans.ErrPlanNotFound
	}
	return JSON(p), nil
}

func (rt *Router) entitlement(r *http.Request) (Response, error) {
	id, err := uuidParam(r, "accountID")
	if err != nil {
		return nil, err
	}
	ent := rt.deps.Evaluator.EvaluateEntitlement(r.Context(), id)
	if rt.metrics != nil {
		rt.metrics.RecordDecision("entitlement", verdict(ent.Permitted))
	}
	return JSON(ent), nil
}

func (rt *Router) limit(r *http.Request) (Response, error) {
	id, err := uuidParam(r, "accountID")
	if err != nil {
		return nil, err
	}
	res := plans.Resource(chi.URLParam(r, "resource"))
	if !slices.Contains(plans.Resources, res) {
		return nil, errUnknownResource
	}
	d := rt.deps.Evaluator.CanUse(r.Context(), id, res)
	if rt.metrics != nil {
		rt.metrics.RecordDecision(string(res), verdict(d.Permitted))
	}
	return JSON(d), nil
}

type usageItem struct {
	Resource  plans.Resource `json:"resource"`
	Used      *int64         `json:"used"`
	Limit     plans.Limit    `json:"limit"`
	Remaining *int64         `json:"remaining,omitempty"`
	Available bool           `json:"available"`
}

// usage reports every counted resource against the owner's plan. A failed
// count is reported as unavailable, never as zero.
func (rt *Router) usage(r *http.Request) (Response, error) {
	id, err := uuidParam(r, "accountID")
	if err != nil {
		return nil, err
	}
	plan := rt.deps.Evaluator.PlanFor(r.Context(), id)
	snap := rt.deps.Usage.Snapshot(r.Context(), id)

	items := make([]usageItem, 0, len(plans.Resources))
	for _, res := range plans.Resources {
		item := usageItem{Resource: res, Limit: plan.Limit(res)}
		if n, ok := snap.Count(res); ok {
			item.Used = &n
			item.Available = true
			if rem, ok := item.Limit.Remaining(n); ok {
				item.Remaining = &rem
			}
		} else if _, failed := snap.Failed[res]; failed && rt.metrics != nil {
			rt.metrics.RecordUsageError(string(res))
		}
		items = append(items, item)
	}
	return JSON(items, WithMeta(map[string]any{"plan_id": plan.ID, "taken_at": snap.TakenAt})), nil
}

type subscriptionView struct {
	PlanID      plans.PlanID              `json:"plan_id"`
	Status      access.SubscriptionStatus `json:"status"`
	Cycle       string                    `json:"cycle"`
	StartsAt    *time.Time                `json:"starts_at,omitempty"`
	EndsAt      *time.Time                `json:"ends_at,omitempty"`
	GraceEndsAt *time.Time                `json:"grace_ends_at,omitempty"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

func (rt *Router) subscription(r *http.Request) (Response, error) {
	id, err := uuidParam(r, "accountID")
	if err != nil {
		return nil, err
	}
	sub, err := rt.deps.Subscriptions.CurrentSubscription(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return JSON(subscriptionView{
		PlanID:      sub.PlanID,
		Status:      sub.Status,
		Cycle:       sub.Cycle,
		StartsAt:    sub.StartsAt,
		EndsAt:      sub.EndsAt,
		GraceEndsAt: sub.GraceEndsAt,
		UpdatedAt:   sub.UpdatedAt,
	}), nil
}

type paymentView struct {
	ID          string             `json:"id"`
	Status      payments.Status    `json:"status"`
	Amount      int64              `json:"amount"`
	NetAmount   int64              `json:"net_amount"`
	BillingType string             `json:"billing_type"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
	PaymentDate *time.Time         `json:"payment_date,omitempty"`
	InvoiceURL  string             `json:"invoice_url,omitempty"`
	LastEvent   payments.EventName `json:"last_event"`
	LastEventAt time.Time          `json:"last_event_at"`
}

func (rt *Router) listPayments(r *http.Request) (Response, error) {
	id, err := uuidParam(r, "accountID")
	if err != nil {
		return nil, err
	}
	list, err := rt.deps.Payments.ListByAccount(r.Context(), id, intQuery(r, "limit", 50))
	if err != nil {
		return nil, err
	}
	out := make([]paymentView, 0, len(list))
	for _, p := range list {
		out = append(out, paymentView{
			ID:          p.ExternalID,
			Status:      p.Status,
			Amount:      p.Amount,
			NetAmount:   p.NetAmount,
			BillingType: p.BillingType,
			DueDate:     p.DueDate,
			PaymentDate: p.PaymentDate,
			InvoiceURL:  p.InvoiceURL,
			LastEvent:   p.LastEvent,
			LastEventAt: p.LastEventAt,
		})
	}
	return JSON(out), nil
}

func (rt *Router) createVehicle(r *http.Request) (Response, error) {
	id, err := uuidParam(r, "accountID")
	if err != nil {
		return nil, err
	}
	var in listing.VehicleInput
	if err := decodeJSON(r, &in); err != nil {
		return nil, err
	}
	v, err := rt.deps.Listings.CreateVehicle(r.Context(), id, in)
	rt.recordWrite(string(plans.ResourceVehicles), err)
	if err != nil {
		return nil, err
	}
	return JSON(v, WithStatus(http.StatusCreated)), nil
}

func (rt *Router) featureVehicle(r *http.Request) (Response, error) {
	id, err := uuidParam(r, "accountID")
	if err != nil {
		return nil, err
	}
	vehicleID, err := uuidParam(r, "vehicleID")
	if err != nil {
		return nil, err
	}
	v, err := rt.deps.Listings.FeatureVehicle(r.Context(), id, vehicleID)
	rt.recordWrite(string(plans.ResourceFeaturedVehicles), err)
	if err != nil {
		return nil, err
	}
	return JSON(v), nil
}

func (rt *Router) recordExternalCall(r *http.Request) (Response, error) {
	id, err := uuidParam(r, "accountID")
	if err != nil {
		return nil, err
	}
	n, err := rt.deps.Listings.RecordExternalCall(r.Context(), id)
	rt.recordWrite(string(plans.ResourceExternalCalls), err)
	if err != nil {
		return nil, err
	}
	return JSON(map[string]any{"account_id": id, "count": n}), nil
}

// recordWrite counts a capacity-checked write as permitted unless a plan
// limit refused it.
func (rt *Router) recordWrite(check string, err error) {
	if rt.metrics == nil {
		return
	}
	var limitErr *listing.LimitError
	switch {
	case err == nil:
		rt.metrics.RecordDecision(check, verdict(true))
	case errors.As(err, &limitErr):
		rt.metrics.RecordDecision(check, verdict(false))
	}
}
