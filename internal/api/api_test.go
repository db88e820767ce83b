package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/autovitrine/marketplace/internal/api"
	"github.com/autovitrine/marketplace/internal/listing"
	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/asaas"
	"github.com/autovitrine/marketplace/pkg/logger"
	"github.com/autovitrine/marketplace/pkg/metrics"
	"github.com/autovitrine/marketplace/pkg/payments"
	"github.com/autovitrine/marketplace/pkg/plans"
	"github.com/autovitrine/marketplace/pkg/qrcode"
	"github.com/autovitrine/marketplace/pkg/usage"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeEvaluator struct {
	decision    access.Decision
	entitlement access.Entitlement
	plan        plans.PlanID
}

func (f *fakeEvaluator) Catalog() *plans.Catalog { return plans.DefaultCatalog() }

func (f *fakeEvaluator) PlanFor(context.Context, uuid.UUID) plans.Plan {
	return plans.DefaultCatalog().Lookup(f.plan)
}

func (f *fakeEvaluator) CanUse(_ context.Context, _ uuid.UUID, res plans.Resource) access.Decision {
	d := f.decision
	d.Resource = res
	return d
}

func (f *fakeEvaluator) EvaluateEntitlement(context.Context, uuid.UUID) access.Entitlement {
	return f.entitlement
}

type fakeUsage struct{ snap usage.Snapshot }

func (f fakeUsage) Snapshot(context.Context, uuid.UUID, ...plans.Resource) usage.Snapshot { return f.snap }

type mockListings struct{ mock.Mock }

func (m *mockListings) CreateVehicle(ctx context.Context, owner uuid.UUID, in listing.VehicleInput) (*listing.Vehicle, error) {
	args := m.Called(ctx, owner, in)
	v, _ := args.Get(0).(*listing.Vehicle)
	return v, args.Error(1)
}

func (m *mockListings) FeatureVehicle(ctx context.Context, owner, id uuid.UUID) (*listing.Vehicle, error) {
	args := m.Called(ctx, owner, id)
	v, _ := args.Get(0).(*listing.Vehicle)
	return v, args.Error(1)
}

func (m *mockListings) RecordExternalCall(ctx context.Context, owner uuid.UUID) (int64, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(int64), args.Error(1)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, n payments.Notification) (payments.Result, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(payments.Result), args.Error(1)
}

type fakeSubscriptions struct {
	sub *access.Subscription
}

func (f fakeSubscriptions) CurrentSubscription(context.Context, uuid.UUID) (*access.Subscription, error) {
	if f.sub == nil {
		return nil, access.ErrSubscriptionNotFound
	}
	return f.sub, nil
}

type fakePayments struct{ list []payments.Payment }

func (f fakePayments) ListByAccount(context.Context, uuid.UUID, int) ([]payments.Payment, error) {
	return f.list, nil
}

type fakeAccounts struct {
	accounts map[uuid.UUID]*access.Account
	linked   map[uuid.UUID]string
}

func (f *fakeAccounts) GetAccount(_ context.Context, id uuid.UUID) (*access.Account, error) {
	acc, ok := f.accounts[id]
	if !ok {
		return nil, access.ErrAccountNotFound
	}
	return acc, nil
}

func (f *fakeAccounts) SetProviderCustomerID(_ context.Context, id uuid.UUID, customerID string) error {
	if f.linked == nil {
		f.linked = map[uuid.UUID]string{}
	}
	f.linked[id] = customerID
	return nil
}

type mockBilling struct{ mock.Mock }

func (m *mockBilling) FindCustomerByDocument(ctx context.Context, doc string) (*asaas.Customer, error) {
	args := m.Called(ctx, doc)
	c, _ := args.Get(0).(*asaas.Customer)
	return c, args.Error(1)
}

func (m *mockBilling) CreateCustomer(ctx context.Context, in asaas.Customer) (*asaas.Customer, error) {
	args := m.Called(ctx, in)
	c, _ := args.Get(0).(*asaas.Customer)
	return c, args.Error(1)
}

func (m *mockBilling) CreatePayment(ctx context.Context, in asaas.PaymentRequest) (*asaas.Payment, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(*asaas.Payment)
	return p, args.Error(1)
}

func (m *mockBilling) PixQRCode(ctx context.Context, id string) (*asaas.PixQRCode, error) {
	args := m.Called(ctx, id)
	q, _ := args.Get(0).(*asaas.PixQRCode)
	return q, args.Error(1)
}

type env struct {
	deps       api.Deps
	evaluator  *fakeEvaluator
	listings   *mockListings
	dispatcher *mockDispatcher
	accounts   *fakeAccounts
	billing    *mockBilling
	metrics    *metrics.Metrics
}

func newEnv() *env {
	e := &env{
		evaluator:  &fakeEvaluator{plan: plans.PlanBasic},
		listings:   &mockListings{},
		dispatcher: &mockDispatcher{},
		accounts:   &fakeAccounts{accounts: map[uuid.UUID]*access.Account{}},
		billing:    &mockBilling{},
		metrics:    metrics.New(),
	}
	e.deps = api.Deps{
		Evaluator:     e.evaluator,
		Usage:         fakeUsage{},
		Listings:      e.listings,
		Dispatcher:    e.dispatcher,
		Subscriptions: fakeSubscriptions{},
		Payments:      fakePayments{},
		Accounts:      e.accounts,
		Billing:       e.billing,
	}
	return e
}

func (e *env) handler(opts ...api.Option) http.Handler {
	opts = append([]api.Option{
		api.WithLogger(logger.Discard()),
		api.WithMetrics(e.metrics),
		api.WithClock(func() time.Time { return now }),
	}, opts...)
	return api.New(e.deps, opts...)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestWebhookRejectsMalformedNotifications(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid json", `{"event":`, "invalid_json"},
		{"missing event", `{"payment":{"id":"pay_1"}}`, "invalid_notification"},
		{"missing payment", `{"event":"PAYMENT_RECEIVED"}`, "invalid_notification"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv()
			rec, body := do(t, e.handler(), http.MethodPost, "/webhooks/billing", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
			e.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
		})
	}
}

func TestWebhookPaymentWithoutID(t *testing.T) {
	t.Parallel()

	e := newEnv()
	e.dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(n payments.Notification) bool {
		return n.Event == payments.EventReceived
	})).Return(payments.Result{Event: payments.EventReceived}, payments.ErrMissingPaymentID)
	e.dispatcher.On("Dispatch", mock.Anything, mock.Anything).
		Return(payments.Result{Outcome: payments.OutcomeUnknownEvent}, nil)
	h := e.handler()

	rec, body := do(t, h, http.MethodPost, "/webhooks/billing", `{"event":"PAYMENT_RECEIVED","payment":{"customer":"cus_1"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, "invalid_notification", body.Error.Code)

	rec, _ = do(t, h, http.MethodPost, "/webhooks/billing", `{"event":"PAYMENT_SPLIT_CANCELLED","payment":{}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())
}

func TestWebhookAcknowledgesNotification(t *testing.T) {
	t.Parallel()

	e := newEnv()
	accountID := uuid.New()
	e.dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(n payments.Notification) bool {
		return n.Event == payments.EventReceived && n.Payment.ID == "pay_1" &&
			n.OccurredAt.Equal(time.Date(2026, 5, 10, 12, 30, 0, 0, time.UTC))
	})).Return(payments.Result{Event: payments.EventReceived, Outcome: payments.OutcomeApplied, AccountID: &accountID}, nil).Once()
	e.dispatcher.On("Dispatch", mock.Anything, mock.Anything).
		Return(payments.Result{Outcome: payments.OutcomeUnknownEvent}, nil)

	h := e.handler()
	rec, _ := do(t, h, http.MethodPost, "/webhooks/billing",
		`{"event":"PAYMENT_RECEIVED","dateCreated":"2026-05-10 09:30:00","payment":{"id":"pay_1","customer":"cus_1","value":49.9,"status":"RECEIVED","externalReference":"`+accountID.String()+`"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	rec, _ = do(t, h, http.MethodPost, "/webhooks/billing", `{"event":"PAYMENT_SPLIT_CANCELLED","payment":{"id":"pay_2"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	e.dispatcher.AssertNumberOfCalls(t, "Dispatch", 2)
	n, err := testutil.GatherAndCount(e.metrics.Registry(), "marketplace_webhook_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWebhookToken(t *testing.T) {
	t.Parallel()

	e := newEnv()
	e.dispatcher.On("Dispatch", mock.Anything, mock.Anything).
		Return(payments.Result{Outcome: payments.OutcomeApplied}, nil)
	h := e.handler(api.WithWebhookToken("s3cret"))
	body := `{"event":"PAYMENT_CREATED","payment":{"id":"pay_1"}}`

	rec, env := do(t, h, http.MethodPost, "/webhooks/billing", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", env.Error.Code)

	rec, _ = do(t, h, http.MethodPost, "/webhooks/billing", body, api.WebhookTokenHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/webhooks/billing", body, api.WebhookTokenHeader, "s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
	e.dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestPlans(t *testing.T) {
	t.Parallel()
	h := newEnv().handler()

	rec, env := do(t, h, http.MethodGet, "/v1/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []plans.Plan
	require.NoError(t, json.Unmarshal(env.Data, &list))
	for _, p := range list {
		assert.True(t, p.Public, p.ID)
	}
	assert.Equal(t, plans.PlanFree, list[0].ID)
	assert.EqualValues(t, 1, env.Meta["version"])

	rec, env = do(t, h, http.MethodGet, "/v1/plans?all=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, len(plans.KnownPlans))

	rec, env = do(t, h, http.MethodGet, "/v1/plans/premium_plus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p plans.Plan
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.True(t, p.Limit(plans.ResourceVehicles).IsUnlimited())

	rec, env = do(t, h, http.MethodGet, "/v1/plans/platinum", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "plan_not_found", env.Error.Code)
}

func TestLimitsAndEntitlement(t *testing.T) {
	t.Parallel()

	e := newEnv()
	e.evaluator.decision = access.Decision{
		Code: access.CodeLimitReached, Known: true, PlanID: plans.PlanBasic,
		Current: 15, Max: plans.Limited(15), Reason: "Plan Básico allows up to 15 vehicles",
	}
	e.evaluator.entitlement = access.Entitlement{Permitted: true, Kind: access.KindTrial, DaysRemaining: 3}
	h := e.handler()
	id := uuid.NewString()

	rec, env := do(t, h, http.MethodGet, "/v1/accounts/"+id+"/limits/vehicles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var d access.Decision
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.False(t, d.Permitted)
	assert.Equal(t, plans.ResourceVehicles, d.Resource)
	assert.Equal(t, plans.Limited(15), d.Max)

	rec, env = do(t, h, http.MethodGet, "/v1/accounts/"+id+"/limits/boats", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_resource", env.Error.Code)

	rec, env = do(t, h, http.MethodGet, "/v1/accounts/not-a-uuid/limits/vehicles", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", env.Error.Code)

	rec, env = do(t, h, http.MethodGet, "/v1/accounts/"+id+"/entitlement", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ent access.Entitlement
	require.NoError(t, json.Unmarshal(env.Data, &ent))
	assert.Equal(t, access.KindTrial, ent.Kind)
	assert.Equal(t, 3, ent.DaysRemaining)

	n, err := testutil.GatherAndCount(e.metrics.Registry(), "marketplace_access_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUsageReportsUnavailableCounts(t *testing.T) {
	t.Parallel()

	e := newEnv()
	e.deps.Usage = fakeUsage{snap: usage.Snapshot{
		TakenAt: now,
		Counts:  map[plans.Resource]int64{plans.ResourceVehicles: 4, plans.ResourceFeaturedVehicles: 1},
		Failed:  map[plans.Resource]error{plans.ResourceStorageMB: usage.ErrCountUnavailable},
	}}
	rec, env := do(t, e.handler(), http.MethodGet, "/v1/accounts/"+uuid.NewString()+"/usage", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []struct {
		Resource  plans.Resource `json:"resource"`
		Used      *int64         `json:"used"`
		Remaining *int64         `json:"remaining"`
		Available bool           `json:"available"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	byRes := map[plans.Resource]int{}
	for i, it := range items {
		byRes[it.Resource] = i
	}

	vehicles := items[byRes[plans.ResourceVehicles]]
	require.NotNil(t, vehicles.Used)
	assert.Equal(t, int64(4), *vehicles.Used)
	require.NotNil(t, vehicles.Remaining)
	assert.Equal(t, int64(11), *vehicles.Remaining)

	storage := items[byRes[plans.ResourceStorageMB]]
	assert.False(t, storage.Available)
	assert.Nil(t, storage.Used)
}

func TestCreateVehicle(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	in := listing.VehicleInput{Title: "HB20 Sense", Make: "Hyundai", Model: "HB20", Year: 2023, Price: 8290000}
	body, _ := json.Marshal(in)

	t.Run("created", func(t *testing.T) {
		t.Parallel()
		e := newEnv()
		e.listings.On("CreateVehicle", mock.Anything, owner, in).
			Return(&listing.Vehicle{ID: uuid.New(), AccountID: owner, Title: in.Title, Status: listing.VehicleActive}, nil)

		rec, env := do(t, e.handler(), http.MethodPost, "/v1/accounts/"+owner.String()+"/vehicles", string(body))
		require.Equal(t, http.StatusCreated, rec.Code)
		var v listing.Vehicle
		require.NoError(t, json.Unmarshal(env.Data, &v))
		assert.Equal(t, in.Title, v.Title)
	})

	t.Run("limit reached", func(t *testing.T) {
		t.Parallel()
		e := newEnv()
		e.listings.On("CreateVehicle", mock.Anything, owner, in).Return(nil, &listing.LimitError{Decision: access.Decision{
			Code: access.CodeLimitReached, Known: true, Resource: plans.ResourceVehicles,
			Current: 3, Max: plans.Limited(3), Reason: "Plan Gratuito allows up to 3 vehicles",
		}})

		rec, env := do(t, e.handler(), http.MethodPost, "/v1/accounts/"+owner.String()+"/vehicles", string(body))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "limit_exceeded", env.Error.Code)
		assert.Equal(t, "Plan Gratuito allows up to 3 vehicles", env.Error.Message)
		assert.Contains(t, env.Meta, "decision")
	})

	t.Run("usage unavailable", func(t *testing.T) {
		t.Parallel()
		e := newEnv()
		e.listings.On("CreateVehicle", mock.Anything, owner, in).Return(nil, listing.ErrUsageUnavailable)

		rec, env := do(t, e.handler(), http.MethodPost, "/v1/accounts/"+owner.String()+"/vehicles", string(body))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "usage_unavailable", env.Error.Code)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		e := newEnv()
		bad := listing.VehicleInput{Make: "Fiat", Model: "Uno", Year: 2010}
		e.listings.On("CreateVehicle", mock.Anything, owner, bad).
			Return(nil, listing.ValidateVehicle(bad, now))

		raw, _ := json.Marshal(bad)
		rec, env := do(t, e.handler(), http.MethodPost, "/v1/accounts/"+owner.String()+"/vehicles", string(raw))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", env.Error.Code)
		assert.Contains(t, env.Error.Details, "title")
		assert.Contains(t, env.Error.Details, "price")
	})
}

func TestFeatureVehicleConflict(t *testing.T) {
	t.Parallel()

	e := newEnv()
	owner, vid := uuid.New(), uuid.New()
	e.listings.On("FeatureVehicle", mock.Anything, owner, vid).Return(nil, listing.ErrAlreadyFeatured)

	rec, env := do(t, e.handler(), http.MethodPost, "/v1/accounts/"+owner.String()+"/vehicles/"+vid.String()+"/feature", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_featured", env.Error.Code)
}

func TestSubscription(t *testing.T) {
	t.Parallel()

	e := newEnv()
	id := uuid.New()
	h := e.handler()
	rec, env := do(t, h, http.MethodGet, "/v1/accounts/"+id.String()+"/subscription", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "subscription_not_found", env.Error.Code)

	ends := now.AddDate(0, 1, 0)
	e.deps.Subscriptions = fakeSubscriptions{sub: &access.Subscription{
		AccountID: id, PlanID: plans.PlanPremium, Status: access.StatusActive, EndsAt: &ends,
	}}
	rec, env = do(t, e.handler(), http.MethodGet, "/v1/accounts/"+id.String()+"/subscription", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"status":"active"`)
}

func TestCreateCustomer(t *testing.T) {
	t.Parallel()

	t.Run("invalid document never reaches the provider", func(t *testing.T) {
		t.Parallel()
		e := newEnv()
		rec, env := do(t, e.handler(), http.MethodPost, "/v1/billing/customers",
			`{"account_id":"`+uuid.NewString()+`","name":"Loja","cpf_cnpj":"111.111.111-11","mobile_phone":"1234"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, env.Error.Details, "cpf_cnpj")
		assert.Contains(t, env.Error.Details, "mobile_phone")
		e.billing.AssertNotCalled(t, "FindCustomerByDocument", mock.Anything, mock.Anything)
	})

	t.Run("creates and links", func(t *testing.T) {
		t.Parallel()
		e := newEnv()
		id := uuid.New()
		e.accounts.accounts[id] = &access.Account{ID: id}
		e.billing.On("FindCustomerByDocument", mock.Anything, "529.982.247-25").Return(nil, asaas.ErrNotFound)
		e.billing.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(c asaas.Customer) bool {
			return c.ExternalReference == id.String() && c.Name == "Revenda Boa Viagem"
		})).Return(&asaas.Customer{ID: "cus_9"}, nil)

		rec, env := do(t, e.handler(), http.MethodPost, "/v1/billing/customers",
			`{"account_id":"`+id.String()+`","name":" Revenda Boa Viagem ","cpf_cnpj":"529.982.247-25","email":"contato@boaviagem.com.br"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, string(env.Data), `"customer_id":"cus_9"`)
		assert.Equal(t, "cus_9", e.accounts.linked[id])
	})

	t.Run("reuses existing provider customer", func(t *testing.T) {
		t.Parallel()
		e := newEnv()
		id := uuid.New()
		e.accounts.accounts[id] = &access.Account{ID: id}
		e.billing.On("FindCustomerByDocument", mock.Anything, "11222333000181").Return(&asaas.Customer{ID: "cus_old"}, nil)

		rec, _ := do(t, e.handler(), http.MethodPost, "/v1/billing/customers",
			`{"account_id":"`+id.String()+`","name":"Grupo Sul","cpf_cnpj":"11222333000181"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cus_old", e.accounts.linked[id])
		e.billing.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
	})

	t.Run("billing disabled", func(t *testing.T) {
		t.Parallel()
		e := newEnv()
		e.deps.Billing = nil
		rec, env := do(t, e.handler(), http.MethodPost, "/v1/billing/customers",
			`{"account_id":"`+uuid.NewString()+`","name":"Loja","cpf_cnpj":"52998224725"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "billing_unavailable", env.Error.Code)
	})
}

func TestCreatePayment(t *testing.T) {
	t.Parallel()

	e := newEnv()
	linked, unlinked := uuid.New(), uuid.New()
	customer := "cus_1"
	e.accounts.accounts[linked] = &access.Account{ID: linked, ProviderCustomerID: &customer}
	e.accounts.accounts[unlinked] = &access.Account{ID: unlinked}
	e.billing.On("CreatePayment", mock.Anything, mock.MatchedBy(func(in asaas.PaymentRequest) bool {
		return in.Customer == customer && in.ExternalReference == linked.String() && in.Value == 49.9
	})).Return(&asaas.Payment{ID: "pay_1", Status: "PENDING", Value: 49.9, BillingType: asaas.BillingPix,
		DueDate: asaas.NewDate(now.AddDate(0, 0, 3))}, nil)
	h := e.handler()

	rec, env := do(t, h, http.MethodPost, "/v1/billing/payments",
		`{"account_id":"`+linked.String()+`","amount":4990,"billing_type":"PIX","due_date":"2026-05-13"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, string(env.Data), `"amount":4990`)
	assert.Contains(t, string(env.Data), `"due_date":"2026-05-13"`)

	rec, env = do(t, h, http.MethodPost, "/v1/billing/payments",
		`{"account_id":"`+unlinked.String()+`","amount":4990,"billing_type":"PIX","due_date":"2026-05-13"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "customer_missing", env.Error.Code)

	rec, env = do(t, h, http.MethodPost, "/v1/billing/payments",
		`{"account_id":"`+linked.String()+`","amount":0,"billing_type":"CASH","due_date":"2026-05-01"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.ElementsMatch(t, []string{"amount", "billing_type", "due_date"}, keys(env.Error.Details))
	e.billing.AssertNumberOfCalls(t, "CreatePayment", 1)
}

func TestPaymentPix(t *testing.T) {
	t.Parallel()

	body := "000201" + "26580014br.gov.bcb.pix0136123e4567-e12b-12d1-a456-426655440000" +
		"52040000" + "5303986" + "540549.90" + "5802BR" + "5912AUTO VITRINE" + "6009SAO PAULO" +
		"62070503***" + "6304"
	payload := body + qrcode.PixCRC(body)

	e := newEnv()
	e.billing.On("PixQRCode", mock.Anything, "pay_ok").Return(&asaas.PixQRCode{Payload: payload}, nil)
	e.billing.On("PixQRCode", mock.Anything, "pay_bad").Return(&asaas.PixQRCode{Payload: body + "0000"}, nil)
	e.billing.On("PixQRCode", mock.Anything, "pay_gone").Return(nil, &asaas.APIError{StatusCode: http.StatusNotFound})
	h := e.handler()

	rec, env := do(t, h, http.MethodGet, "/v1/billing/payments/pay_ok/pix?size=128", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"image":"data:image/png;base64,`)

	rec, env = do(t, h, http.MethodGet, "/v1/billing/payments/pay_bad/pix", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "invalid_pix_payload", env.Error.Code)

	rec, env = do(t, h, http.MethodGet, "/v1/billing/payments/pay_gone/pix", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "provider_not_found", env.Error.Code)
}

func TestPanicsBecomeGenericErrors(t *testing.T) {
	t.Parallel()

	e := newEnv()
	owner := uuid.New()
	e.listings.On("RecordExternalCall", mock.Anything, owner).Run(func(mock.Arguments) {
		panic("database exploded: password=hunter2")
	})

	rec, env := do(t, e.handler(), http.MethodPost, "/v1/accounts/"+owner.String()+"/external-calls", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", env.Error.Code)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()
	h := newEnv().handler()

	rec, _ := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, _ = do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, http.MethodGet, "/v2/nothing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
