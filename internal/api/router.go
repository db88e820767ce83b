package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/autovitrine/marketplace/internal/listing"
	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/asaas"
	"github.com/autovitrine/marketplace/pkg/httpserver"
	"github.com/autovitrine/marketplace/pkg/logger"
	"github.com/autovitrine/marketplace/pkg/metrics"
	"github.com/autovitrine/marketplace/pkg/payments"
	"github.com/autovitrine/marketplace/pkg/plans"
	"github.com/autovitrine/marketplace/pkg/requestid"
	"github.com/autovitrine/marketplace/pkg/usage"
)

// Evaluator answers plan, capacity and entitlement questions.
type Evaluator interface {
	Catalog() *plans.Catalog
	PlanFor(ctx context.Context, ownerID uuid.UUID) plans.Plan
	CanUse(ctx context.Context, ownerID uuid.UUID, res plans.Resource) access.Decision
	EvaluateEntitlement(ctx context.Context, accountID uuid.UUID) access.Entitlement
}

type UsageReader interface {
	Snapshot(ctx context.Context, ownerID uuid.UUID, resources ...plans.Resource) usage.Snapshot
}

type Listings interface {
	CreateVehicle(ctx context.Context, ownerID uuid.UUID, in listing.VehicleInput) (*listing.Vehicle, error)
	FeatureVehicle(ctx context.Context, ownerID, vehicleID uuid.UUID) (*listing.Vehicle, error)
	RecordExternalCall(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, n payments.Notification) (payments.Result, error)
}

type PaymentLister interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]payments.Payment, error)
}

// Accounts reads accounts and links them to billing customers.
type Accounts interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*access.Account, error)
	SetProviderCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}

// Billing is the subset of the provider client the API calls.
type Billing interface {
	FindCustomerByDocument(ctx context.Context, cpfCnpj string) (*asaas.Customer, error)
	CreateCustomer(ctx context.Context, in asaas.Customer) (*asaas.Customer, error)
	CreatePayment(ctx context.Context, in asaas.PaymentRequest) (*asaas.Payment, error)
	PixQRCode(ctx context.Context, paymentID string) (*asaas.PixQRCode, error)
}

// Deps are the services behind the routes. Billing may be nil, in which case
// the billing routes answer 503.
type Deps struct {
	Evaluator     Evaluator
	Usage         UsageReader
	Listings      Listings
	Dispatcher    Dispatcher
	Subscriptions access.SubscriptionReader
	Payments      PaymentLister
	Accounts      Accounts
	Billing       Billing
}

type Option func(*Router)

func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics enables request and domain metrics and mounts /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithCORSOrigins allows browser calls from origins.
func WithCORSOrigins(origins ...string) Option {
	return func(r *Router) { r.corsOrigins = origins }
}

// WithWebhookToken makes the webhook endpoint require token in the
// asaas-access-token header.
func WithWebhookToken(token string) Option {
	return func(r *Router) { r.webhookToken = token }
}

// WithReadinessChecks sets the dependencies probed by /readyz.
func WithReadinessChecks(checks ...httpserver.Check) Option {
	return func(r *Router) { r.checks = checks }
}

func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// Router holds the handlers' dependencies.
type Router struct {
	deps         Deps
	log          *slog.Logger
	metrics      *metrics.Metrics
	corsOrigins  []string
	webhookToken string
	checks       []httpserver.Check
	now          func() time.Time
}

// New builds the HTTP handler. It panics if a required dependency is nil.
func New(deps Deps, opts ...Option) http.Handler {
	switch {
	case deps.Evaluator == nil:
		panic("api: evaluator is required")
	case deps.Usage == nil:
		panic("api: usage reader is required")
	case deps.Listings == nil:
		panic("api: listings service is required")
	case deps.Dispatcher == nil:
		panic("api: payment dispatcher is required")
	case deps.Subscriptions == nil:
		panic("api: subscription reader is required")
	case deps.Payments == nil:
		panic("api: payment lister is required")
	case deps.Accounts == nil:
		panic("api: accounts store is required")
	}

	rt := &Router{deps: deps, log: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(rt)
	}
	rt.log = rt.log.With(logger.Component("api"))
	return rt.routes()
}

func (rt *Router) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(rt.recoverer)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}
	if len(rt.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestid.Header},
			ExposedHeaders: []string{requestid.Header},
			MaxAge:         300,
		}))
	}

	r.NotFound(rt.handle(func(*http.Request) (Response, error) { return nil, errNotFound }))
	r.MethodNotAllowed(rt.handle(func(*http.Request) (Response, error) { return nil, errMethodNotAllowed }))

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(rt.log, 2*time.Second, rt.checks...))
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Post("/webhooks/billing", rt.handle(rt.billingWebhook))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/plans", rt.handle(rt.listPlans))
		r.Get("/plans/{planID}", rt.handle(rt.getPlan))

		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Get("/entitlement", rt.handle(rt.entitlement))
			r.Get("/limits/{resource}", rt.handle(rt.limit))
			r.Get("/usage", rt.handle(rt.usage))
			r.Get("/subscription", rt.handle(rt.subscription))
			r.Get("/payments", rt.handle(rt.listPayments))
			r.Post("/vehicles", rt.handle(rt.createVehicle))
			r.Post("/vehicles/{vehicleID}/feature", rt.handle(rt.featureVehicle))
			r.Post("/external-calls", rt.handle(rt.recordExternalCall))
		})

		r.Route("/billing", func(r chi.Router) {
			r.Post("/customers", rt.handle(rt.createCustomer))
			r.Post("/payments", rt.handle(rt.createPayment))
			r.Get("/payments/{paymentID}/pix", rt.handle(rt.paymentPix))
		})
	})
	return r
}

var errRecovered = errors.New("api: recovered from panic")

type handlerFunc func(r *http.Request) (Response, error)

// handle renders the response or the mapped error. Server errors are logged
// with the request context so the request id is attached.
func (rt *Router) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := fn(r)
		if err != nil {
			status, _, _ := classify(err)
			if status >= http.StatusInternalServerError {
				rt.log.ErrorContext(r.Context(), "request failed",
					slog.String("method", r.Method), slog.String("path", r.URL.Path), logger.Error(err))
			} else {
				rt.log.DebugContext(r.Context(), "request rejected",
					slog.String("path", r.URL.Path), slog.Int("status", status), logger.Error(err))
			}
			resp = JSONError(err)
		}
		if err := resp.Render(w); err != nil {
			rt.log.WarnContext(r.Context(), "failed to write response", logger.Error(err))
		}
	}
}

// recoverer turns a panic into a generic 500.
func (rt *Router) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			rt.log.ErrorContext(r.Context(), "panic while serving request",
				slog.String("path", r.URL.Path), slog.Any("panic", rec))
			_ = JSONError(errRecovered).Render(w)
		}()
		next.ServeHTTP(w, r)
	})
}
