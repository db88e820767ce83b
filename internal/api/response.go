package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/autovitrine/marketplace/internal/listing"
	"github.com/autovitrine/marketplace/pkg/access"
	"github.com/autovitrine/marketplace/pkg/asaas"
	"github.com/autovitrine/marketplace/pkg/plans"
	"github.com/autovitrine/marketplace/pkg/validator"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`
}

// Response renders itself to the client.
type Response interface {
	Render(w http.ResponseWriter) error
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type JSONOption func(*jsonResponse)

func WithStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

func WithMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		if env, ok := r.body.(Envelope); ok {
			env.Meta = meta
			r.body = env
		}
	}
}

// JSON wraps v in the envelope's data field.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: Envelope{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Raw renders v without the envelope.
func Raw(status int, v any) Response {
	return jsonResponse{status: status, body: v}
}

// HTTPError is an error with a fixed status and machine-readable code.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e HTTPError) Error() string { return e.Message }

var (
	errInvalidJSON        = HTTPError{http.StatusBadRequest, "invalid_json", "request body is not valid JSON"}
	errInvalidID          = HTTPError{http.StatusBadRequest, "invalid_id", "identifier is not a valid UUID"}
	errUnknownResource    = HTTPError{http.StatusNotFound, "unknown_resource", "unknown resource"}
	errUnauthorized       = HTTPError{http.StatusUnauthorized, "unauthorized", "invalid webhook token"}
	errBillingUnavailable = HTTPError{http.StatusServiceUnavailable, "billing_unavailable", "billing provider is not configured"}
	errNoCustomer         = HTTPError{http.StatusConflict, "customer_missing", "account has no billing customer"}
	errNotFound           = HTTPError{http.StatusNotFound, "not_found", "resource not found"}
	errMethodNotAllowed   = HTTPError{http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed"}
)

// JSONError maps err to a status and an error envelope. Unrecognized errors
// become a generic 500 so internals never reach the client.
func JSONError(err error) Response {
	status, detail, meta := classify(err)
	return jsonResponse{status: status, body: Envelope{Error: detail, Meta: meta}}
}

func classify(err error) (int, *ErrorDetail, map[string]any) {
	var (
		httpErr   HTTPError
		limitErr  *listing.LimitError
		apiErr    *asaas.APIError
		validErrs validator.ValidationErrors
	)
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status, &ErrorDetail{Code: httpErr.Code, Message: httpErr.Message}, nil
	case errors.As(err, &validErrs):
		return http.StatusBadRequest, &ErrorDetail{
			Code:    "validation_error",
			Message: "request validation failed",
			Details: validErrs.Map(),
		}, nil
	case errors.As(err, &limitErr):
		return http.StatusForbidden, &ErrorDetail{Code: "limit_exceeded", Message: limitErr.Decision.Reason},
			map[string]any{"decision": limitErr.Decision}
	case errors.Is(err, listing.ErrUsageUnavailable):
		return http.StatusServiceUnavailable, &ErrorDetail{Code: "usage_unavailable", Message: "usage could not be verified, try again shortly"}, nil
	case errors.Is(err, listing.ErrMeterUnconfigured):
		return http.StatusServiceUnavailable, &ErrorDetail{Code: "meter_unavailable", Message: "external call metering is not configured"}, nil
	case errors.Is(err, listing.ErrVehicleNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: "vehicle_not_found", Message: "vehicle not found"}, nil
	case errors.Is(err, access.ErrAccountNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: "account_not_found", Message: "account not found"}, nil
	case errors.Is(err, access.ErrSubscriptionNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: "subscription_not_found", Message: "account has no subscription"}, nil
	case errors.Is(err, plans.ErrPlanNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: "plan_not_found", Message: "plan not found"}, nil
	case errors.Is(err, listing.ErrAlreadyFeatured):
		return http.StatusConflict, &ErrorDetail{Code: "already_featured", Message: "vehicle is already featured"}, nil
	case errors.Is(err, listing.ErrVehicleInactive):
		return http.StatusConflict, &ErrorDetail{Code: "vehicle_inactive", Message: "only active vehicles can be featured"}, nil
	case errors.Is(err, asaas.ErrNotFound):
		return http.StatusNotFound, &ErrorDetail{Code: "provider_not_found", Message: "billing record not found"}, nil
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests:
		details := map[string][]string{}
		for _, item := range apiErr.Errors {
			details[item.Code] = append(details[item.Code], item.Description)
		}
		return http.StatusUnprocessableEntity, &ErrorDetail{Code: "provider_rejected", Message: "billing provider rejected the request", Details: details}, nil
	case errors.Is(err, asaas.ErrProviderDown), errors.Is(err, asaas.ErrRateLimited), errors.Is(err, asaas.ErrUnauthorized):
		return http.StatusBadGateway, &ErrorDetail{Code: "provider_unavailable", Message: "billing provider is unavailable"}, nil
	}
	return http.StatusInternalServerError, &ErrorDetail{Code: "internal_error", Message: "internal server error"}, nil
}
