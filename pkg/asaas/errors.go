package asaas

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingAPIKey     = errors.New("asaas: api key is required")
	ErrNotFound          = errors.New("asaas: resource not found")
	ErrUnauthorized      = errors.New("asaas: unauthorized")
	ErrRateLimited       = errors.New("asaas: rate limited")
	ErrProviderDown      = errors.New("asaas: provider unavailable")
	ErrInvalidResponse   = errors.New("asaas: invalid response")
	ErrMissingIdentifier = errors.New("asaas: identifier is required")
)

// ErrorItem is one entry of the provider's error list.
type ErrorItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int         `json:"-"`
	Errors     []ErrorItem `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("asaas: http %d", e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, item.Code+": "+item.Description)
	}
	return fmt.Sprintf("asaas: http %d: %s", e.StatusCode, strings.Join(parts, "; "))
}

// Unwrap maps status codes to the package sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 404:
		return ErrNotFound
	case e.StatusCode == 401 || e.StatusCode == 403:
		return ErrUnauthorized
	case e.StatusCode == 429:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrProviderDown
	}
	return nil
}

func (e *APIError) retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
