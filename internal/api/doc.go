// Package api exposes the plan catalog, access checks, listing writes,
// billing operations and the billing provider's webhook over HTTP.
//
// Authentication is handled upstream; account ids in paths are trusted. The
// webhook endpoint is the exception and may require the provider's
// asaas-access-token header.
package api
