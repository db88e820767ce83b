// Package asaas is a small client for the Asaas v3 billing API: customers,
// one-off charges, subscriptions, PIX QR codes and webhook registration.
//
// Requests carry the account key in the access_token header, are throttled
// with a token bucket and bounded by a per-call timeout. Only GET requests
// are retried, on 429 and 5xx responses, with exponential backoff.
//
//	client, err := asaas.New(cfg)
//	cust, err := client.FindCustomerByDocument(ctx, "123.456.789-09")
//	if errors.Is(err, asaas.ErrNotFound) {
//		cust, err = client.CreateCustomer(ctx, asaas.Customer{Name: name, CpfCnpj: doc})
//	}
//
// Non-2xx responses are returned as *APIError, which unwraps to ErrNotFound,
// ErrUnauthorized, ErrRateLimited or ErrProviderDown by status code.
package asaas
