// Package payments applies billing provider notifications to local payment
// records and to the owning account's subscription window.
//
// Every notification is an upsert keyed on the provider's payment id, so a
// replayed delivery converges to the same row. Notifications older than the
// last one applied to a payment are recorded as stale and change nothing.
//
// Dispatch only fails for malformed notifications. Resolution and storage
// failures are logged and reported in the Result, because the provider keeps
// retrying any delivery that does not get a 2xx answer.
package payments
