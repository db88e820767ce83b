// Package access decides whether an owner may add listings and whether an
// account is entitled to paid features.
//
// Capacity checks (CanAddResource, CanFeatureResource, CanUse) compare the
// owner's current usage with the cap of the owner's plan and return a
// Decision with the numbers and a readable reason. They are advisory: the
// write path must re-check the limit inside its own transaction.
//
// EvaluateEntitlement applies, in order: an active trial window, an active
// promotional window with uses left, the unlimited flag or a privileged plan,
// and finally the paid subscription record, which may also grant access
// during the grace period of a pending payment. Each denial carries a
// distinct Denial code.
package access
