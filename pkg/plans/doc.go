// Package plans defines the marketplace plan tiers and the catalog that maps
// a plan identifier to its resource limits and features.
//
// A Catalog is the only place plan limits live. It is loaded once through a
// Source (built-in defaults, a YAML file, or the versioned database table in
// internal/store) and shared by every caller that needs a limit.
//
// Limits are tagged values: Limited(n) caps a resource at n units and
// Unlimited() removes the cap. Limited(0) means nothing is allowed.
//
//	catalog := plans.DefaultCatalog()
//	plan := catalog.Lookup(plans.PlanID(row.Plan)) // unknown ids fall back to the base tier
//	if !plan.Limit(plans.ResourceVehicles).Allows(current) {
//		// deny
//	}
//
// The featured vehicles limit is always finite; NewCatalog rejects a catalog
// that declares it unlimited.
package plans
