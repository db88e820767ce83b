package plans

// PlanID identifies a plan tier.
type PlanID string

const (
	PlanFree        PlanID = "gratuito"
	PlanBasic       PlanID = "basico"
	PlanPremium     PlanID = "premium"
	PlanPremiumPlus PlanID = "premium_plus"
	PlanEnterprise  PlanID = "empresarial"
	PlanUnlimited   PlanID = "ilimitado"
)

// KnownPlans is the closed set of plan identifiers, cheapest first.
var KnownPlans = []PlanID{
	PlanFree,
	PlanBasic,
	PlanPremium,
	PlanPremiumPlus,
	PlanEnterprise,
	PlanUnlimited,
}

// PrivilegedPlans grant access without an active paid subscription.
var PrivilegedPlans = []PlanID{PlanUnlimited, PlanPremiumPlus, PlanEnterprise}

// IsPrivileged reports whether id belongs to PrivilegedPlans.
func IsPrivileged(id PlanID) bool {
	for _, p := range PrivilegedPlans {
		if p == id {
			return true
		}
	}
	return false
}

// IsKnownPlan reports whether id belongs to the closed plan set.
func IsKnownPlan(id PlanID) bool {
	for _, p := range KnownPlans {
		if p == id {
			return true
		}
	}
	return false
}

// Resource represents a countable owner resource.
type Resource string

const (
	ResourceVehicles         Resource = "vehicles"
	ResourceFeaturedVehicles Resource = "featured_vehicles"
	ResourceStorageMB        Resource = "storage_mb"
	ResourceExternalCalls    Resource = "external_calls_monthly"
)

// Resources lists every resource a plan may limit.
var Resources = []Resource{
	ResourceVehicles,
	ResourceFeaturedVehicles,
	ResourceStorageMB,
	ResourceExternalCalls,
}

// Feature represents a plan capability that is either on or off.
type Feature string

const (
	FeatureReports            Feature = "reports"
	FeatureAgencyPage         Feature = "agency_page"
	FeatureAnalytics          Feature = "analytics"
	FeatureWhatsAppContact    Feature = "whatsapp_contact"
	FeatureFinancingSimulator Feature = "financing_simulator"
	FeatureCustomDomain       Feature = "custom_domain"
	FeaturePrioritySupport    Feature = "priority_support"
)

// Money is an amount in centavos.
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// Interval is the billing period advertised for a plan.
type Interval string

const (
	IntervalNone       Interval = "none"
	IntervalMonthly    Interval = "monthly"
	IntervalQuarterly  Interval = "quarterly"
	IntervalSemiannual Interval = "semiannual"
	IntervalYearly     Interval = "yearly"
)
