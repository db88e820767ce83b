package plans

import (
	"slices"
	"time"
)

// Plan describes a tier and the resource and feature constraints it grants.
type Plan struct {
	ID          PlanID             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description"`
	Limits      map[Resource]Limit `json:"limits" yaml:"limits"`
	Features    []Feature          `json:"features" yaml:"features"`
	Public      bool               `json:"public" yaml:"public"`
	TrialDays   int                `json:"trial_days" yaml:"trial_days"`
	Price       Money              `json:"price" yaml:"price"`
	Interval    Interval           `json:"interval" yaml:"interval"`
}

// Limit returns the plan's cap for res. Resources the plan does not mention
// are capped at zero.
func (p Plan) Limit(res Resource) Limit {
	if l, ok := p.Limits[res]; ok {
		return l
	}
	return Limited(0)
}

func (p Plan) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

// IsPrivileged reports whether the plan grants access on its own.
func (p Plan) IsPrivileged() bool {
	return IsPrivileged(p.ID)
}

// TrialEndsAt returns when a trial started at startedAt ends.
// Returns startedAt unchanged if the plan has no trial.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}

func (p Plan) clone() Plan {
	c := p
	c.Limits = make(map[Resource]Limit, len(p.Limits))
	for k, v := range p.Limits {
		c.Limits[k] = v
	}
	c.Features = slices.Clone(p.Features)
	return c
}

// PlanComparison contains the differences between two plans.
type PlanComparison struct {
	NewFeatures     []Feature
	LostFeatures    []Feature
	IncreasedLimits map[Resource]LimitChange
	DecreasedLimits map[Resource]LimitChange
}

// LimitChange represents a change in resource limit.
type LimitChange struct {
	From Limit
	To   Limit
}

// HasLimitDecreases returns true if any resource is capped lower on the target.
func (c *PlanComparison) HasLimitDecreases() bool {
	return len(c.DecreasedLimits) > 0
}

// ComparePlans returns the differences between current and target plans.
func ComparePlans(current, target Plan) *PlanComparison {
	cmp := &PlanComparison{
		NewFeatures:     make([]Feature, 0),
		LostFeatures:    make([]Feature, 0),
		IncreasedLimits: make(map[Resource]LimitChange),
		DecreasedLimits: make(map[Resource]LimitChange),
	}

	for _, f := range target.Features {
		if !current.HasFeature(f) {
			cmp.NewFeatures = append(cmp.NewFeatures, f)
		}
	}
	for _, f := range current.Features {
		if !target.HasFeature(f) {
			cmp.LostFeatures = append(cmp.LostFeatures, f)
		}
	}

	for _, res := range Resources {
		from, to := current.Limit(res), target.Limit(res)
		switch {
		case from.Less(to):
			cmp.IncreasedLimits[res] = LimitChange{From: from, To: to}
		case to.Less(from):
			cmp.DecreasedLimits[res] = LimitChange{From: from, To: to}
		}
	}

	return cmp
}
