package plans

import (
	"errors"
	"fmt"
	"slices"
)

// Catalog is the single authoritative set of plans. A Catalog is immutable
// after construction and safe for concurrent use.
type Catalog struct {
	version int
	base    PlanID
	plans   map[PlanID]Plan
}

// NewCatalog validates plans and builds a catalog. base is the tier every
// unknown identifier resolves to.
func NewCatalog(version int, base PlanID, plans ...Plan) (*Catalog, error) {
	c := &Catalog{
		version: version,
		base:    base,
		plans:   make(map[PlanID]Plan, len(plans)),
	}
	for _, p := range plans {
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate plan %q", ErrInvalidPlanConfiguration, p.ID)
		}
		c.plans[p.ID] = p.clone()
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if _, ok := c.plans[c.base]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBasePlan, c.base)
	}

	var errs []error
	for id, p := range c.plans {
		if !IsKnownPlan(id) {
			errs = append(errs, fmt.Errorf("plan %q: unknown identifier", id))
		}
		if p.TrialDays < 0 {
			errs = append(errs, fmt.Errorf("plan %q: negative trial days", id))
		}
		if p.Price.Amount < 0 {
			errs = append(errs, fmt.Errorf("plan %q: negative price", id))
		}
		featured, ok := p.Limits[ResourceFeaturedVehicles]
		if !ok {
			errs = append(errs, fmt.Errorf("plan %q: missing %s limit", id, ResourceFeaturedVehicles))
		} else if featured.IsUnlimited() {
			errs = append(errs, fmt.Errorf("plan %q: %s limit must be finite", id, ResourceFeaturedVehicles))
		}
		if _, ok := p.Limits[ResourceVehicles]; !ok {
			errs = append(errs, fmt.Errorf("plan %q: missing %s limit", id, ResourceVehicles))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidPlanConfiguration}, errs...)...)
	}
	return nil
}

func (c *Catalog) Version() int { return c.version }

// Base returns the fallback tier.
func (c *Catalog) Base() Plan { return c.plans[c.base].clone() }

// Lookup resolves id to a plan. Unknown or empty identifiers resolve to the
// base tier, so Lookup never fails.
func (c *Catalog) Lookup(id PlanID) Plan {
	if p, ok := c.plans[id]; ok {
		return p.clone()
	}
	return c.Base()
}

// LookupPtr resolves a nullable plan column.
func (c *Catalog) LookupPtr(id *PlanID) Plan {
	if id == nil {
		return c.Base()
	}
	return c.Lookup(*id)
}

// Get returns the plan with the exact identifier.
func (c *Catalog) Get(id PlanID) (Plan, bool) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, false
	}
	return p.clone(), true
}

func (c *Catalog) IsKnown(id PlanID) bool {
	_, ok := c.plans[id]
	return ok
}

// Plans returns all plans ordered by price, then identifier.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p.clone())
	}
	slices.SortFunc(out, func(a, b Plan) int {
		if a.Price.Amount != b.Price.Amount {
			if a.Price.Amount < b.Price.Amount {
				return -1
			}
			return 1
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Document is the serialized form of a catalog, shared by the YAML file
// source and the database source.
type Document struct {
	Version int    `json:"version" yaml:"version"`
	Base    PlanID `json:"base" yaml:"base"`
	Plans   []Plan `json:"plans" yaml:"plans"`
}

// Document returns the serializable form of the catalog.
func (c *Catalog) Document() Document {
	return Document{Version: c.version, Base: c.base, Plans: c.Plans()}
}

// Build validates the document and returns the catalog it describes.
func (d Document) Build() (*Catalog, error) {
	base := d.Base
	if base == "" {
		base = PlanFree
	}
	return NewCatalog(d.Version, base, d.Plans...)
}
