package plans

import "errors"

var (
	ErrUnknownBasePlan          = errors.New("base plan is not part of the catalog")
	ErrInvalidPlanConfiguration = errors.New("invalid plan configuration")
	ErrInvalidLimit             = errors.New("invalid plan limit")
	ErrFailedToLoadPlans        = errors.New("failed to load plan catalog")
	ErrPlanNotFound             = errors.New("plan not found")
)
