package usage

import "errors"

var (
	ErrCountUnavailable     = errors.New("usage count unavailable")
	ErrNoCounter            = errors.New("no usage counter registered for resource")
	ErrMeterUnavailable     = errors.New("usage meter unavailable")
	ErrStorageUnavailable   = errors.New("object storage unavailable")
	ErrInvalidStorageConfig = errors.New("invalid object storage configuration")
)
