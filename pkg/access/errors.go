package access

import "errors"

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrPromotionNotFound    = errors.New("promotion not found")
	ErrLimitExceeded        = errors.New("plan limit exceeded")
)
