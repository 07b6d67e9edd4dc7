package device

import "errors"

var (
	ErrDeviceLimitReached = errors.New("device limit reached")
	ErrIPLimitReached     = errors.New("ip limit reached")
	ErrMissingSubject     = errors.New("subject id is required")
	ErrMissingDevice      = errors.New("device id is required")
	ErrStoreFailure       = errors.New("device store failure")
)
