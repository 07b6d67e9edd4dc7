package device

import (
	"context"
	"time"
)

// Store persists device sightings. Implementations must serialize Record
// calls for the same subject so that the device count check and the insert
// observe a consistent state.
type Store interface {
	// Record applies the sighting and returns ErrDeviceLimitReached when a new
	// device would exceed the limit, in which case nothing is written. Otherwise
	// the sighting is persisted, and ErrIPLimitReached is returned when the
	// distinct IPs seen after since exceed the IP limit.
	Record(ctx context.Context, s Sighting, limits Limits, since time.Time) error

	// List returns the subject's devices, most recently seen first.
	List(ctx context.Context, subjectID string) ([]Record, error)
}
