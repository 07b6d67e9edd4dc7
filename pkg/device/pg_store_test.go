package device_test

import (
	"testing"

	"github.com/dmitrymomot/trialgate/internal/db/dbtest"
	"github.com/dmitrymomot/trialgate/pkg/device"
)

func TestLimiter_PGStore(t *testing.T) {
	pool := dbtest.Pool(t)
	limiterSuite(t, func(*testing.T) device.Store { return device.NewPGStore(pool, 3) })
}
