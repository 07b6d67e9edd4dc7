package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trialgate/internal/db/dbtest"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
)

func TestPGStore(t *testing.T) {
	pool := dbtest.Pool(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	svc := subscription.NewService(subscription.NewPGStore(pool), subscription.WithClock(func() time.Time { return now }))

	_, err := svc.Get(ctx, "user-1")
	assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)

	_, err = svc.UpsertPaid(ctx, "user-1", 30)
	require.NoError(t, err)

	_, err = svc.UpsertTrial(ctx, "user-1", 7)
	require.NoError(t, err)

	got, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, subscription.PlanTrial, got.Plan)
	assert.True(t, got.IsTrial)
	assert.Equal(t, 1, got.DeviceLimit)
	assert.Equal(t, 1, got.IPLimit)
	assert.True(t, now.AddDate(0, 0, 7).Equal(got.EndAt))

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM subscriptions WHERE user_id = $1`, "user-1").Scan(&rows))
	assert.Equal(t, 1, rows)
}
