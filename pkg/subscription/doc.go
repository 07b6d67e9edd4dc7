// Package subscription keeps one entitlement record per subject.
//
// A subscription is either a trial or a paid plan. Each plan carries fixed
// device and IP limits (trial 1/1, paid 2/2) that are copied onto the record
// when it is written. Writes always overwrite: redeeming a new trial code or
// granting a paid period replaces the previous window rather than extending it.
//
// Access is granted only while the record is active and its end time has not
// passed:
//
//	svc := subscription.NewService(subscription.NewPGStore(pool))
//	sub, err := svc.CheckActive(ctx, userID)
//	switch {
//	case errors.Is(err, subscription.ErrNoActiveSubscription):
//	case errors.Is(err, subscription.ErrExpired):
//	}
package subscription
