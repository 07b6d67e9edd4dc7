package subscription

import "context"

type contextKey struct{}

// WithContext stores the subscription that admitted the request.
func WithContext(ctx context.Context, sub *Subscription) context.Context {
	return context.WithValue(ctx, contextKey{}, sub)
}

// FromContext returns the subscription stored by WithContext.
func FromContext(ctx context.Context) (*Subscription, bool) {
	sub, ok := ctx.Value(contextKey{}).(*Subscription)
	return sub, ok && sub != nil
}
