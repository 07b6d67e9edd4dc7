package pg

import "context"

// logger is the subset of *slog.Logger the package writes to.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
