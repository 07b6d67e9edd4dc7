package identity

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/trialgate/pkg/logger"
)

type subjectKey struct{}

// WithSubject stores the verified subject in ctx.
func WithSubject(ctx context.Context, s Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, s)
}

// SubjectFromContext returns the subject stored by WithSubject.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	s, ok := ctx.Value(subjectKey{}).(Subject)
	return s, ok && s.ID != ""
}

// LoggerExtractor adds the subject id to log records.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		s, ok := SubjectFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return logger.SubjectID(s.ID), true
	}
}
