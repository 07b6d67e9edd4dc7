// Package logger builds log/slog loggers with environment-aware defaults and
// a handler decorator that injects request-scoped attributes (request id,
// authenticated subject) from context.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "trialgate"),
//		logger.WithContextExtractors(requestid.LoggerExtractor(), identity.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "code redeemed", logger.SubjectID(sub.ID))
package logger
