// Package httpserver runs an http.Handler with sane timeouts and graceful
// shutdown on context cancellation or SIGINT/SIGTERM, and provides liveness
// and readiness probe handlers.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	err := srv.Run(ctx, router)
package httpserver
