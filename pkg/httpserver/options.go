package httpserver

import (
	"fmt"
	"log/slog"
	"time"
)

// Option configures the HTTP server.
type Option func(*config)

// WithAddr sets the listen address. It panics on an empty address since
// that is always a wiring mistake.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: listen address is empty")
	}
	return func(c *config) { c.addr = addr }
}

// WithReadHeaderTimeout, WithReadTimeout, WithWriteTimeout and
// WithIdleTimeout map onto the http.Server fields of the same name.
// Non-positive values leave the field at its zero value (no limit).
func WithReadHeaderTimeout(d time.Duration) Option {
	return limit(d, func(c *config) *time.Duration { return &c.readHeaderTimeout })
}

func WithReadTimeout(d time.Duration) Option {
	return limit(d, func(c *config) *time.Duration { return &c.readTimeout })
}

func WithWriteTimeout(d time.Duration) Option {
	return limit(d, func(c *config) *time.Duration { return &c.writeTimeout })
}

func WithIdleTimeout(d time.Duration) Option {
	return limit(d, func(c *config) *time.Duration { return &c.idleTimeout })
}

// WithShutdownTimeout bounds how long in-flight requests may drain.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic(fmt.Sprintf("httpserver: shutdown timeout must be positive, got %s", d))
	}
	return func(c *config) { c.shutdownTimeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func limit(d time.Duration, field func(*config) *time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			*field(c) = d
		}
	}
}
