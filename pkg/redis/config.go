package redis

import "time"

// Config describes the redis connection. An empty ConnectionURL means redis
// is not configured and callers fall back to in-process stores.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                              // ConnectionURL in the form "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is the number of attempts to reach the server.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`   // RetryInterval is the pause between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"` // ConnectTimeout bounds the whole connection phase.
}

// Enabled reports whether a redis URL was provided.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
