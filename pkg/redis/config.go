package redis

import "time"

// Config holds the connection settings. The URL has the form
// "redis://:password@host:6379/0".
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"20s"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"marketplace"`
}
