// Package config loads typed configuration from environment variables with
// github.com/caarlos0/env/v11, reading an optional .env file through
// github.com/joho/godotenv first.
//
//	type Config struct {
//		DatabaseURL string        `env:"DATABASE_URL,required"`
//		Timeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Tests pass WithEnvironment to parse a fixed map instead of the process
// environment.
package config
