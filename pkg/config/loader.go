package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

type options struct {
	prefix      string
	environment map[string]string
	files       []string
}

// Option tunes a Load call.
type Option func(*options)

// WithPrefix prepends prefix to every variable name.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnvironment parses vars instead of the process environment. No .env
// file is read.
func WithEnvironment(vars map[string]string) Option {
	return func(o *options) { o.environment = vars }
}

// WithEnvFiles reads the given dotenv files before parsing. Variables already
// set in the process environment win.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.files = files }
}

// Load parses environment variables into v using its `env` and `envDefault`
// tags. A .env file in the working directory, if present, is read once per
// process.
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.environment == nil {
		if len(o.files) > 0 {
			if err := godotenv.Load(o.files...); err != nil {
				return errors.Join(ErrEnvFile, err)
			}
		} else {
			dotenvOnce.Do(func() {
				// The file is optional.
				_ = godotenv.Load()
			})
		}
	}

	if err := env.ParseWithOptions(v, env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad is Load that panics on error.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}
