package asaas

import "time"

const (
	ProductionURL = "https://api.asaas.com/v3"
	SandboxURL    = "https://api-sandbox.asaas.com/v3"
)

type Config struct {
	APIKey        string        `env:"ASAAS_API_KEY"`
	BaseURL       string        `env:"ASAAS_BASE_URL" envDefault:"https://api-sandbox.asaas.com/v3"`
	Timeout       time.Duration `env:"ASAAS_TIMEOUT" envDefault:"15s"`
	RatePerSecond float64       `env:"ASAAS_RATE_PER_SECOND" envDefault:"5"`
	Burst         int           `env:"ASAAS_BURST" envDefault:"10"`
	MaxRetries    int           `env:"ASAAS_MAX_RETRIES" envDefault:"3"`
	UserAgent     string        `env:"ASAAS_USER_AGENT" envDefault:"autovitrine-marketplace"`
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool { return c.APIKey != "" }
