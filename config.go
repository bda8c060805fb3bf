package verify

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// Config holds every process-wide value the services need. It is
// parsed once at startup and injected; business logic never reads the
// environment directly.
type Config struct {
	BearerSecret string `env:"BEARER_SECRET"`
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	ServerAddr   string `env:"SERVER_ADDR" envDefault:":3000"`
	DBPath       string `env:"DB_PATH" envDefault:"file::memory:?cache=shared"`
	Issuer       string `env:"TOKEN_ISSUER" envDefault:"go-verify"`

	SMTPProviderAPIKey       string `env:"SMTP_PROVIDER_API_KEY"`
	SMTPProviderBaseURL      string `env:"SMTP_PROVIDER_BASE_URL"`
	SMTPProviderSendEndpoint string `env:"SMTP_PROVIDER_SEND_ENDPOINT"`
	EmailSender              string `env:"EMAIL_SENDER" envDefault:"tristan@simpsonresearch.ca"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
}

// LoadConfig parses the environment and validates required values,
// failing fast and loudly rather than degrading silently.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse environment configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate enforces the required process-wide secrets. OAuth client
// values are optional: without them the Google routes are simply not
// registered.
func (c *Config) Validate() error {
	missing := []string{}

	if c.BearerSecret == "" {
		missing = append(missing, "BEARER_SECRET")
	}
	if c.SMTPProviderAPIKey == "" {
		missing = append(missing, "SMTP_PROVIDER_API_KEY")
	}
	if c.SMTPProviderBaseURL == "" {
		missing = append(missing, "SMTP_PROVIDER_BASE_URL")
	}
	if c.SMTPProviderSendEndpoint == "" {
		missing = append(missing, "SMTP_PROVIDER_SEND_ENDPOINT")
	}

	if len(missing) > 0 {
		return errors.New("missing required configuration", errors.CategoryInternal).
			WithTextCode(TextCodeMissingSecret).
			WithMetadata(map[string]any{
				"missing": missing,
			})
	}

	return nil
}

// GoogleEnabled reports whether the OAuth client pair is configured.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
