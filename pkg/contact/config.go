package contact

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Origins is a comma separated origin allow-list.
type Origins []string

// Decode implements envconfig.Decoder. Entries are trimmed and blanks dropped.
func (o *Origins) Decode(value string) error {
	*o = ParseOrigins(value)
	return nil
}

// ParseOrigins splits a comma separated list, trimming and dropping blanks.
func ParseOrigins(raw string) Origins {
	var out Origins
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Config configures the contact endpoint and its email provider.
type Config struct {
	AllowedOrigins Origins `envconfig:"ALLOWED_ORIGINS"`
	ResendAPIKey   string  `envconfig:"RESEND_API_KEY"`
	ResendEndpoint string  `envconfig:"RESEND_ENDPOINT" default:"https://api.resend.com/emails"`
	From           string  `envconfig:"RESEND_FROM"`
	To             string  `envconfig:"CONTACT_TO"`
}

// LoadConfig reads the contact settings from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read contact config: %w", err)
	}
	return cfg, nil
}
