package config

import (
	"strings"
	"time"
)

const (
	defaultBackendBaseURL = "http://localhost:5001/api"
	defaultBackendTimeout = 15 * time.Second
)

// BackendConfig contains REST backend client configuration.
type BackendConfig struct {
	// BaseURL is the API root; resource paths are appended to it.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:5001/api"`

	// Timeout bounds every backend call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if b.BaseURL == "" {
		b.BaseURL = defaultBackendBaseURL
	}
	if b.Timeout <= 0 {
		b.Timeout = defaultBackendTimeout
	}
}
