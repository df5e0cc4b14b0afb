// Package config loads the process-wide settings that sit above the
// per-tenant registry: the port to listen on, log level, where the
// audit sqlite file lives, the NATS URL, and the base URL the
// webhook-url endpoint renders tenant callbacks against.
package config

import (
	"wootrico/internal/envconf"
)

// Configuration holds ambient, non-tenant settings.
type Configuration struct {
	ApiPort       string
	LogLevel      string
	AuditDBPath   string
	NatsURL       string
	PublicBaseURL string
	DrainTimeoutSeconds int
}

// Get reads Configuration from the environment, applying the same
// defaults a fresh checkout should run with.
func Get() Configuration {
	return Configuration{
		ApiPort:             envconf.String("PORT", "8080"),
		LogLevel:            envconf.String("LOG_LEVEL", "info"),
		AuditDBPath:         envconf.String("AUDIT_DB_PATH", "./audit.db"),
		NatsURL:             envconf.String("NATS_URL", "nats://127.0.0.1:4222"),
		PublicBaseURL:       envconf.String("PUBLIC_BASE_URL", "http://localhost:8080"),
		DrainTimeoutSeconds: envconf.Int("DRAIN_TIMEOUT_SECONDS", 5),
	}
}
