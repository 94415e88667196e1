package config

import (
	"os"
	"time"
)

// Server captures process-level configuration. Secrets arrive via environment
// variables; there are no config files to keep deployment surface small.
type Server struct {
	Addr            string
	DatabaseURL     string
	RegistryBaseURL string
	RegistryAPIKey  string
	RegistryTimeout time.Duration
	PHICipherKey    string
	JWTSigningKey   string
	LogLevel        string
	Seed            bool
}

const (
	defaultAddr            = ":8080"
	defaultRegistryTimeout = 5 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            getenv("MEDGATE_ADDR", defaultAddr),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RegistryBaseURL: getenv("REGISTRY_BASE_URL", "http://127.0.0.1:5100"),
		RegistryAPIKey:  os.Getenv("REGISTRY_API_KEY"),
		RegistryTimeout: defaultRegistryTimeout,
		PHICipherKey:    getenv("PHI_CIPHER_KEY", "dev-phi-cipher-key-0123456789abc"),
		JWTSigningKey:   getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		LogLevel:        getenv("MEDGATE_LOG_LEVEL", "info"),
		Seed:            os.Getenv("MEDGATE_SEED") == "true",
	}

	if raw := os.Getenv("REGISTRY_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.RegistryTimeout = d
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
