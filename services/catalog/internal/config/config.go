package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"

	pkgconfig "github.com/utafrali/storefront-catalog/pkg/config"
)

// Config holds all configuration for the catalog service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CATALOG_HTTP_PORT" envDefault:"8020"`

	// Medusa store API
	MedusaBaseURL        string        `env:"MEDUSA_BASE_URL" envDefault:"http://localhost:9000"`
	MedusaPublishableKey string        `env:"MEDUSA_PUBLISHABLE_KEY"`
	MedusaPageLimit      int           `env:"MEDUSA_PAGE_LIMIT" envDefault:"100"`
	MedusaTimeout        time.Duration `env:"MEDUSA_TIMEOUT" envDefault:"10s"`
	MedusaMaxRetries     int           `env:"MEDUSA_MAX_RETRIES" envDefault:"2"`

	// Catalog
	RefreshInterval time.Duration `env:"CATALOG_REFRESH_INTERVAL" envDefault:"5m"`
	RefreshTimeout  time.Duration `env:"CATALOG_REFRESH_TIMEOUT" envDefault:"30s"`
	Locale          string        `env:"CATALOG_LOCALE" envDefault:"en"`
	DefaultCategory string        `env:"CATALOG_DEFAULT_CATEGORY" envDefault:"General"`
	SearchCacheSize int           `env:"CATALOG_SEARCH_CACHE_SIZE" envDefault:"256"`

	// Redis snapshot
	SnapshotEnabled bool          `env:"SNAPSHOT_ENABLED" envDefault:"false"`
	RedisAddr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	SnapshotKey     string        `env:"SNAPSHOT_KEY" envDefault:"catalog:snapshot"`
	SnapshotTTL     time.Duration `env:"SNAPSHOT_TTL" envDefault:"0s"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"catalog-service"`

	// OpenTelemetry
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTELEndpoint      string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Refresh endpoint auth
	JWTSecret           string   `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	RefreshRoles        []string `env:"CATALOG_REFRESH_ROLES" envDefault:"admin" envSeparator:","`
	RefreshRateLimitRPS float64  `env:"CATALOG_REFRESH_RATE_LIMIT_RPS" envDefault:"0.2"`
	RefreshRateBurst    int      `env:"CATALOG_REFRESH_RATE_LIMIT_BURST" envDefault:"3"`
}

const (
	defaultJWTSecret   = "change-this-to-a-secure-secret"
	minJWTSecretLength = 32
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	cfg.RefreshRoles = compactRoles(cfg.RefreshRoles)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.Parse(c.MedusaBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("MEDUSA_BASE_URL must be an absolute URL, got %q", c.MedusaBaseURL)
	}
	if c.MedusaPageLimit < 0 {
		return fmt.Errorf("MEDUSA_PAGE_LIMIT must not be negative, got %d", c.MedusaPageLimit)
	}
	if c.MedusaTimeout <= 0 {
		return fmt.Errorf("MEDUSA_TIMEOUT must be positive, got %s", c.MedusaTimeout)
	}
	if c.MedusaMaxRetries < 0 {
		return fmt.Errorf("MEDUSA_MAX_RETRIES must not be negative, got %d", c.MedusaMaxRetries)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("CATALOG_REFRESH_INTERVAL must not be negative, got %s", c.RefreshInterval)
	}
	if c.RefreshTimeout < 0 {
		return fmt.Errorf("CATALOG_REFRESH_TIMEOUT must not be negative, got %s", c.RefreshTimeout)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("CATALOG_LOCALE %q is not a valid BCP 47 tag: %w", c.Locale, err)
	}
	if strings.TrimSpace(c.DefaultCategory) == "" {
		return fmt.Errorf("CATALOG_DEFAULT_CATEGORY is required")
	}
	if c.SearchCacheSize < 0 {
		return fmt.Errorf("CATALOG_SEARCH_CACHE_SIZE must not be negative, got %d", c.SearchCacheSize)
	}
	if c.SnapshotEnabled && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when SNAPSHOT_ENABLED is set")
	}
	if c.SnapshotTTL < 0 {
		return fmt.Errorf("SNAPSHOT_TTL must not be negative, got %s", c.SnapshotTTL)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be explicitly set in production")
	}
	if c.IsProduction() && len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in production", minJWTSecretLength)
	}
	if len(c.RefreshRoles) == 0 {
		return fmt.Errorf("CATALOG_REFRESH_ROLES must name at least one role")
	}
	if c.RefreshRateLimitRPS <= 0 || c.RefreshRateBurst < 1 {
		return fmt.Errorf("CATALOG_REFRESH_RATE_LIMIT_RPS must be positive and CATALOG_REFRESH_RATE_LIMIT_BURST at least 1")
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1.0 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.TracingSampleRate)
	}
	return nil
}

func compactRoles(roles []string) []string {
	out := roles[:0]
	for _, role := range roles {
		if role = strings.TrimSpace(role); role != "" {
			out = append(out, role)
		}
	}
	return out
}

// LocaleTag returns the parsed CATALOG_LOCALE.
func (c *Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
