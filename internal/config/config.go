package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/tattva-health/portal-service/internal/db"
)

// Code store backends.
const (
	CodeStoreMemory   = "memory"
	CodeStoreRedis    = "redis"
	CodeStorePostgres = "postgres"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds every runtime setting of the portal service.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	CodeStore string        `mapstructure:"CODE_STORE"`
	CodeTTL   time.Duration `mapstructure:"OTP_TTL"`
	LogCodes  bool          `mapstructure:"OTP_LOG_CODES"`

	SessionStore        string        `mapstructure:"SESSION_STORE"`
	SessionSecret       string        `mapstructure:"SESSION_SECRET"`
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL"`
	SessionCookieName   string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionCookieSecure bool          `mapstructure:"SESSION_COOKIE_SECURE"`

	UltramsgInstanceID string        `mapstructure:"ULTRAMSG_INSTANCE_ID"`
	UltramsgToken      string        `mapstructure:"ULTRAMSG_TOKEN"`
	UltramsgBaseURL    string        `mapstructure:"ULTRAMSG_BASE_URL"`
	GatewayTimeout     time.Duration `mapstructure:"GATEWAY_TIMEOUT"`
	GatewayMaxFailures uint32        `mapstructure:"GATEWAY_BREAKER_MAX_FAILURES"`
	GatewayCooldown    time.Duration `mapstructure:"GATEWAY_BREAKER_COOLDOWN"`
	CountryCode        string        `mapstructure:"COUNTRY_CODE"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	AllowedOrigins  string `mapstructure:"ALLOWED_ORIGINS"`
	PermissionsFile string `mapstructure:"PERMISSIONS_FILE"`

	AvailabilityAuth string `mapstructure:"AVAILABILITY_AUTH"`

	RequestCodeRatePerMinute int `mapstructure:"REQUEST_CODE_RATE_PER_MINUTE"`
	RequestCodeBurst         int `mapstructure:"REQUEST_CODE_BURST"`
	VerifyCodeRatePerMinute  int `mapstructure:"VERIFY_CODE_RATE_PER_MINUTE"`
	VerifyCodeBurst          int `mapstructure:"VERIFY_CODE_BURST"`

	OTLPEndpoint          string        `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName           string        `mapstructure:"OTEL_SERVICE_NAME"`
	ServiceNamespace      string        `mapstructure:"OTEL_SERVICE_NAMESPACE"`
	ServiceVersion        string        `mapstructure:"OTEL_SERVICE_VERSION"`
	TracesSampler         string        `mapstructure:"OTEL_TRACES_SAMPLER"`
	MetricsExportInterval time.Duration `mapstructure:"OTEL_METRICS_EXPORT_INTERVAL"`
}

var defaults = map[string]interface{}{
	"PORT":                         "8080",
	"ENVIRONMENT":                  "production",
	"DB_PORT":                      "5432",
	"DB_SSLMODE":                   "disable",
	"REDIS_ADDR":                   "localhost:6379",
	"REDIS_DB":                     0,
	"CODE_STORE":                   CodeStorePostgres,
	"OTP_TTL":                      "5m",
	"OTP_LOG_CODES":                false,
	"SESSION_STORE":                SessionStoreMemory,
	"SESSION_TTL":                  "12h",
	"SESSION_COOKIE_NAME":          "tattva_session",
	"ULTRAMSG_BASE_URL":            "https://api.ultramsg.com",
	"GATEWAY_TIMEOUT":              "10s",
	"GATEWAY_BREAKER_MAX_FAILURES": 5,
	"GATEWAY_BREAKER_COOLDOWN":     "30s",
	"COUNTRY_CODE":                 "91",
	"RABBITMQ_URL":                 "",
	"ALLOWED_ORIGINS":              "http://localhost:3000",
	"PERMISSIONS_FILE":             "permissions.yml",
	"AVAILABILITY_AUTH":            "doctor_session",
	"REQUEST_CODE_RATE_PER_MINUTE": 5,
	"REQUEST_CODE_BURST":           3,
	"VERIFY_CODE_RATE_PER_MINUTE":  10,
	"VERIFY_CODE_BURST":            5,
	"OTEL_EXPORTER_OTLP_ENDPOINT":  "localhost:4317",
	"OTEL_SERVICE_NAME":            "portal-service",
	"OTEL_SERVICE_NAMESPACE":       "tattva",
	"OTEL_SERVICE_VERSION":         "1.0.0",
	"OTEL_TRACES_SAMPLER":          "always_on",
	"OTEL_METRICS_EXPORT_INTERVAL": "30s",
}

var boundOnly = []string{
	"DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"REDIS_PASSWORD", "SESSION_SECRET", "SESSION_COOKIE_SECURE",
	"ULTRAMSG_INSTANCE_ID", "ULTRAMSG_TOKEN",
}

// Load reads configuration from an optional .env file and the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit env file path.
func LoadFrom(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		v.BindEnv(key)
	}
	for _, key := range boundOnly {
		v.BindEnv(key)
	}

	// A missing .env file is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CodeStore = strings.ToLower(strings.TrimSpace(cfg.CodeStore))
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	cfg.AvailabilityAuth = strings.ToLower(strings.TrimSpace(cfg.AvailabilityAuth))

	// Session cookies are Secure everywhere but development unless set explicitly.
	if !v.IsSet("SESSION_COOKIE_SECURE") {
		cfg.SessionCookieSecure = !cfg.IsDevelopment()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.CodeStore {
	case CodeStoreMemory, CodeStoreRedis, CodeStorePostgres:
	default:
		return fmt.Errorf("unsupported CODE_STORE %q", c.CodeStore)
	}
	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.SessionStore)
	}
	switch c.AvailabilityAuth {
	case "doctor_session", "linked_account":
	default:
		return fmt.Errorf("unsupported AVAILABILITY_AUTH %q", c.AvailabilityAuth)
	}
	if c.CodeTTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in production")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Origins splits ALLOWED_ORIGINS into a trimmed list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Postgres returns the database connection settings.
func (c *Config) Postgres() db.Config {
	return db.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

// Redis returns client options for the shared Redis instance.
func (c *Config) Redis() *redis.Options {
	return &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// NeedsRedis reports whether any configured store lives in Redis.
func (c *Config) NeedsRedis() bool {
	return c.CodeStore == CodeStoreRedis || c.SessionStore == SessionStoreRedis
}
