package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.CodeTTL != 5*time.Minute {
		t.Errorf("Expected OTP TTL 5m, got %v", cfg.CodeTTL)
	}
	if cfg.GatewayTimeout != 10*time.Second {
		t.Errorf("Expected gateway timeout 10s, got %v", cfg.GatewayTimeout)
	}
	if cfg.CountryCode != "91" {
		t.Errorf("Expected country code 91, got %s", cfg.CountryCode)
	}
	if cfg.CodeStore != CodeStorePostgres {
		t.Errorf("Expected postgres code store, got %s", cfg.CodeStore)
	}
	if cfg.AvailabilityAuth != "doctor_session" {
		t.Errorf("Expected doctor_session strategy, got %s", cfg.AvailabilityAuth)
	}
	if cfg.SessionCookieSecure {
		t.Error("Expected insecure session cookie in development")
	}
	if cfg.VerifyCodeRatePerMinute != 10 || cfg.VerifyCodeBurst != 5 {
		t.Errorf("Expected verify limit 10/min burst 5, got %d/%d", cfg.VerifyCodeRatePerMinute, cfg.VerifyCodeBurst)
	}
}

func TestLoadFrom_SessionCookieSecure(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		secure      string
		want        bool
	}{
		{"production default", "production", "", true},
		{"staging default", "staging", "", true},
		{"development default", "development", "", false},
		{"development forced on", "development", "true", true},
		{"production forced off", "production", "false", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.environment)
			t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
			if tt.secure != "" {
				t.Setenv("SESSION_COOKIE_SECURE", tt.secure)
			}

			cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if cfg.SessionCookieSecure != tt.want {
				t.Errorf("Expected secure=%v, got %v", tt.want, cfg.SessionCookieSecure)
			}
		})
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CODE_STORE", "Redis")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("AVAILABILITY_AUTH", "linked_account")
	t.Setenv("ULTRAMSG_INSTANCE_ID", "instance42")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.CodeStore != CodeStoreRedis {
		t.Errorf("Expected redis code store, got %s", cfg.CodeStore)
	}
	if cfg.CodeTTL != 90*time.Second {
		t.Errorf("Expected OTP TTL 90s, got %v", cfg.CodeTTL)
	}
	if cfg.AvailabilityAuth != "linked_account" {
		t.Errorf("Expected linked_account strategy, got %s", cfg.AvailabilityAuth)
	}
	if cfg.UltramsgInstanceID != "instance42" {
		t.Errorf("Expected instance id instance42, got %s", cfg.UltramsgInstanceID)
	}
}

func TestLoadFrom_EnvFile(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=9090\nULTRAMSG_TOKEN=file-token\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090 from file, got %s", cfg.Port)
	}
	if cfg.UltramsgToken != "file-token" {
		t.Errorf("Expected token from file, got %s", cfg.UltramsgToken)
	}
}

func TestLoadFrom_RejectsUnknownCodeStore(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CODE_STORE", "memcached")

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected error for unsupported code store")
	}
}

func TestLoadFrom_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "short")

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("Expected error for short session secret in production")
	}
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: " http://a.example , ,https://b.example"}
	origins := cfg.Origins()
	if len(origins) != 2 {
		t.Fatalf("Expected 2 origins, got %d", len(origins))
	}
	if origins[0] != "http://a.example" || origins[1] != "https://b.example" {
		t.Errorf("Unexpected origins: %v", origins)
	}
}

func TestConfig_Stores(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5432", DBUser: "tattva", DBPassword: "pw", DBName: "portal",
		RedisAddr: "cache:6379", RedisDB: 2,
		CodeStore: CodeStorePostgres, SessionStore: SessionStoreMemory,
	}

	if pg := cfg.Postgres(); pg.Host != "db" || pg.Name != "portal" || pg.User != "tattva" {
		t.Errorf("Unexpected postgres config: %+v", pg)
	}
	if opts := cfg.Redis(); opts.Addr != "cache:6379" || opts.DB != 2 {
		t.Errorf("Unexpected redis options: %+v", opts)
	}
	if cfg.NeedsRedis() {
		t.Error("Expected no redis for postgres codes and memory sessions")
	}

	cfg.SessionStore = SessionStoreRedis
	if !cfg.NeedsRedis() {
		t.Error("Expected redis for redis sessions")
	}
}
