package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dealeraccess/internal/platform/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.GatewayAddr != ":8080" {
		t.Errorf("expected default gateway addr :8080, got %q", cfg.GatewayAddr)
	}
	if cfg.DealerAPIURL != "http://localhost:8082" {
		t.Errorf("expected default dealer API URL, got %q", cfg.DealerAPIURL)
	}
	if cfg.DefaultTenantID != config.DefaultTenantID {
		t.Errorf("expected placeholder tenant, got %q", cfg.DefaultTenantID)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.LogLevel)
	}
	if cfg.DemoMode {
		t.Error("demo mode should be off by default")
	}
	if cfg.MaxBodyBytes != 1<<20 {
		t.Errorf("expected 1MB body limit, got %d", cfg.MaxBodyBytes)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GATEWAY_ADDR", ":9090")
	t.Setenv("DEALER_API_URL", "http://dealer-api:9092")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEMO_MODE", "true")
	t.Setenv("RATE_LIMIT_BURST", "50")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.GatewayAddr != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.GatewayAddr)
	}
	if cfg.DealerAPIURL != "http://dealer-api:9092" {
		t.Errorf("expected dealer API URL, got %q", cfg.DealerAPIURL)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("expected secret from env, got %q", cfg.JWTSecret)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected 'debug', got %q", cfg.LogLevel)
	}
	if !cfg.DemoMode {
		t.Error("expected demo mode enabled")
	}
	if cfg.RateLimit.Burst != 50 {
		t.Errorf("expected burst 50, got %d", cfg.RateLimit.Burst)
	}
}

func TestRateLimitDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RateLimit.Backend != "memory" {
		t.Errorf("expected memory backend, got %q", cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.Rate != 100 {
		t.Errorf("expected rate 100, got %f", cfg.RateLimit.Rate)
	}
	if cfg.RateLimit.Burst != 20 {
		t.Errorf("expected burst 20, got %d", cfg.RateLimit.Burst)
	}
	if cfg.RateLimit.Window != time.Second {
		t.Errorf("expected 1s window, got %s", cfg.RateLimit.Window)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	content := "dealer_api_url: http://from-file:8082\nrate_limit:\n  backend: redis\n  window: 2s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DealerAPIURL != "http://from-file:8082" {
		t.Errorf("expected URL from file, got %q", cfg.DealerAPIURL)
	}
	if cfg.RateLimit.Backend != "redis" {
		t.Errorf("expected redis backend, got %q", cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.Window != 2*time.Second {
		t.Errorf("expected 2s window, got %s", cfg.RateLimit.Window)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("RATE_LIMIT_BACKEND", "memcached")

	if _, err := config.Load(); err == nil {
		t.Error("expected error for unsupported rate limit backend")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"tenant not a uuid", "DEFAULT_TENANT_ID", "tenant-1", "default_tenant_id"},
		{"unknown log level", "LOG_LEVEL", "verbose", "log_level"},
		{"relative dealer url", "DEALER_API_URL", "dealer-api", "dealer_api_url"},
		{"zero rate", "RATE_LIMIT_RATE", "0", "rate_limit.rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := config.Load()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to name %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateRequiresRedisURL(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.RateLimit.Backend = "redis"
	cfg.RedisURL = ""

	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "redis_url") {
		t.Errorf("expected redis_url error, got %v", err)
	}
}
