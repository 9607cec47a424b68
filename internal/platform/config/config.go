package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultTenantID is used when a request carries no tenant header.
const DefaultTenantID = "550e8400-e29b-41d4-a716-446655440000"

// Config holds all configuration for the access gateway.
type Config struct {
	GatewayAddr     string          `mapstructure:"gateway_addr" validate:"required"`
	DealerAPIURL    string          `mapstructure:"dealer_api_url" validate:"required,url"` // proxy target (e.g. http://dealer-api:8082)
	JWTSecret       string          `mapstructure:"jwt_secret" validate:"required"`
	LogLevel        string          `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	DefaultTenantID string          `mapstructure:"default_tenant_id" validate:"required,uuid"`
	DemoMode        bool            `mapstructure:"demo_mode"`
	MaxBodyBytes    int64           `mapstructure:"max_body_bytes" validate:"gt=0"`
	RedisURL        string          `mapstructure:"redis_url" validate:"required_if=RateLimit.Backend redis"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig selects and tunes the per-tenant rate limiter.
type RateLimitConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	Rate    float64       `mapstructure:"rate" validate:"gt=0"`
	Burst   int           `mapstructure:"burst" validate:"gt=0"`
	Window  time.Duration `mapstructure:"window" validate:"gt=0"` // redis fixed window length
}

// Load reads configuration from an optional .env file, an optional YAML file
// named by CONFIG_FILE, and environment variables, in increasing precedence.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("gateway_addr", ":8080")
	v.SetDefault("dealer_api_url", "http://localhost:8082")
	v.SetDefault("jwt_secret", "change-me-in-production")
	v.SetDefault("log_level", "info")
	v.SetDefault("default_tenant_id", DefaultTenantID)
	v.SetDefault("demo_mode", false)
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.rate", 100)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.window", time.Second)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// Validate rejects settings the gateway cannot start with. Each failing key
// is reported by its config name.
func (c Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			errs = append(errs, fmt.Errorf("%s: must satisfy %s=%s, got %v", key, fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		errs = append(errs, fmt.Errorf("%s: must satisfy %s", key, fe.Tag()))
	}
	return errors.Join(errs...)
}
