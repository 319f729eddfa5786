// Package config loads process configuration from .env and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	AuthProviderSupabase = "supabase"
	AuthProviderClerk    = "clerk"
)

type Config struct {
	Env           string `mapstructure:"APP_ENV"`
	Port          string `mapstructure:"PORT"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`

	AuthProvider      string `mapstructure:"AUTH_PROVIDER"`
	SupabaseJWTSecret string `mapstructure:"SUPABASE_JWT_SECRET"`
	ClerkSecretKey    string `mapstructure:"CLERK_SECRET_KEY"`

	RedisURL      string        `mapstructure:"REDIS_URL"`
	RadarCacheTTL time.Duration `mapstructure:"RADAR_CACHE_TTL"`

	CFAccountID    string        `mapstructure:"CF_ACCOUNT_ID"`
	CFAccessKey    string        `mapstructure:"CF_ACCESS_KEY"`
	CFSecretKey    string        `mapstructure:"CF_SECRET_KEY"`
	CFBucketName   string        `mapstructure:"CF_BUCKET_NAME"`
	CFPublicURL    string        `mapstructure:"CF_PUBLIC_URL"`
	R2Endpoint     string        `mapstructure:"R2_ENDPOINT"`
	UploadMaxBytes int64         `mapstructure:"UPLOAD_MAX_BYTES"`
	UploadTimeout  time.Duration `mapstructure:"UPLOAD_TIMEOUT"`

	FCMServiceAccountJSON string `mapstructure:"FCM_SERVICE_ACCOUNT_JSON"`
	FCMCredentialsFile    string `mapstructure:"FCM_CREDENTIALS_FILE"`

	MetricsUser string `mapstructure:"METRICS_USER"`
	MetricsPass string `mapstructure:"METRICS_PASS"`

	IPLookupURL           string  `mapstructure:"IP_LOOKUP_URL"`
	ProximityRadiusMeters float64 `mapstructure:"PROXIMITY_RADIUS_METERS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
	AllowedOrigins string  `mapstructure:"ALLOWED_ORIGINS"`
}

var keys = []string{
	"APP_ENV", "PORT", "LOG_LEVEL", "DATABASE_URL", "STORAGE_DRIVER",
	"AUTH_PROVIDER", "SUPABASE_JWT_SECRET", "CLERK_SECRET_KEY",
	"REDIS_URL", "RADAR_CACHE_TTL",
	"CF_ACCOUNT_ID", "CF_ACCESS_KEY", "CF_SECRET_KEY", "CF_BUCKET_NAME", "CF_PUBLIC_URL",
	"R2_ENDPOINT", "UPLOAD_MAX_BYTES", "UPLOAD_TIMEOUT",
	"FCM_SERVICE_ACCOUNT_JSON", "FCM_CREDENTIALS_FILE",
	"METRICS_USER", "METRICS_PASS",
	"IP_LOOKUP_URL", "PROXIMITY_RADIUS_METERS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "ALLOWED_ORIGINS",
}

// Load reads .env (when present) and then the environment.
// The second return value reports whether a .env file was found.
func Load() (*Config, bool, error) {
	foundEnv := godotenv.Load() == nil

	v := viper.New()
	v.AutomaticEnv()
	for _, k := range keys {
		// Unmarshal only sees keys viper knows about.
		_ = v.BindEnv(k)
	}
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, foundEnv, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, foundEnv, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, foundEnv, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3333")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	v.SetDefault("AUTH_PROVIDER", AuthProviderSupabase)
	v.SetDefault("RADAR_CACHE_TTL", 30*time.Second)
	v.SetDefault("UPLOAD_MAX_BYTES", int64(50<<20))
	v.SetDefault("UPLOAD_TIMEOUT", 15*time.Second)
	v.SetDefault("FCM_CREDENTIALS_FILE", "./serviceAccountKey.json")
	v.SetDefault("IP_LOOKUP_URL", "https://ipapi.co")
	v.SetDefault("PROXIMITY_RADIUS_METERS", 200.0)
	v.SetDefault("RATE_LIMIT_RPS", 5.0)
	v.SetDefault("RATE_LIMIT_BURST", 30)
	v.SetDefault("ALLOWED_ORIGINS", "*")
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.AuthProvider = strings.ToLower(strings.TrimSpace(c.AuthProvider))
	c.IPLookupURL = strings.TrimRight(c.IPLookupURL, "/")
	c.CFPublicURL = strings.TrimRight(c.CFPublicURL, "/")
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Origins splits ALLOWED_ORIGINS into the list gorilla/handlers expects.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// UploadsEnabled reports whether every R2 credential is present.
func (c *Config) UploadsEnabled() bool {
	return c.CFAccessKey != "" && c.CFSecretKey != "" && c.CFBucketName != "" &&
		(c.CFAccountID != "" || c.R2Endpoint != "")
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_DRIVER is postgres")
		}
	case StorageDriverMemory:
		if c.IsProduction() {
			return errors.New("STORAGE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.AuthProvider {
	case AuthProviderSupabase:
		if c.SupabaseJWTSecret == "" && c.IsProduction() {
			return errors.New("SUPABASE_JWT_SECRET is required in production")
		}
	case AuthProviderClerk:
		if c.ClerkSecretKey == "" && c.IsProduction() {
			return errors.New("CLERK_SECRET_KEY is required in production")
		}
		if c.StorageDriver == StorageDriverMemory {
			return errors.New("AUTH_PROVIDER=clerk needs the postgres store to resolve profiles")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.ProximityRadiusMeters <= 0 {
		return errors.New("PROXIMITY_RADIUS_METERS must be positive")
	}
	if c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}
	if c.UploadTimeout <= 0 {
		return errors.New("UPLOAD_TIMEOUT must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}
