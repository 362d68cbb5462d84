package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig holds the marketplace backend location and client limits
type APIConfig struct {
	Host                 string `mapstructure:"host"`
	Prefix               string `mapstructure:"prefix"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`

	// Resource names; primary and fallback may differ when the backend uses
	// localized routes.
	ProductsPrimary  string   `mapstructure:"products_primary"`
	ProductsFallback string   `mapstructure:"products_fallback"`
	ServicesPrimary  string   `mapstructure:"services_primary"`
	ServicesFallback string   `mapstructure:"services_fallback"`
	MyServices       string   `mapstructure:"my_services"`
	MeEndpoints      []string `mapstructure:"me_endpoints"`
}

// AuthMode selects how credentials are attached to requests
type AuthMode string

const (
	AuthModeBearer AuthMode = "bearer"
	AuthModeCSRF   AuthMode = "csrf"
)

// AuthConfig holds authentication strategy settings
type AuthConfig struct {
	Mode           AuthMode `mapstructure:"mode"`
	Token          string   `mapstructure:"token"`
	CSRFPage       string   `mapstructure:"csrf_page"`
	CookieEndpoint string   `mapstructure:"cookie_endpoint"`
	Credentials    string   `mapstructure:"credentials"`
}

// CatalogConfig holds listing and validation limits
type CatalogConfig struct {
	PageSize           int     `mapstructure:"page_size"`
	MaxPrice           float64 `mapstructure:"max_price"`
	PhoneDigits        int     `mapstructure:"phone_digits"`
	MinDescription     int     `mapstructure:"min_description"`
	SearchDebounceMs   int     `mapstructure:"search_debounce_ms"`
	ReloadDebounceMs   int     `mapstructure:"reload_debounce_ms"`
	OwnerMinIntervalMs int     `mapstructure:"owner_min_interval_ms"`
}

// StorageConfig selects where client state (cart, wishlist, caches) lives
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // memory, file or redis
	Path    string `mapstructure:"path"`
}

// DatabaseConfig holds the optional catalog snapshot database
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	Database  int    `mapstructure:"database"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// BaseURL joins host and versioned prefix with exactly one slash between
// them and no trailing slash.
func (c APIConfig) BaseURL() string {
	host := strings.TrimRight(c.Host, "/")
	prefix := strings.Trim(c.Prefix, "/")
	if prefix == "" {
		return host
	}
	return host + "/" + prefix
}

// Load loads configuration from YAML file with environment variable overrides.
// A missing config.yaml is not an error; defaults and env apply.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	if c.API.Host == "" {
		return fmt.Errorf("api.host must be set")
	}
	switch c.Auth.Mode {
	case AuthModeBearer, AuthModeCSRF:
	default:
		return fmt.Errorf("unknown auth.mode %q", c.Auth.Mode)
	}
	switch c.Storage.Backend {
	case "memory", "file", "redis":
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog.page_size must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "http://localhost:8000")
	v.SetDefault("api.prefix", "/api/v1")
	v.SetDefault("api.timeout", 30)
	v.SetDefault("api.max_retries", 0)
	v.SetDefault("api.max_requests_per_second", 20)
	v.SetDefault("api.products_primary", "/productos")
	v.SetDefault("api.products_fallback", "/products")
	v.SetDefault("api.services_primary", "/servicios")
	v.SetDefault("api.services_fallback", "/services")
	v.SetDefault("api.my_services", "/my-services")
	v.SetDefault("api.me_endpoints", []string{"/user/me", "/me", "/auth/me"})

	v.SetDefault("auth.mode", string(AuthModeBearer))
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.csrf_page", "/")
	v.SetDefault("auth.cookie_endpoint", "/sanctum/csrf-cookie")
	v.SetDefault("auth.credentials", "same-origin")

	v.SetDefault("catalog.page_size", 12)
	v.SetDefault("catalog.max_price", 99999999)
	v.SetDefault("catalog.phone_digits", 10)
	v.SetDefault("catalog.min_description", 20)
	v.SetDefault("catalog.search_debounce_ms", 300)
	v.SetDefault("catalog.reload_debounce_ms", 300)
	v.SetDefault("catalog.owner_min_interval_ms", 600)

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "./.storefront/state.json")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.user", "storefront_user")
	v.SetDefault("database.password", "storefront_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key_prefix", "storefront:")

	v.SetDefault("log.level", "info")
}
