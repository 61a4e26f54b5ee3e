package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the gorm driver and connection string
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// AuthConfig holds JWT verification settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "none", "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
	Burst int `mapstructure:"burst"`
}

// MatchingConfig tunes the catalog matcher
type MatchingConfig struct {
	SuggestThreshold  float64       `mapstructure:"suggest_threshold"`
	AutoLinkThreshold float64       `mapstructure:"autolink_threshold"`
	SuggestLimit      int           `mapstructure:"suggest_limit"`
	MaxSuggestLimit   int           `mapstructure:"max_suggest_limit"`
	MinQueryLength    int           `mapstructure:"min_query_length"`
	MaxCandidates     int           `mapstructure:"max_candidates"`
	TransactionalLink bool          `mapstructure:"transactional_link"`
	EnrichConcurrency int           `mapstructure:"enrich_concurrency"`
	AdminSellerName   string        `mapstructure:"admin_seller_name"`
	DebounceInterval  time.Duration `mapstructure:"debounce_interval"`
	Brands            []string      `mapstructure:"brands"`
}

// LogConfig selects the zap preset
type LogConfig struct {
	Mode string `mapstructure:"mode"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/vendora/")

	v.SetEnvPrefix("VENDORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.auto_migrate", true)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "vendora")
	v.SetDefault("auth.token_ttl", "24h")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.burst", 20)

	// Matching defaults
	v.SetDefault("matching.suggest_threshold", 0.5)
	v.SetDefault("matching.autolink_threshold", 0.95)
	v.SetDefault("matching.suggest_limit", 5)
	v.SetDefault("matching.max_suggest_limit", 20)
	v.SetDefault("matching.min_query_length", 3)
	v.SetDefault("matching.max_candidates", 200)
	v.SetDefault("matching.transactional_link", true)
	v.SetDefault("matching.enrich_concurrency", 4)
	v.SetDefault("matching.admin_seller_name", "Vendora")
	v.SetDefault("matching.debounce_interval", "300ms")
	v.SetDefault("matching.brands", DefaultBrands)

	// Log defaults
	v.SetDefault("log.mode", "development")
}

// DefaultBrands seeds the brand reference table on first start
var DefaultBrands = []string{
	"Apple", "Samsung", "Google", "Sony", "LG", "HP", "Dell", "Lenovo",
	"Asus", "Acer", "Microsoft", "Xiaomi", "Huawei", "OnePlus", "Motorola",
	"Nokia", "Bose", "JBL", "Philips", "Panasonic", "Canon", "Nikon",
	"Logitech", "Razer", "Dyson", "Nike", "Adidas", "Puma", "Under Armour",
	"The North Face",
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (set VENDORA_AUTH_JWT_SECRET)")
	}

	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return fmt.Errorf("database driver must be 'postgres' or 'sqlite', got: %s", config.Database.Driver)
	}

	if config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required (set VENDORA_DATABASE_DSN)")
	}

	switch config.Cache.Type {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	m := config.Matching
	if m.SuggestThreshold <= 0 || m.SuggestThreshold > 1 {
		return fmt.Errorf("suggest threshold must be in (0, 1], got: %v", m.SuggestThreshold)
	}
	if m.AutoLinkThreshold <= 0 || m.AutoLinkThreshold > 1 {
		return fmt.Errorf("auto-link threshold must be in (0, 1], got: %v", m.AutoLinkThreshold)
	}
	if m.SuggestThreshold > m.AutoLinkThreshold {
		return fmt.Errorf("suggest threshold (%v) must not exceed auto-link threshold (%v)", m.SuggestThreshold, m.AutoLinkThreshold)
	}
	if m.MinQueryLength < 3 {
		return fmt.Errorf("min query length must be at least 3, got: %d", m.MinQueryLength)
	}
	if m.SuggestLimit <= 0 || m.SuggestLimit > m.MaxSuggestLimit {
		return fmt.Errorf("suggest limit must be in [1, %d], got: %d", m.MaxSuggestLimit, m.SuggestLimit)
	}

	return nil
}
