package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Scheduling   SchedulingConfig
	Reservations ReservationConfig
	Pricing      PricingConfig
	Drafts       DraftConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig bounds the slot generator and matcher.
type SchedulingConfig struct {
	MaxRangeDays  int
	MaxSelections int
	CacheEnabled  bool
	CacheTTL      time.Duration
}

// ReservationConfig governs slot hold TTLs and the expiry sweep.
type ReservationConfig struct {
	DefaultTTL    time.Duration
	MaxTTL        time.Duration
	SweepInterval time.Duration
	MaxSlots      int
}

// PricingConfig points at the external pricing collaborator.
type PricingConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DraftConfig controls the resumable demand-draft store.
type DraftConfig struct {
	Enabled bool
	TTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduling = SchedulingConfig{
		MaxRangeDays:  v.GetInt("SCHEDULING_MAX_RANGE_DAYS"),
		MaxSelections: v.GetInt("SCHEDULING_MAX_SELECTIONS"),
		CacheEnabled:  v.GetBool("SCHEDULING_CACHE_ENABLED"),
		CacheTTL:      parseDuration(v.GetString("SCHEDULING_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Reservations = ReservationConfig{
		DefaultTTL:    parseDuration(v.GetString("RESERVATION_DEFAULT_TTL"), 15*time.Minute),
		MaxTTL:        parseDuration(v.GetString("RESERVATION_MAX_TTL"), time.Hour),
		SweepInterval: parseDuration(v.GetString("RESERVATION_SWEEP_INTERVAL"), time.Minute),
		MaxSlots:      v.GetInt("RESERVATION_MAX_SLOTS"),
	}

	cfg.Pricing = PricingConfig{
		BaseURL: v.GetString("PRICING_BASE_URL"),
		Timeout: parseDuration(v.GetString("PRICING_TIMEOUT"), 5*time.Second),
	}

	cfg.Drafts = DraftConfig{
		Enabled: v.GetBool("ENABLE_DEMAND_DRAFTS"),
		TTL:     parseDuration(v.GetString("DEMAND_DRAFT_TTL"), 24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutoring")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_MAX_RANGE_DAYS", 366)
	v.SetDefault("SCHEDULING_MAX_SELECTIONS", 64)
	v.SetDefault("SCHEDULING_CACHE_ENABLED", true)
	v.SetDefault("SCHEDULING_CACHE_TTL", "2m")

	v.SetDefault("RESERVATION_DEFAULT_TTL", "15m")
	v.SetDefault("RESERVATION_MAX_TTL", "1h")
	v.SetDefault("RESERVATION_SWEEP_INTERVAL", "1m")
	v.SetDefault("RESERVATION_MAX_SLOTS", 50)

	v.SetDefault("PRICING_BASE_URL", "http://localhost:3100")
	v.SetDefault("PRICING_TIMEOUT", "5s")

	v.SetDefault("ENABLE_DEMAND_DRAFTS", true)
	v.SetDefault("DEMAND_DRAFT_TTL", "24h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
