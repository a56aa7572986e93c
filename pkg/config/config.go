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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Credits  CreditsConfig
	Unlocks  UnlocksConfig
	Search   SearchConfig
	Trends   TrendsConfig
	Exports  ExportsConfig
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
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CreditsConfig tunes the credit ledger.
type CreditsConfig struct {
	// PeriodLength is the billing period applied by rollover.
	PeriodLength time.Duration
}

// UnlocksConfig controls unlock grant behaviour.
type UnlocksConfig struct {
	// GrantTTL is how long a paid unlock stays viewable.
	GrantTTL time.Duration
	// BulkLimit caps resume ids accepted by a single bulk unlock.
	BulkLimit int
}

// SearchConfig governs result caching and page sizing.
type SearchConfig struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

// TrendsConfig controls the background result-count sampler.
type TrendsConfig struct {
	Enabled        bool
	SampleInterval time.Duration
	BatchSize      int
	WorkerCount    int
	WorkerRetries  int
}

// ExportsConfig gates bucket export rendering.
type ExportsConfig struct {
	Enabled bool
	MaxRows int
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
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Credits = CreditsConfig{
		PeriodLength: parseDuration(v.GetString("CREDIT_PERIOD_LENGTH"), 30*24*time.Hour),
	}

	cfg.Unlocks = UnlocksConfig{
		GrantTTL:  parseDuration(v.GetString("UNLOCK_GRANT_TTL"), 90*24*time.Hour),
		BulkLimit: v.GetInt("UNLOCK_BULK_LIMIT"),
	}

	cfg.Search = SearchConfig{
		CacheEnabled:    v.GetBool("ENABLE_SEARCH_CACHE"),
		CacheTTL:        parseDuration(v.GetString("SEARCH_CACHE_TTL"), 5*time.Minute),
		DefaultPageSize: v.GetInt("SEARCH_DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("SEARCH_MAX_PAGE_SIZE"),
	}

	cfg.Trends = TrendsConfig{
		Enabled:        v.GetBool("ENABLE_TREND_SAMPLER"),
		SampleInterval: parseDuration(v.GetString("TREND_SAMPLE_INTERVAL"), 24*time.Hour),
		BatchSize:      v.GetInt("TREND_BATCH_SIZE"),
		WorkerCount:    v.GetInt("TREND_WORKER_COUNT"),
		WorkerRetries:  v.GetInt("TREND_WORKER_RETRIES"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_BUCKET_EXPORTS"),
		MaxRows: v.GetInt("EXPORT_MAX_ROWS"),
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
	v.SetDefault("DB_NAME", "talent_sourcing")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "sourcehire-identity")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CREDIT_PERIOD_LENGTH", "720h")

	v.SetDefault("UNLOCK_GRANT_TTL", "2160h")
	v.SetDefault("UNLOCK_BULK_LIMIT", 50)

	v.SetDefault("ENABLE_SEARCH_CACHE", false)
	v.SetDefault("SEARCH_CACHE_TTL", "5m")
	v.SetDefault("SEARCH_DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("SEARCH_MAX_PAGE_SIZE", 100)

	v.SetDefault("ENABLE_TREND_SAMPLER", false)
	v.SetDefault("TREND_SAMPLE_INTERVAL", "24h")
	v.SetDefault("TREND_BATCH_SIZE", 100)
	v.SetDefault("TREND_WORKER_COUNT", 1)
	v.SetDefault("TREND_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_BUCKET_EXPORTS", true)
	v.SetDefault("EXPORT_MAX_ROWS", 1000)
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
