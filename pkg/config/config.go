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
	Sync     SyncConfig
	Cache    CacheConfig
	Report   ReportConfig
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
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SyncConfig tunes the baseline reconciliation engine.
type SyncConfig struct {
	SourceTimeout           time.Duration
	HistoryPageSize         int
	PartialSources          []string
	SupersedePendingOnForce bool
	AutoInterval            time.Duration
}

// ReportConfig governs generated report files and their download links.
type ReportConfig struct {
	Dir          string
	DownloadTTL  time.Duration
	RetentionTTL time.Duration
}

// CacheConfig governs the config snapshot cache and its invalidation signal.
type CacheConfig struct {
	Enabled   bool
	KeyPrefix string
	Channel   string
	TTL       time.Duration
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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sync = SyncConfig{
		SourceTimeout:           parseDuration(v.GetString("SYNC_SOURCE_TIMEOUT"), 30*time.Second),
		HistoryPageSize:         v.GetInt("SYNC_HISTORY_PAGE_SIZE"),
		PartialSources:          splitAndTrim(v.GetString("SYNC_PARTIAL_SOURCES")),
		SupersedePendingOnForce: v.GetBool("SYNC_SUPERSEDE_PENDING_ON_FORCE"),
		AutoInterval:            parseDuration(v.GetString("SYNC_AUTO_INTERVAL"), time.Hour),
	}

	cfg.Cache = CacheConfig{
		Enabled:   v.GetBool("ENABLE_CONFIG_CACHE"),
		KeyPrefix: v.GetString("CONFIG_CACHE_PREFIX"),
		Channel:   v.GetString("CONFIG_CACHE_CHANNEL"),
		TTL:       parseDuration(v.GetString("CONFIG_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Report = ReportConfig{
		Dir:          v.GetString("REPORT_DIR"),
		DownloadTTL:  parseDuration(v.GetString("REPORT_DOWNLOAD_TTL"), 24*time.Hour),
		RetentionTTL: parseDuration(v.GetString("REPORT_RETENTION_TTL"), 7*24*time.Hour),
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
	v.SetDefault("DB_NAME", "olive_embers_backoffice")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SYNC_SOURCE_TIMEOUT", "30s")
	v.SetDefault("SYNC_HISTORY_PAGE_SIZE", 20)
	v.SetDefault("SYNC_PARTIAL_SOURCES", "travel,features")
	v.SetDefault("SYNC_SUPERSEDE_PENDING_ON_FORCE", true)
	v.SetDefault("SYNC_AUTO_INTERVAL", "1h")

	v.SetDefault("ENABLE_CONFIG_CACHE", true)
	v.SetDefault("CONFIG_CACHE_PREFIX", "config")
	v.SetDefault("CONFIG_CACHE_CHANNEL", "config:invalidate")
	v.SetDefault("CONFIG_CACHE_TTL", "10m")

	v.SetDefault("REPORT_DIR", "./reports")
	v.SetDefault("REPORT_DOWNLOAD_TTL", "24h")
	v.SetDefault("REPORT_RETENTION_TTL", "168h")
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
