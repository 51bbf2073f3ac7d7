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

	Database      DatabaseConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Scheduler     SchedulerConfig
	Freeze        FreezeConfig
	Notifications NotificationsConfig
	Exports       ExportsConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig tunes the candidate generation and assembly pipeline.
type SchedulerConfig struct {
	// OverGenerationFactor controls how many candidates are produced relative
	// to the requested session count before ranking.
	OverGenerationFactor int
	MaxSuggestions       int
	GenerationTimeout    time.Duration
	AvailabilityCacheTTL time.Duration
	LockTTL              time.Duration
}

// FreezeConfig bounds the reschedule search during a subscription freeze.
type FreezeConfig struct {
	RescheduleHorizonDays int
}

// NotificationsConfig governs the fire-and-forget event dispatcher.
type NotificationsConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// ExportsConfig toggles the session export endpoints.
type ExportsConfig struct {
	Enabled bool
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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		OverGenerationFactor: v.GetInt("SCHEDULER_OVERGEN_FACTOR"),
		MaxSuggestions:       v.GetInt("SCHEDULER_MAX_SUGGESTIONS"),
		GenerationTimeout:    parseDuration(v.GetString("SCHEDULER_GENERATION_TIMEOUT"), 30*time.Second),
		AvailabilityCacheTTL: parseDuration(v.GetString("SCHEDULER_AVAILABILITY_CACHE_TTL"), 5*time.Minute),
		LockTTL:              parseDuration(v.GetString("SCHEDULER_LOCK_TTL"), time.Minute),
	}

	cfg.Freeze = FreezeConfig{
		RescheduleHorizonDays: v.GetInt("FREEZE_RESCHEDULE_HORIZON_DAYS"),
	}

	cfg.Notifications = NotificationsConfig{
		Workers:    v.GetInt("NOTIFICATIONS_WORKERS"),
		MaxRetries: v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), time.Second),
	}

	cfg.Exports = ExportsConfig{Enabled: v.GetBool("ENABLE_SESSION_EXPORTS")}

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
	v.SetDefault("DB_NAME", "therapy_scheduling")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_OVERGEN_FACTOR", 3)
	v.SetDefault("SCHEDULER_MAX_SUGGESTIONS", 10)
	v.SetDefault("SCHEDULER_GENERATION_TIMEOUT", "30s")
	v.SetDefault("SCHEDULER_AVAILABILITY_CACHE_TTL", "5m")
	v.SetDefault("SCHEDULER_LOCK_TTL", "1m")

	v.SetDefault("FREEZE_RESCHEDULE_HORIZON_DAYS", 30)

	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "1s")

	v.SetDefault("ENABLE_SESSION_EXPORTS", true)
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
