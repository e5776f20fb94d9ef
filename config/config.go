package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Storage. STORAGE_DRIVER is "mongo" or "memory".
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	SeedFile      string `mapstructure:"SEED_FILE"` // providers and categories for the memory driver
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DatabaseName  string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Matching.
	MatchCacheTTLSeconds int  `mapstructure:"MATCH_CACHE_TTL_SECONDS"`
	MatchMaxResults      int  `mapstructure:"MATCH_MAX_RESULTS"`
	MatchWorkers         int  `mapstructure:"MATCH_WORKERS"`
	MatchVerifiedOnly    bool `mapstructure:"MATCH_VERIFIED_ONLY"`

	// Scheduling.
	EngineTimezone      string `mapstructure:"ENGINE_TIMEZONE"`
	LockBackend         string `mapstructure:"LOCK_BACKEND"` // "local" or "redis"
	LockTTLSeconds      int    `mapstructure:"LOCK_TTL_SECONDS"`
	ReminderLeadMinutes int    `mapstructure:"REMINDER_LEAD_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("STORAGE_DRIVER", "mongo")
	viper.SetDefault("SEED_FILE", "")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "servimatch")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("MATCH_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("MATCH_MAX_RESULTS", 20)
	viper.SetDefault("MATCH_WORKERS", 8)
	viper.SetDefault("MATCH_VERIFIED_ONLY", true)
	viper.SetDefault("ENGINE_TIMEZONE", "UTC")
	viper.SetDefault("LOCK_BACKEND", "local")
	viper.SetDefault("LOCK_TTL_SECONDS", 15)
	viper.SetDefault("REMINDER_LEAD_MINUTES", 60)
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location returns the engine time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.EngineTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.EngineTimezone)
	if err != nil {
		log.Printf("invalid ENGINE_TIMEZONE %q, using UTC: %v", c.EngineTimezone, err)
		return time.UTC
	}
	return loc
}

func (c Config) MatchCacheTTL() time.Duration {
	return time.Duration(c.MatchCacheTTLSeconds) * time.Second
}

func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

func (c Config) ReminderLead() time.Duration {
	return time.Duration(c.ReminderLeadMinutes) * time.Minute
}
