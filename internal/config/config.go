package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	EveAPI   EveAPIConfig   `mapstructure:"eveapi"   validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// EveAPIConfig contains settings for the external key verification API.
type EveAPIConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout"  validate:"required"`
}

// CacheConfig contains settings for the verification response cache.
// An empty RedisURL disables the shared cache; the client then calls the
// provider directly on every lookup.
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url" validate:"omitempty,uri"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// WorkerConfig contains settings for the key lookup worker pool.
type WorkerConfig struct {
	Count         int           `mapstructure:"count"          validate:"required,gt=0"`
	QueueSize     int           `mapstructure:"queue_size"     validate:"required,gt=0"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace" validate:"required"`
}
