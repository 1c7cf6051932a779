package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything that has a sensible one; required settings
	// without a default (database URL) must come from the environment or a
	// config file.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("eveapi.base_url", "https://api.eveonline.com")
	v.SetDefault("eveapi.timeout", 30*time.Second)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("worker.count", 5)
	v.SetDefault("worker.queue_size", 100)
	v.SetDefault("worker.shutdown_grace", 10*time.Second)

	// Optional config file in the working directory
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine; environment variables may carry
		// everything we need.
	}

	// Environment variables: EVEKEY_SERVER_PORT, EVEKEY_DATABASE_URL, ...
	v.SetEnvPrefix("EVEKEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys through Unmarshal,
	// so bind each key we care about explicitly.
	for _, key := range []string{
		"server.port", "server.log_level",
		"database.url",
		"eveapi.base_url", "eveapi.timeout",
		"cache.redis_url", "cache.ttl",
		"worker.count", "worker.queue_size", "worker.shutdown_grace",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
