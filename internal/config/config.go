package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Application
	AppHost string `mapstructure:"app_host"`
	AppPort string `mapstructure:"app_port"`
	GinMode string `mapstructure:"gin_mode"`

	// Trusted store (memberships, employees, init state)
	DBDriver   string `mapstructure:"db_driver"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`

	// Redis (active context store, session store)
	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	// Sessions
	SessionSecret string `mapstructure:"session_secret"`

	// Record store (tenant-scoped data plane)
	RecordStoreURL        string `mapstructure:"record_store_url"`
	RecordStoreAPIKey     string `mapstructure:"record_store_api_key"`
	RecordStoreServiceKey string `mapstructure:"record_store_service_key"`

	// Identity provider: "local" (embedded) or "http" (hosted admin API)
	IdentityProvider   string `mapstructure:"identity_provider"`
	IdentityBaseURL    string `mapstructure:"identity_base_url"`
	IdentityServiceKey string `mapstructure:"identity_service_key"`
	JWTSecret          string `mapstructure:"jwt_secret"`

	// CORS
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Load initializes the application configuration using Viper. Environment
// variables override config file values which override defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_host", "0.0.0.0")
	v.SetDefault("app_port", "8080")
	v.SetDefault("gin_mode", "debug")

	v.SetDefault("db_driver", "postgres")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "crm")
	v.SetDefault("db_password", "crm")
	v.SetDefault("db_name", "atomic_crm")

	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("session_secret", "default-secret-key-change-me")

	v.SetDefault("record_store_url", "http://localhost:3000/rest/v1")
	v.SetDefault("record_store_api_key", "")
	v.SetDefault("record_store_service_key", "")

	v.SetDefault("identity_provider", "local")
	v.SetDefault("identity_base_url", "")
	v.SetDefault("identity_service_key", "")
	v.SetDefault("jwt_secret", "default-jwt-secret-change-me")

	v.SetDefault("cors_origins", []string{"*"})

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.AppPort
}

// RedisAddr returns the host:port pair for Redis.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}
