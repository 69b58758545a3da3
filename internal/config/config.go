package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Storage      StorageConfig
	Notification NotificationConfig
	APNs         APNsConfig
	Logging      LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the verification settings for identity-provider tokens.
type JWTConfig struct {
	Secret string
	Issuer string
}

// StorageConfig selects the record store: "postgres" or "memory".
type StorageConfig struct {
	Type string
}

// NotificationConfig selects the outbound event queue: "memory" or "redis".
type NotificationConfig struct {
	Queue     string
	QueueSize int
	Workers   int
}

type APNsConfig struct {
	KeyPath    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

type LoggingConfig struct {
	Level string
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("STORAGE_TYPE", "postgres")
	viper.SetDefault("NOTIFICATION_QUEUE", "memory")
	viper.SetDefault("NOTIFICATION_QUEUE_SIZE", 1024)
	viper.SetDefault("NOTIFICATION_WORKERS", 2)
	viper.SetDefault("LOG_LEVEL", "info")

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = viper.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("SERVER_HOST"),
			Port:         viper.GetInt("SERVER_PORT"),
			Env:          viper.GetString("ENV"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Issuer: viper.GetString("JWT_ISSUER"),
		},
		Storage: StorageConfig{
			Type: viper.GetString("STORAGE_TYPE"),
		},
		Notification: NotificationConfig{
			Queue:     viper.GetString("NOTIFICATION_QUEUE"),
			QueueSize: viper.GetInt("NOTIFICATION_QUEUE_SIZE"),
			Workers:   viper.GetInt("NOTIFICATION_WORKERS"),
		},
		APNs: APNsConfig{
			KeyPath:    viper.GetString("APNS_KEY_PATH"),
			KeyID:      viper.GetString("APNS_KEY_ID"),
			TeamID:     viper.GetString("APNS_TEAM_ID"),
			Topic:      viper.GetString("APNS_TOPIC"),
			Production: viper.GetBool("APNS_PRODUCTION"),
		},
		Logging: LoggingConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	switch c.Notification.Queue {
	case "memory":
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("redis host is required for the redis notification queue")
		}
	default:
		return fmt.Errorf("unknown notification queue %q", c.Notification.Queue)
	}
	if c.Notification.QueueSize <= 0 {
		return fmt.Errorf("notification queue size must be positive")
	}
	if c.Notification.Workers <= 0 {
		return fmt.Errorf("notification workers must be positive")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	if c.APNs.KeyPath != "" && (c.APNs.KeyID == "" || c.APNs.TeamID == "" || c.APNs.Topic == "") {
		return fmt.Errorf("APNs key id, team id and topic are required when APNS_KEY_PATH is set")
	}
	return nil
}

// IsDevelopment reports whether the server runs in a development environment.
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
