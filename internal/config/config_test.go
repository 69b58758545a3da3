package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Database:     DatabaseConfig{Host: "localhost", Port: 5432, User: "detour", DBName: "detour", SSLMode: "disable"},
		Redis:        RedisConfig{Host: "localhost", Port: 6379},
		JWT:          JWTConfig{Secret: strings.Repeat("s", 32)},
		Storage:      StorageConfig{Type: "postgres"},
		Notification: NotificationConfig{Queue: "memory", QueueSize: 16, Workers: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "memory storage needs no database", mutate: func(c *Config) {
			c.Storage.Type = "memory"
			c.Database = DatabaseConfig{}
		}},
		{name: "missing db host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "database host is required"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Type = "mongo" }, wantErr: "unknown storage type"},
		{name: "short jwt secret", mutate: func(c *Config) { c.JWT.Secret = "short" }, wantErr: "at least 32 characters"},
		{name: "redis queue without host", mutate: func(c *Config) {
			c.Notification.Queue = "redis"
			c.Redis.Host = ""
		}, wantErr: "redis host is required"},
		{name: "apns key without topic", mutate: func(c *Config) {
			c.APNs.KeyPath = "/keys/AuthKey.p8"
			c.APNs.KeyID = "ABC"
			c.APNs.TeamID = "TEAM"
		}, wantErr: "APNs key id, team id and topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "host=localhost port=5432 user=detour password= dbname=detour sslmode=disable", cfg.Database.GetDSN())
	assert.Equal(t, "localhost:6379", cfg.Redis.GetAddr())
}
