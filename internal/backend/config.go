package backend

import (
	"fmt"
	"strings"

	"gstdash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Data: DataType(appConfig.DataBackend),

		APIBaseURL: appConfig.APIBaseURL,
		APIKey:     appConfig.APIKey,
		CacheTTL:   appConfig.APICacheTTL,

		DataDirectory: appConfig.DataDir,

		Sessions:   SessionType(appConfig.SessionBackend),
		SessionTTL: appConfig.SessionTTL,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Data.IsValid() {
		return fmt.Errorf("invalid data backend: %s", c.Data)
	}
	if !c.Sessions.IsValid() {
		return fmt.Errorf("invalid session backend: %s", c.Sessions)
	}

	switch c.Data {
	case HTTPData:
		if strings.TrimSpace(c.APIBaseURL) == "" {
			return fmt.Errorf("API base URL is required for http data backend")
		}
	case MemoryData:
		// DataDirectory defaults to "data" when empty
	}

	switch c.Sessions {
	case SQLiteSessions:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite session backend")
		}
	case RedisSessions:
		if c.RedisAddr == "" {
			return fmt.Errorf("Redis address is required for redis session backend")
		}
	}

	// AMQP is optional, so we don't validate it
	return nil
}

// DataTypes returns all valid data backend types
func DataTypes() []DataType {
	return []DataType{HTTPData, MemoryData}
}

// SessionTypes returns all valid session backend types
func SessionTypes() []SessionType {
	return []SessionType{MemorySessions, SQLiteSessions, RedisSessions}
}
