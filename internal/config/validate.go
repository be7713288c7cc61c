package config

import (
	"errors"
	"fmt"
)

// Validate checks everything the web server needs: the common settings
// plus the session signing secret and the TMDB credential.
func (c *Config) Validate() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	if c.Server.SecretKey == "" {
		return errors.New("server.secret_key is required. Set SECRET_KEY or edit the config file")
	}
	if len(c.Server.SecretKey) < 32 {
		return errors.New("server.secret_key must be at least 32 characters for HMAC-SHA256 security")
	}
	if c.TMDB.APIKey == "" {
		return errors.New("tmdb.api_key is required. Set TMDB_API or edit the config file")
	}
	return nil
}

func (c *Config) validateCommon() error {
	if c.Server.Port == "" {
		return errors.New("server.port must be set")
	}
	if c.Server.BcryptCost < 4 || c.Server.BcryptCost > 14 {
		return fmt.Errorf("server.bcrypt_cost must be between 4 and 14, got %d", c.Server.BcryptCost)
	}
	if c.Server.SessionTTLHours <= 0 {
		return errors.New("server.session_ttl_hours must be positive")
	}
	if !c.UsePostgres() && c.Database.Path == "" {
		return errors.New("database.path must be set when database.postgres_url is empty")
	}
	if c.TMDB.TimeoutSeconds <= 0 {
		return errors.New("tmdb.timeout_seconds must be positive")
	}
	if c.TMDB.BaseURL == "" {
		return errors.New("tmdb.base_url must be set")
	}

	switch c.Sessions.Store {
	case StoreDatabase:
	case StoreRedis:
		if c.Sessions.RedisAddr == "" {
			return errors.New("sessions.redis_addr is required when sessions.store is redis")
		}
	default:
		return fmt.Errorf("sessions.store must be %q or %q, got %q", StoreDatabase, StoreRedis, c.Sessions.Store)
	}

	switch c.Posters.Store {
	case StoreDatabase:
	case StoreMinio:
		if c.Posters.MinioEndpoint == "" || c.Posters.MinioBucket == "" {
			return errors.New("posters.minio_endpoint and posters.minio_bucket are required when posters.store is minio")
		}
	default:
		return fmt.Errorf("posters.store must be %q or %q, got %q", StoreDatabase, StoreMinio, c.Posters.Store)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
