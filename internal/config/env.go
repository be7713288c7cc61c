package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// applyEnv overlays environment variables on top of the file values.
func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.SecretKey, "SECRET_KEY")
	setString(&c.Database.Path, "DATABASE_PATH")
	setString(&c.Database.PostgresURL, "POSTGRES_DATABASE_URL")
	setString(&c.TMDB.APIKey, "TMDB_API")
	setString(&c.TMDB.BaseURL, "TMDB_BASE_URL")
	setString(&c.TMDB.Language, "TMDB_LANGUAGE")
	setString(&c.Sessions.Store, "SESSION_STORE")
	setString(&c.Sessions.RedisAddr, "REDIS_ADDR")
	setString(&c.Sessions.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Posters.Store, "POSTER_STORE")
	setString(&c.Posters.MinioEndpoint, "MINIO_ENDPOINT")
	setString(&c.Posters.MinioAccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Posters.MinioSecretKey, "MINIO_SECRET_KEY")
	setString(&c.Posters.MinioBucket, "MINIO_BUCKET")
	setString(&c.Logging.Level, "LOG_LEVEL")

	if err := setBool(&c.Server.CookieSecure, "COOKIE_SECURE"); err != nil {
		return err
	}
	if err := setBool(&c.Posters.MinioUseSSL, "MINIO_USE_SSL"); err != nil {
		return err
	}
	if err := setInt(&c.Server.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}
	return setInt(&c.TMDB.TimeoutSeconds, "TMDB_TIMEOUT_SECONDS")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setBool(dst *bool, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setInt(dst *int, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func (c *Config) normalize() {
	c.Sessions.Store = strings.ToLower(strings.TrimSpace(c.Sessions.Store))
	c.Posters.Store = strings.ToLower(strings.TrimSpace(c.Posters.Store))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.Sessions.Store == "" {
		c.Sessions.Store = StoreDatabase
	}
	if c.Posters.Store == "" {
		c.Posters.Store = StoreDatabase
	}
}
