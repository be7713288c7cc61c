package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Store kinds accepted by [sessions] and [posters].
const (
	StoreDatabase = "database"
	StoreRedis    = "redis"
	StoreMinio    = "minio"
)

// Server contains HTTP and authentication settings.
type Server struct {
	Port            string `toml:"port"`
	CookieSecure    bool   `toml:"cookie_secure"`
	SecretKey       string `toml:"secret_key"`
	BcryptCost      int    `toml:"bcrypt_cost"`
	SessionTTLHours int    `toml:"session_ttl_hours"`
}

// Database selects the relational backend. A non-empty PostgresURL wins
// over the SQLite path.
type Database struct {
	Path        string `toml:"path"`
	PostgresURL string `toml:"postgres_url"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Sessions selects where login sessions live.
type Sessions struct {
	Store         string `toml:"store"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
}

// Posters selects where mirrored poster images live.
type Posters struct {
	Store          string `toml:"store"`
	MinioEndpoint  string `toml:"minio_endpoint"`
	MinioAccessKey string `toml:"minio_access_key"`
	MinioSecretKey string `toml:"minio_secret_key"`
	MinioBucket    string `toml:"minio_bucket"`
	MinioUseSSL    bool   `toml:"minio_use_ssl"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `toml:"level"`
}

// Config is every setting the server and marqueectl read.
type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	TMDB     TMDB     `toml:"tmdb"`
	Sessions Sessions `toml:"sessions"`
	Posters  Posters  `toml:"posters"`
	Logging  Logging  `toml:"logging"`
}

// Load builds a Config from defaults, the TOML file at path (MARQUEE_CONFIG
// when path is empty) and the environment. It returns the resolved file
// path and whether that file existed. Only settings every command needs are
// validated here; the server additionally calls Validate.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MARQUEE_CONFIG")
	}
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	cfg.normalize()

	if err := cfg.validateCommon(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = "marquee.toml"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false, fmt.Errorf("resolve config path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", abs)
	}
	return abs, true, nil
}

// UsePostgres reports whether the Postgres backend is configured.
func (c *Config) UsePostgres() bool {
	return c.Database.PostgresURL != ""
}

// TMDBTimeout bounds each call to the metadata provider.
func (c *Config) TMDBTimeout() time.Duration {
	return time.Duration(c.TMDB.TimeoutSeconds) * time.Second
}

// SessionTTL is how long a login stays valid.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Server.SessionTTLHours) * time.Hour
}

// LogLevel maps logging.level onto slog.
func (c *Config) LogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SampleTOML returns the annotated sample configuration.
func SampleTOML() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path, creating parent
// directories. It refuses to overwrite an existing file.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
