package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/msomdec/marquee/internal/config"
)

var envKeys = []string{
	"MARQUEE_CONFIG", "PORT", "SECRET_KEY", "DATABASE_PATH", "POSTGRES_DATABASE_URL",
	"TMDB_API", "TMDB_BASE_URL", "TMDB_LANGUAGE", "TMDB_TIMEOUT_SECONDS",
	"SESSION_STORE", "REDIS_ADDR", "REDIS_PASSWORD", "POSTER_STORE",
	"MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET", "MINIO_USE_SSL",
	"COOKIE_SECURE", "BCRYPT_COST", "LOG_LEVEL",
}

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)

	cfg, resolved, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Server.Port != "8080" || cfg.Database.Path != "marquee.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.UsePostgres() {
		t.Fatal("expected SQLite by default")
	}
	if cfg.TMDBTimeout() != 10*time.Second {
		t.Fatalf("unexpected TMDB timeout %v", cfg.TMDBTimeout())
	}
	if cfg.SessionTTL() != 24*time.Hour {
		t.Fatalf("unexpected session TTL %v", cfg.SessionTTL())
	}
	if cfg.Sessions.Store != config.StoreDatabase || cfg.Posters.Store != config.StoreDatabase {
		t.Fatalf("unexpected store kinds: %q %q", cfg.Sessions.Store, cfg.Posters.Store)
	}
	if !cfg.Server.CookieSecure {
		t.Fatal("expected secure cookies by default")
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "marquee.toml")
	cfg := config.Default()
	cfg.Server.Port = "9000"
	cfg.TMDB.APIKey = "file-key"
	cfg.Logging.Level = "debug"
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TMDB_API", "env-key")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("POSTGRES_DATABASE_URL", "postgres://localhost/marquee")

	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if loaded.Server.Port != "9000" {
		t.Fatalf("expected port from file, got %q", loaded.Server.Port)
	}
	if loaded.TMDB.APIKey != "env-key" {
		t.Fatalf("expected env to win, got %q", loaded.TMDB.APIKey)
	}
	if loaded.Server.CookieSecure {
		t.Fatal("expected COOKIE_SECURE=false to disable secure cookies")
	}
	if !loaded.UsePostgres() {
		t.Fatal("expected Postgres to be selected")
	}
	if loaded.LogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", loaded.LogLevel())
	}
}

func TestLoadUsesMarqueeConfigVariable(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = \"7000\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MARQUEE_CONFIG", path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %s to be loaded, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Server.Port != "7000" {
		t.Fatalf("expected port 7000, got %q", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"bcrypt too low", "BCRYPT_COST", "3", "bcrypt_cost"},
		{"bcrypt not a number", "BCRYPT_COST", "abc", "BCRYPT_COST"},
		{"unknown session store", "SESSION_STORE", "memcached", "sessions.store"},
		{"unknown poster store", "POSTER_STORE", "s3", "posters.store"},
		{"minio without endpoint", "POSTER_STORE", "minio", "minio_endpoint"},
		{"bad bool", "COOKIE_SECURE", "maybe", "COOKIE_SECURE"},
		{"bad log level", "LOG_LEVEL", "verbose", "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateRequiresSecretAndTMDB(t *testing.T) {
	clearEnv(t)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "secret_key") {
		t.Fatalf("expected missing secret error, got %v", err)
	}

	cfg.Server.SecretKey = "short"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "32 characters") {
		t.Fatalf("expected short secret error, got %v", err)
	}

	cfg.Server.SecretKey = secret
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "tmdb.api_key") {
		t.Fatalf("expected missing TMDB error, got %v", err)
	}

	cfg.TMDB.APIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestSampleConfigParses(t *testing.T) {
	var cfg config.Config
	if err := toml.Unmarshal([]byte(config.SampleTOML()), &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Server.BcryptCost != 12 || cfg.Posters.MinioBucket != "marquee-posters" {
		t.Fatalf("unexpected sample values: %+v", cfg)
	}
}

func TestCreateSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "marquee.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when file exists")
	}
}
