// Package app assembles the storage backends and services selected by the
// configuration. The server and marqueectl both start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/msomdec/marquee/internal/config"
	"github.com/msomdec/marquee/internal/domain"
	"github.com/msomdec/marquee/internal/repository/miniostore"
	"github.com/msomdec/marquee/internal/repository/postgres"
	"github.com/msomdec/marquee/internal/repository/redisstore"
	"github.com/msomdec/marquee/internal/repository/sqlite"
	"github.com/msomdec/marquee/internal/service"
	"github.com/msomdec/marquee/internal/tmdb"
)

// OpenDatabase opens Postgres when database.postgres_url is set and SQLite
// otherwise, then applies pending migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config) (domain.Database, error) {
	var (
		db  domain.Database
		err error
	)
	if cfg.UsePostgres() {
		db, err = postgres.New(ctx, cfg.Database.PostgresURL)
	} else {
		db, err = sqlite.New(cfg.Database.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// App holds the wired services of a running server.
type App struct {
	DB      domain.Database
	Auth    *service.AuthService
	Posts   *service.PostService
	Catalog *service.CatalogService
	Posters *service.PosterService

	redis *redis.Client
}

// New opens every backend named by cfg and builds the services on top.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{DB: db}

	sessions := db.Sessions()
	if cfg.Sessions.Store == config.StoreRedis {
		rdb, err := redisstore.NewClient(ctx, cfg.Sessions.RedisAddr, cfg.Sessions.RedisPassword)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = rdb
		sessions = redisstore.NewSessionStore(rdb)
		slog.Info("sessions stored in redis", "addr", cfg.Sessions.RedisAddr)
	}

	files := db.FileStore()
	if cfg.Posters.Store == config.StoreMinio {
		store, err := miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.Posters.MinioEndpoint,
			AccessKey: cfg.Posters.MinioAccessKey,
			SecretKey: cfg.Posters.MinioSecretKey,
			Bucket:    cfg.Posters.MinioBucket,
			UseSSL:    cfg.Posters.MinioUseSSL,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		files = store
		slog.Info("posters stored in minio", "endpoint", cfg.Posters.MinioEndpoint, "bucket", cfg.Posters.MinioBucket)
	}

	provider, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, tmdb.WithTimeout(cfg.TMDBTimeout()))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Auth = service.NewAuthService(db.Users(), sessions, cfg.Server.SecretKey, cfg.Server.BcryptCost, cfg.SessionTTL())
	a.Posts = service.NewPostService(db.Posts(), db.Comments())
	a.Catalog = service.NewCatalogService(db.Catalog(), provider, cfg.TMDBTimeout())
	a.Posters = service.NewPosterService(db.Catalog(), files, provider, cfg.TMDBTimeout())
	return a, nil
}

// Close releases the database and, when used, the Redis client.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
