package config

const (
	defaultPort         = "8080"
	defaultDatabasePath = "marquee.db"
	defaultBcryptCost   = 12
	defaultSessionHours = 24
	defaultTMDBBaseURL  = "https://api.themoviedb.org/3"
	defaultTMDBLanguage = "en-US"
	defaultTMDBTimeout  = 10
	defaultRedisAddr    = "localhost:6379"
	defaultMinioBucket  = "marquee-posters"
	defaultLogLevel     = "info"
)

// Default returns a configuration populated with defaults. Secrets are empty.
func Default() Config {
	return Config{
		Server: Server{
			Port:            defaultPort,
			CookieSecure:    true,
			BcryptCost:      defaultBcryptCost,
			SessionTTLHours: defaultSessionHours,
		},
		Database: Database{
			Path: defaultDatabasePath,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			Language:       defaultTMDBLanguage,
			TimeoutSeconds: defaultTMDBTimeout,
		},
		Sessions: Sessions{
			Store:     StoreDatabase,
			RedisAddr: defaultRedisAddr,
		},
		Posters: Posters{
			Store:       StoreDatabase,
			MinioBucket: defaultMinioBucket,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
