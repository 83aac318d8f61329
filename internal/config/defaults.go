package config

const (
	defaultDataDir                  = "~/.local/share/moviebox"
	defaultCacheDirFallback         = "~/.cache/moviebox"
	defaultLogDir                   = "~/.local/share/moviebox/logs"
	defaultTMDBLanguage             = "en-US"
	defaultTMDBBaseURL              = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL         = "https://image.tmdb.org/t/p/w780"
	defaultTMDBRequestTimeout       = 10
	defaultMemoryLimitMiB           = 100
	defaultMemoryExpirationSeconds  = 600
	defaultDiskLimitMiB             = 500
	defaultDiskExpirationDays       = 7
	defaultDiskAccessExtensionHours = 6
	defaultMaxDownloadMiB           = 20
	defaultJPEGQuality              = 80
	defaultPruneIntervalMinutes     = 60
	defaultStoreBackend             = StoreBackendSQLite
	defaultMongoDatabase            = "moviebox"
	defaultRedisResponseTTLSeconds  = 3600
	defaultAPIBind                  = "127.0.0.1:7490"
	defaultModelTTLSeconds          = 900
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			ImageBaseURL:   defaultTMDBImageBaseURL,
			Language:       defaultTMDBLanguage,
			RequestTimeout: defaultTMDBRequestTimeout,
		},
		Images: Images{
			MemoryLimitMiB:           defaultMemoryLimitMiB,
			MemoryExpirationSeconds:  defaultMemoryExpirationSeconds,
			DiskLimitMiB:             defaultDiskLimitMiB,
			DiskExpirationDays:       defaultDiskExpirationDays,
			DiskAccessExtensionHours: defaultDiskAccessExtensionHours,
			MaxDownloadMiB:           defaultMaxDownloadMiB,
			JPEGQuality:              defaultJPEGQuality,
			PruneIntervalMinutes:     defaultPruneIntervalMinutes,
		},
		Store: Store{
			Backend:       defaultStoreBackend,
			MongoDatabase: defaultMongoDatabase,
		},
		Redis: Redis{
			ResponseTTLSeconds: defaultRedisResponseTTLSeconds,
		},
		API: API{
			Bind:         defaultAPIBind,
			ModelTTLSecs: defaultModelTTLSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
