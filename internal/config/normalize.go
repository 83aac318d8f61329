package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTMDB(); err != nil {
		return err
	}
	c.normalizeImages()
	c.normalizeStore()
	c.normalizeRedis()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() error {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	// Poster paths from TMDB start with "/", so the base keeps no trailing slash.
	c.TMDB.ImageBaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.ImageBaseURL), "/")
	if c.TMDB.ImageBaseURL == "" {
		c.TMDB.ImageBaseURL = defaultTMDBImageBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	tag, err := language.Parse(c.TMDB.Language)
	if err != nil {
		return fmt.Errorf("tmdb.language: invalid language tag %q: %w", c.TMDB.Language, err)
	}
	c.TMDB.Language = tag.String()
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
	return nil
}

func (c *Config) normalizeImages() {
	if c.Images.MemoryLimitMiB <= 0 {
		c.Images.MemoryLimitMiB = defaultMemoryLimitMiB
	}
	if c.Images.MemoryExpirationSeconds <= 0 {
		c.Images.MemoryExpirationSeconds = defaultMemoryExpirationSeconds
	}
	if c.Images.DiskLimitMiB <= 0 {
		c.Images.DiskLimitMiB = defaultDiskLimitMiB
	}
	if c.Images.DiskExpirationDays <= 0 {
		c.Images.DiskExpirationDays = defaultDiskExpirationDays
	}
	if c.Images.DiskAccessExtensionHours < 0 {
		c.Images.DiskAccessExtensionHours = 0
	}
	if c.Images.MaxDownloadMiB <= 0 {
		c.Images.MaxDownloadMiB = defaultMaxDownloadMiB
	}
	if c.Images.JPEGQuality == 0 {
		c.Images.JPEGQuality = defaultJPEGQuality
	}
	if c.Images.PruneIntervalMinutes <= 0 {
		c.Images.PruneIntervalMinutes = defaultPruneIntervalMinutes
	}
}

func (c *Config) normalizeStore() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreBackend
	}
	if c.Store.MongoURI == "" {
		if value, ok := os.LookupEnv("MOVIEBOX_MONGO_URI"); ok {
			c.Store.MongoURI = value
		}
	}
	c.Store.MongoURI = strings.TrimSpace(c.Store.MongoURI)
	c.Store.MongoDatabase = strings.TrimSpace(c.Store.MongoDatabase)
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = defaultMongoDatabase
	}
	if c.Store.PostgresDSN == "" {
		if value, ok := os.LookupEnv("MOVIEBOX_POSTGRES_DSN"); ok {
			c.Store.PostgresDSN = value
		}
	}
	c.Store.PostgresDSN = strings.TrimSpace(c.Store.PostgresDSN)
}

func (c *Config) normalizeRedis() {
	if c.Redis.Addr == "" {
		if value, ok := os.LookupEnv("MOVIEBOX_REDIS_ADDR"); ok {
			c.Redis.Addr = value
		}
	}
	c.Redis.Addr = strings.TrimSpace(c.Redis.Addr)
	if c.Redis.ResponseTTLSeconds <= 0 {
		c.Redis.ResponseTTLSeconds = defaultRedisResponseTTLSeconds
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	if c.API.ModelTTLSecs <= 0 {
		c.API.ModelTTLSecs = defaultModelTTLSeconds
	}
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("MOVIEBOX_API_TOKEN"); ok {
			c.API.Token = value
		}
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.JWTSecret == "" {
		if value, ok := os.LookupEnv("MOVIEBOX_API_JWT_SECRET"); ok {
			c.API.JWTSecret = value
		}
	}
	c.API.JWTSecret = strings.TrimSpace(c.API.JWTSecret)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
