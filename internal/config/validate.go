package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if c.Redis.DB < 0 {
		return errors.New("redis.db must not be negative")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/moviebox/config.toml"
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'moviebox config init')", defaultPath)
	}
	for key, raw := range map[string]string{
		"tmdb.base_url":       c.TMDB.BaseURL,
		"tmdb.image_base_url": c.TMDB.ImageBaseURL,
	} {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
		}
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return errors.New("images.jpeg_quality must be between 1 and 100")
	}
	if c.Images.MaxDownloadMiB > c.Images.MemoryLimitMiB {
		return errors.New("images.max_download_mib must not exceed images.memory_limit_mib")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreBackendSQLite:
		return nil
	case StoreBackendMongo:
		if strings.TrimSpace(c.Store.MongoURI) == "" {
			return errors.New("store.mongo_uri must be set when store.backend is \"mongo\" (or set MOVIEBOX_MONGO_URI)")
		}
		return nil
	case StoreBackendPostgres:
		if strings.TrimSpace(c.Store.PostgresDSN) == "" {
			return errors.New("store.postgres_dsn must be set when store.backend is \"postgres\" (or set MOVIEBOX_POSTGRES_DSN)")
		}
		return nil
	default:
		return fmt.Errorf("store.backend: unsupported value %q (want sqlite, mongo or postgres)", c.Store.Backend)
	}
}
