package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	ImageBaseURL   string `toml:"image_base_url"`
	Language       string `toml:"language"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Images contains configuration for the poster/backdrop image cache.
type Images struct {
	MemoryLimitMiB           int `toml:"memory_limit_mib"`
	MemoryExpirationSeconds  int `toml:"memory_expiration_seconds"`
	DiskLimitMiB             int `toml:"disk_limit_mib"`
	DiskExpirationDays       int `toml:"disk_expiration_days"`
	DiskAccessExtensionHours int `toml:"disk_access_extension_hours"`
	MaxDownloadMiB           int `toml:"max_download_mib"`
	JPEGQuality              int `toml:"jpeg_quality"`
	PruneIntervalMinutes     int `toml:"prune_interval_minutes"`
}

// Store backends.
const (
	StoreBackendSQLite   = "sqlite"
	StoreBackendMongo    = "mongo"
	StoreBackendPostgres = "postgres"
)

// Store selects and configures the movie card persistence backend.
type Store struct {
	Backend       string `toml:"backend"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	PostgresDSN   string `toml:"postgres_dsn"`
}

// Redis configures the optional shared cache of TMDB responses. An empty
// Addr disables it.
type Redis struct {
	Addr               string `toml:"addr"`
	Password           string `toml:"password"`
	DB                 int    `toml:"db"`
	ResponseTTLSeconds int    `toml:"response_ttl_seconds"`
}

// API contains configuration for the HTTP API server.
type API struct {
	Bind         string `toml:"bind"`
	ReleaseMode  bool   `toml:"release_mode"`
	ModelTTLSecs int    `toml:"model_ttl_seconds"`
	// Token, when set, is required as "Authorization: Bearer <token>" on
	// every route except /api/health.
	Token string `toml:"token"`
	// JWTSecret, when set, also accepts HS256 bearer tokens signed with it
	// (see "moviebox token").
	JWTSecret string `toml:"jwt_secret"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for MovieBox.
//
// Configuration sections by subsystem:
//   - Paths: data, cache and log directories
//   - TMDB: remote movie metadata and image hosts
//   - Images: memory/disk image cache limits and poster encoding
//   - Store: movie card backend (sqlite, mongo or postgres)
//   - Redis: optional shared TMDB response cache
//   - API: HTTP API bind address and screen model lifetime
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	TMDB    TMDB    `toml:"tmdb"`
	Images  Images  `toml:"images"`
	Store   Store   `toml:"store"`
	Redis   Redis   `toml:"redis"`
	API     API     `toml:"api"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/moviebox/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("moviebox.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite movie card database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "moviebox.db")
}

// LockPath returns the single-instance lock file used by the API server.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "moviebox.lock")
}

// ImageCacheDir returns the disk tier directory of the image cache.
func (c *Config) ImageCacheDir() string {
	return filepath.Join(c.Paths.CacheDir, "images")
}

// TMDBTimeout returns the per-request timeout for TMDB calls.
func (c *Config) TMDBTimeout() time.Duration {
	return time.Duration(c.TMDB.RequestTimeout) * time.Second
}

// ImageCacheLimits holds derived image cache settings in native units.
type ImageCacheLimits struct {
	MemoryBytes         int64
	MemoryExpiration    time.Duration
	DiskBytes           int64
	DiskExpiration      time.Duration
	DiskAccessExtension time.Duration
	MaxDownloadBytes    int64
	PruneInterval       time.Duration
}

// ImageLimits converts the [images] section into byte and duration values.
func (c *Config) ImageLimits() ImageCacheLimits {
	const mib = 1 << 20
	return ImageCacheLimits{
		MemoryBytes:         int64(c.Images.MemoryLimitMiB) * mib,
		MemoryExpiration:    time.Duration(c.Images.MemoryExpirationSeconds) * time.Second,
		DiskBytes:           int64(c.Images.DiskLimitMiB) * mib,
		DiskExpiration:      time.Duration(c.Images.DiskExpirationDays) * 24 * time.Hour,
		DiskAccessExtension: time.Duration(c.Images.DiskAccessExtensionHours) * time.Hour,
		MaxDownloadBytes:    int64(c.Images.MaxDownloadMiB) * mib,
		PruneInterval:       time.Duration(c.Images.PruneIntervalMinutes) * time.Minute,
	}
}

// RedisResponseTTL returns how long cached TMDB responses stay in Redis.
func (c *Config) RedisResponseTTL() time.Duration {
	return time.Duration(c.Redis.ResponseTTLSeconds) * time.Second
}

// ModelTTL returns how long the API keeps an idle movie content model.
func (c *Config) ModelTTL() time.Duration {
	return time.Duration(c.API.ModelTTLSecs) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "moviebox")
	}
	return defaultCacheDirFallback
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print: credentials are masked.
func (c Config) Redacted() Config {
	out := c
	out.TMDB.APIKey = mask(c.TMDB.APIKey)
	out.Store.MongoURI = mask(c.Store.MongoURI)
	out.Store.PostgresDSN = mask(c.Store.PostgresDSN)
	out.Redis.Password = mask(c.Redis.Password)
	out.API.Token = mask(c.API.Token)
	out.API.JWTSecret = mask(c.API.JWTSecret)
	return out
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
