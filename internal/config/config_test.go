package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"moviebox/internal/config"
)

func TestLoadDefaultConfigUsesEnvTMDBKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("XDG_CACHE_HOME", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "moviebox")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "moviebox") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.TMDB.APIKey != "test-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.ImageBaseURL != "https://image.tmdb.org/t/p/w780" {
		t.Fatalf("unexpected image base url: %q", cfg.TMDB.ImageBaseURL)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Fatalf("expected sqlite backend by default, got %q", cfg.Store.Backend)
	}
	if cfg.Images.JPEGQuality != 80 {
		t.Fatalf("expected jpeg quality 80, got %d", cfg.Images.JPEGQuality)
	}
	limits := cfg.ImageLimits()
	if limits.MemoryBytes != 100<<20 {
		t.Fatalf("unexpected memory limit: %d", limits.MemoryBytes)
	}
	if limits.DiskExpiration.Hours() != 7*24 {
		t.Fatalf("unexpected disk expiration: %v", limits.DiskExpiration)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.CacheDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "moviebox.toml")

	type payload struct {
		TMDB struct {
			APIKey       string `toml:"api_key"`
			ImageBaseURL string `toml:"image_base_url"`
			Language     string `toml:"language"`
		} `toml:"tmdb"`
		Images struct {
			JPEGQuality int `toml:"jpeg_quality"`
		} `toml:"images"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.TMDB.APIKey = "abc123"
	custom.TMDB.ImageBaseURL = "https://images.example.com/t/p/w500/"
	custom.TMDB.Language = "ko-kr"
	custom.Images.JPEGQuality = 65
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.TMDB.APIKey != "abc123" {
		t.Fatalf("expected TMDB key from file, got %q", cfg.TMDB.APIKey)
	}
	if cfg.TMDB.ImageBaseURL != "https://images.example.com/t/p/w500" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.TMDB.ImageBaseURL)
	}
	if cfg.TMDB.Language != "ko-KR" {
		t.Fatalf("expected canonical language tag, got %q", cfg.TMDB.Language)
	}
	if cfg.Images.JPEGQuality != 65 {
		t.Fatalf("expected jpeg quality 65, got %d", cfg.Images.JPEGQuality)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"missing key":       "[tmdb]\napi_key = \"\"\n",
		"bad language":      "[tmdb]\napi_key = \"k\"\nlanguage = \"not a tag!!\"\n",
		"bad backend":       "[tmdb]\napi_key = \"k\"\n[store]\nbackend = \"redis\"\n",
		"mongo without uri": "[tmdb]\napi_key = \"k\"\n[store]\nbackend = \"mongo\"\n",
		"postgres no dsn":   "[tmdb]\napi_key = \"k\"\n[store]\nbackend = \"postgres\"\n",
		"negative redis db": "[tmdb]\napi_key = \"k\"\n[redis]\ndb = -1\n",
		"bad quality":       "[tmdb]\napi_key = \"k\"\n[images]\njpeg_quality = 150\n",
		"relative base url": "[tmdb]\napi_key = \"k\"\nimage_base_url = \"t/p/w780\"\n",
	}
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("MOVIEBOX_MONGO_URI", "")
	t.Setenv("MOVIEBOX_POSTGRES_DSN", "")
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "moviebox.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestMongoURIFromEnv(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "k")
	t.Setenv("MOVIEBOX_MONGO_URI", "mongodb://localhost:27017")
	path := filepath.Join(t.TempDir(), "moviebox.toml")
	if err := os.WriteFile(path, []byte("[store]\nbackend = \"Mongo\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Store.Backend != "mongo" || cfg.Store.MongoURI != "mongodb://localhost:27017" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if red := cfg.Redacted(); strings.Contains(red.Store.MongoURI, "localhost") || red.TMDB.APIKey == "k" {
		t.Fatalf("expected credentials masked, got %+v", red)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "sample")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}

func TestRedisAndJWTFromEnv(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "k")
	t.Setenv("MOVIEBOX_REDIS_ADDR", " localhost:6379 ")
	t.Setenv("MOVIEBOX_API_JWT_SECRET", "s3cret")
	t.Setenv("MOVIEBOX_POSTGRES_DSN", "postgres://u:p@localhost/moviebox")
	path := filepath.Join(t.TempDir(), "moviebox.toml")
	if err := os.WriteFile(path, []byte("[store]\nbackend = \"postgres\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.Redis.Addr)
	}
	if cfg.RedisResponseTTL().Hours() != 1 {
		t.Fatalf("unexpected redis ttl %v", cfg.RedisResponseTTL())
	}
	if cfg.API.JWTSecret != "s3cret" || cfg.Store.PostgresDSN == "" {
		t.Fatalf("unexpected config %+v %+v", cfg.API, cfg.Store)
	}
	red := cfg.Redacted()
	if red.API.JWTSecret == "s3cret" || strings.Contains(red.Store.PostgresDSN, "localhost") {
		t.Fatalf("expected secrets masked, got %+v", red)
	}
}
