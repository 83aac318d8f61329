package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"moviebox/internal/config"
	"moviebox/internal/testsupport"
	"moviebox/internal/tmdb"
)

type cliTestEnv struct {
	cfg        *config.Config
	tmdb       *testsupport.TMDBServer
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("TMDB_API_KEY", "")
	srv := testsupport.NewTMDBServer(t)
	srv.AddMovie(tmdb.MovieDetails{
		ID:          673,
		Title:       "Sample",
		PosterPath:  "/abc.jpg",
		ReleaseDate: "2004-05-31",
		Runtime:     141,
		VoteAverage: 7.9,
		VoteCount:   1200,
	})
	srv.AddMovie(tmdb.MovieDetails{ID: 680, Title: "Other Movie", ReleaseDate: "1994-09-10"})

	cfg := testsupport.NewConfig(t, testsupport.WithTMDBServer(srv))
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, tmdb: srv, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\ncache_dir = %q\nlog_dir = %q\n\n"+
			"[tmdb]\napi_key = %q\nbase_url = %q\nimage_base_url = %q\n\n"+
			"[api]\nbind = %q\ntoken = \"hunter2\"\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.DataDir,
		cfg.Paths.CacheDir,
		cfg.Paths.LogDir,
		cfg.TMDB.APIKey,
		cfg.TMDB.BaseURL,
		cfg.TMDB.ImageBaseURL,
		cfg.API.Bind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
