package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"moviebox/internal/config"
	"moviebox/internal/content"
	"moviebox/internal/imagecache"
	"moviebox/internal/logging"
	"moviebox/internal/moviecard"
	"moviebox/internal/screen"
	"moviebox/internal/tmdb"
	"moviebox/internal/tmdbcache"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	appMu sync.Mutex
	app   *app
}

// app is the service graph a one-shot command works against.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     moviecard.Backend
	closeTMDB func() error
	images    *imagecache.Loader
	content   *content.Service
	formatter screen.Formatter
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// openApp builds the service graph once per command invocation.
func (c *commandContext) openApp(ctx context.Context) (*app, error) {
	c.appMu.Lock()
	defer c.appMu.Unlock()
	if c.app != nil {
		return c.app, nil
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	store, err := moviecard.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open card store: %w", err)
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithTimeout(cfg.TMDBTimeout()),
		tmdb.WithLogger(logger),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("tmdb client: %w", err)
	}
	fetcher, closeCache, err := tmdbcache.Wrap(ctx, cfg, client, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("tmdb response cache: %w", err)
	}
	images := imagecache.NewFromConfig(cfg, imagecache.WithLogger(logger))
	materializer := moviecard.NewMaterializer(images, moviecard.MaterializerOptions{
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		JPEGQuality:  cfg.Images.JPEGQuality,
		Logger:       logger,
	})

	c.app = &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		images:    images,
		content:   content.NewService(fetcher, store, materializer, logger),
		closeTMDB: closeCache,
		formatter: screen.NewFormatter(cfg.TMDB.ImageBaseURL, cfg.TMDB.Language),
	}
	return c.app, nil
}

func (c *commandContext) close() error {
	c.appMu.Lock()
	defer c.appMu.Unlock()
	if c.app == nil {
		return nil
	}
	cacheErr := c.app.closeTMDB()
	err := c.app.store.Close()
	c.app = nil
	if err != nil {
		return err
	}
	return cacheErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseMovieID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("movie id must be a positive integer")
	}
	return id, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
