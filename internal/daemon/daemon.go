package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"moviebox/internal/api"
	"moviebox/internal/config"
	"moviebox/internal/content"
	"moviebox/internal/imagecache"
	"moviebox/internal/logging"
	"moviebox/internal/moviecard"
	"moviebox/internal/screen"
	"moviebox/internal/tmdb"
	"moviebox/internal/tmdbcache"
)

// Daemon serves the API and maintains the image cache, enforcing
// single-instance execution per data directory.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     moviecard.Backend
	closeTMDB func() error
	images    *imagecache.Loader
	content   *content.Service
	server    *api.Server

	lockPath string
	lock     *flock.Flock

	running  atomic.Bool
	mu       sync.Mutex
	addr     string
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	serveErr chan error

	lastPrune atomic.Pointer[PruneReport]
}

// PruneReport records the outcome of the most recent cache prune.
type PruneReport struct {
	At     time.Time
	Result imagecache.PruneResult
	Err    string
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	StoreBackend string
	DatabasePath string
	LockFilePath string
	Cards        int
	Cache        imagecache.Stats
	LastPrune    *PruneReport
}

// New opens the configured card store and builds the service graph.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
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
	svc := content.NewService(fetcher, store, materializer, logger)
	server := api.New(api.Dependencies{
		Content:   svc,
		Images:    images,
		Formatter: screen.NewFormatter(cfg.TMDB.ImageBaseURL, cfg.TMDB.Language),
	}, api.OptionsFromConfig(cfg, logger))

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		closeTMDB: closeCache,
		images:    images,
		content:   svc,
		server:    server,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Content exposes the use-case service, mainly for tests.
func (d *Daemon) Content() *content.Service {
	return d.content
}

// Start acquires the daemon lock, begins serving the API and starts the
// cache maintenance loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another moviebox server is already running for this data directory")
	}

	listener, err := net.Listen("tcp", d.cfg.API.Bind)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.addr = listener.Addr().String()
	d.cancel = cancel
	d.serveErr = make(chan error, 1)
	d.mu.Unlock()

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.serveErr <- d.server.Serve(runCtx, listener)
	}()
	go func() {
		defer d.wg.Done()
		d.maintain(runCtx, d.cfg.ImageLimits().PruneInterval)
	}()

	d.running.Store(true)
	d.logger.Info("moviebox server started",
		logging.String("address", d.addr),
		logging.String("lock", d.lockPath),
		logging.String("store_backend", d.cfg.Store.Backend))
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled or the API server
// fails.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}
	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-d.serveErr:
	}
	d.Stop()
	return serveErr
}

// Stop shuts the API down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()

	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
			logging.String(logging.FieldErrorHint, "remove the lock file if no server is running"))
	}
	d.running.Store(false)
	d.logger.Info("moviebox server stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.server.Close()
	cacheErr := d.closeTMDB()
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			return err
		}
	}
	return cacheErr
}

// Address returns the address the API listens on while running.
func (d *Daemon) Address() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Address:      d.Address(),
		StoreBackend: d.cfg.Store.Backend,
		LockFilePath: d.lockPath,
		LastPrune:    d.lastPrune.Load(),
	}
	if d.cfg.Store.Backend == config.StoreBackendSQLite {
		status.DatabasePath = d.cfg.DatabasePath()
	}
	if cards, err := d.content.ListCards(ctx); err == nil {
		status.Cards = len(cards)
	}
	if stats, err := d.images.Stats(); err == nil {
		status.Cache = stats
	}
	return status
}

// PruneNow runs one cache prune and records the result.
func (d *Daemon) PruneNow() PruneReport {
	result, err := d.images.Prune()
	report := PruneReport{At: time.Now(), Result: result}
	if err != nil {
		report.Err = err.Error()
		logging.WarnWithContext(d.logger, "image cache prune failed", "image_cache_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the cache directory"),
			logging.String(logging.FieldImpact, "disk cache may exceed its size limit"))
	} else if result.Removed > 0 || result.MemoryExpired > 0 {
		d.logger.Info("image cache pruned",
			logging.Int("removed", result.Removed),
			logging.Int64("freed_bytes", result.FreedBytes),
			logging.Int("memory_expired", result.MemoryExpired))
	}
	d.lastPrune.Store(&report)
	return report
}

func (d *Daemon) maintain(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	d.PruneNow()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.PruneNow()
		}
	}
}
