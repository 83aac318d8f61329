package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"moviebox/internal/config"
	"moviebox/internal/logging"
	"moviebox/internal/services"
)

// Policy controls which cache tiers a retrieval may read and populate.
type Policy int

const (
	// CacheMemoryOnly consults and fills the memory tier only; nothing is
	// read from or written to disk.
	CacheMemoryOnly Policy = iota
	// CacheAll consults memory then disk, and stores network results in both.
	CacheAll
)

func (p Policy) String() string {
	switch p {
	case CacheMemoryOnly:
		return "memory_only"
	case CacheAll:
		return "all"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Source identifies where a retrieved image came from.
type Source string

const (
	SourceMemory  Source = "memory"
	SourceDisk    Source = "disk"
	SourceNetwork Source = "network"
)

// Result carries retrieved image bytes.
type Result struct {
	Data   []byte
	Source Source
}

// Retriever fetches image bytes for an absolute URL.
type Retriever interface {
	Retrieve(ctx context.Context, url string, policy Policy) (Result, error)
}

// Limits bounds both cache tiers and network downloads.
type Limits struct {
	MemoryBytes         int64
	MemoryExpiration    time.Duration
	DiskBytes           int64
	DiskExpiration      time.Duration
	DiskAccessExtension time.Duration
	MaxDownloadBytes    int64
}

// DefaultLimits matches the defaults of the [images] config section.
func DefaultLimits() Limits {
	return Limits{
		MemoryBytes:         100 << 20,
		MemoryExpiration:    10 * time.Minute,
		DiskBytes:           500 << 20,
		DiskExpiration:      7 * 24 * time.Hour,
		DiskAccessExtension: 6 * time.Hour,
		MaxDownloadBytes:    20 << 20,
	}
}

// PruneResult summarizes a prune pass.
type PruneResult struct {
	Removed       int
	FreedBytes    int64
	MemoryExpired int
}

// Stats reports current cache usage.
type Stats struct {
	MemoryEntries int
	MemoryBytes   int64
	DiskFiles     int
	DiskBytes     int64
	Dir           string
}

// Loader is the image cache and downloader.
type Loader struct {
	httpClient *http.Client
	logger     *slog.Logger
	memory     *memoryCache
	disk       *diskCache
	maxBytes   int64
	group      singleflight.Group
	now        func() time.Time
}

var _ Retriever = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logging.NewComponentLogger(logger, "imagecache")
	}
}

// WithClock replaces the time source used for expirations.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Loader whose disk tier lives in dir. An empty dir disables
// the disk tier entirely.
func New(dir string, limits Limits, opts ...Option) *Loader {
	l := &Loader{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewNop(),
		maxBytes:   limits.MaxDownloadBytes,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	clock := func() time.Time { return l.now() }
	l.memory = newMemoryCache(limits.MemoryBytes, limits.MemoryExpiration, clock)
	l.disk = newDiskCache(strings.TrimSpace(dir), limits.DiskBytes, limits.DiskExpiration, limits.DiskAccessExtension, clock)
	return l
}

// NewFromConfig creates a Loader using the [images] section of cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) *Loader {
	if cfg == nil {
		return New("", DefaultLimits(), opts...)
	}
	limits := cfg.ImageLimits()
	return New(cfg.ImageCacheDir(), Limits{
		MemoryBytes:         limits.MemoryBytes,
		MemoryExpiration:    limits.MemoryExpiration,
		DiskBytes:           limits.DiskBytes,
		DiskExpiration:      limits.DiskExpiration,
		DiskAccessExtension: limits.DiskAccessExtension,
		MaxDownloadBytes:    limits.MaxDownloadBytes,
	}, opts...)
}

// Retrieve returns the image at rawURL, consulting the tiers allowed by policy
// before going to the network. Each call makes at most one network attempt.
func (l *Loader) Retrieve(ctx context.Context, rawURL string, policy Policy) (Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Result{}, services.Wrap(services.ErrValidation, "imagecache", "retrieve", "image url is empty", nil)
	}

	if data, ok := l.memory.get(rawURL); ok {
		return Result{Data: data, Source: SourceMemory}, nil
	}

	if policy == CacheAll {
		data, ok, err := l.disk.get(rawURL)
		if err != nil {
			logging.WarnWithContext(l.logger, "disk image cache read failed", "image_cache_read_failed",
				logging.String("url", rawURL),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the image cache directory"),
				logging.String(logging.FieldImpact, "image will be downloaded again"))
		} else if ok {
			l.memory.set(rawURL, data)
			return Result{Data: data, Source: SourceDisk}, nil
		}
	}

	ch := l.group.DoChan(rawURL, func() (any, error) {
		// Detached from the first caller so one cancellation does not fail
		// every waiter; the HTTP client timeout still bounds the request.
		return l.download(context.WithoutCancel(ctx), rawURL)
	})
	var data []byte
	select {
	case <-ctx.Done():
		return Result{}, services.Wrap(services.ErrTimeout, "imagecache", "retrieve", "image retrieval canceled", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		data = res.Val.([]byte)
	}

	l.memory.set(rawURL, data)
	if policy == CacheAll {
		if err := l.disk.set(rawURL, data); err != nil {
			logging.WarnWithContext(l.logger, "disk image cache write failed", "image_cache_write_failed",
				logging.String("url", rawURL),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions on the image cache directory"),
				logging.String(logging.FieldImpact, "image will not survive a restart"))
		}
	}
	return Result{Data: data, Source: SourceNetwork}, nil
}

func (l *Loader) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "imagecache", "download", "build request", err)
	}
	started := l.now()
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "imagecache", "download", "request image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		marker := services.ErrExternal
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, services.Wrap(marker, "imagecache", "download", fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	reader := io.Reader(resp.Body)
	if l.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, l.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "imagecache", "download", "read image body", err)
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, services.Wrap(services.ErrExternal, "imagecache", "download",
			fmt.Sprintf("image exceeds %d byte limit", l.maxBytes), nil)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrExternal, "imagecache", "download", "empty image body", nil)
	}

	l.logger.Debug("downloaded image",
		logging.String("url", rawURL),
		logging.Int("bytes", len(data)),
		logging.Duration("elapsed", l.now().Sub(started)))
	return data, nil
}

// Prune drops expired memory entries and trims the disk tier to its limits.
func (l *Loader) Prune() (PruneResult, error) {
	expired := l.memory.purgeExpired()
	result, err := l.disk.prune()
	result.MemoryExpired = expired
	if err != nil {
		return result, fmt.Errorf("prune image cache: %w", err)
	}
	if result.Removed > 0 || expired > 0 {
		l.logger.Info("pruned image cache",
			logging.String(logging.FieldEventType, "image_cache_pruned"),
			logging.Int("disk_removed", result.Removed),
			logging.Int64("freed_bytes", result.FreedBytes),
			logging.Int("memory_expired", expired))
	}
	return result, nil
}

// Clear empties both tiers.
func (l *Loader) Clear() error {
	l.memory.clear()
	if err := l.disk.clear(); err != nil {
		return fmt.Errorf("clear image cache: %w", err)
	}
	return nil
}

// Stats reports usage of both tiers.
func (l *Loader) Stats() (Stats, error) {
	entries, bytes := l.memory.usage()
	stats := Stats{MemoryEntries: entries, MemoryBytes: bytes}
	if l.disk.enabled() {
		stats.Dir = l.disk.dir
	}
	files, size, err := l.disk.usage()
	if err != nil {
		return stats, fmt.Errorf("image cache usage: %w", err)
	}
	stats.DiskFiles = files
	stats.DiskBytes = size
	return stats, nil
}

// IsNotFound reports whether err is a missing remote image.
func IsNotFound(err error) bool {
	return errors.Is(err, services.ErrNotFound)
}
