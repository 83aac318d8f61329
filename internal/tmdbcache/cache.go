// Package tmdbcache shares TMDB responses between MovieBox processes through
// Redis. Fetcher decorates a tmdb.Fetcher with a cache-aside lookup: hits are
// decoded from JSON, misses go upstream and are stored with a TTL. Redis
// failures never fail a request; they are logged and the upstream answer is
// used.
package tmdbcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"moviebox/internal/config"
	"moviebox/internal/logging"
	"moviebox/internal/services"
	"moviebox/internal/tmdb"
)

const keyPrefix = "moviebox:tmdb:"

// Fetcher is a tmdb.Fetcher backed by a Redis response cache.
type Fetcher struct {
	next      tmdb.Fetcher
	client    redis.Cmdable
	ttl       time.Duration
	namespace string
	logger    *slog.Logger
}

var _ tmdb.Fetcher = (*Fetcher)(nil)

// Options configure a Fetcher.
type Options struct {
	TTL time.Duration
	// Language namespaces keys so differently localized responses never mix.
	Language string
	Logger   *slog.Logger
}

// New wraps next with the Redis cache reachable through client.
func New(next tmdb.Fetcher, client redis.Cmdable, opts Options) *Fetcher {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = "default"
	}
	return &Fetcher{
		next:      next,
		client:    client,
		ttl:       ttl,
		namespace: keyPrefix + lang + ":",
		logger:    logging.NewComponentLogger(opts.Logger, "tmdbcache"),
	}
}

// Connect opens and pings the Redis client described by the [redis] section.
func Connect(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, services.Wrap(services.ErrConfiguration, "tmdbcache", "connect", fmt.Sprintf("ping redis at %s", cfg.Addr), err)
	}
	return client, nil
}

// Wrap decorates next with the Redis cache when cfg enables it. The returned
// close function releases the Redis client and is never nil.
func Wrap(ctx context.Context, cfg *config.Config, next tmdb.Fetcher, logger *slog.Logger) (tmdb.Fetcher, func() error, error) {
	if cfg == nil || cfg.Redis.Addr == "" {
		return next, func() error { return nil }, nil
	}
	client, err := Connect(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return New(next, client, Options{
		TTL:      cfg.RedisResponseTTL(),
		Language: cfg.TMDB.Language,
		Logger:   logger,
	}), client.Close, nil
}

func (f *Fetcher) MovieDetails(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error) {
	return cached(ctx, f, fmt.Sprintf("movie:%d", movieID), func(ctx context.Context) (*tmdb.MovieDetails, error) {
		return f.next.MovieDetails(ctx, movieID)
	})
}

func (f *Fetcher) MovieCredits(ctx context.Context, movieID int64) (*tmdb.Credits, error) {
	return cached(ctx, f, fmt.Sprintf("movie:%d:credits", movieID), func(ctx context.Context) (*tmdb.Credits, error) {
		return f.next.MovieCredits(ctx, movieID)
	})
}

func (f *Fetcher) MovieImages(ctx context.Context, movieID int64) (*tmdb.Images, error) {
	return cached(ctx, f, fmt.Sprintf("movie:%d:images", movieID), func(ctx context.Context) (*tmdb.Images, error) {
		return f.next.MovieImages(ctx, movieID)
	})
}

func (f *Fetcher) MovieVideos(ctx context.Context, movieID int64) (*tmdb.Videos, error) {
	return cached(ctx, f, fmt.Sprintf("movie:%d:videos", movieID), func(ctx context.Context) (*tmdb.Videos, error) {
		return f.next.MovieVideos(ctx, movieID)
	})
}

func (f *Fetcher) SimilarMovies(ctx context.Context, movieID int64, page int) (*tmdb.MoviePage, error) {
	return cached(ctx, f, fmt.Sprintf("movie:%d:similar:%d", movieID, page), func(ctx context.Context) (*tmdb.MoviePage, error) {
		return f.next.SimilarMovies(ctx, movieID, page)
	})
}

func (f *Fetcher) RecommendedMovies(ctx context.Context, movieID int64, page int) (*tmdb.MoviePage, error) {
	return cached(ctx, f, fmt.Sprintf("movie:%d:recommendations:%d", movieID, page), func(ctx context.Context) (*tmdb.MoviePage, error) {
		return f.next.RecommendedMovies(ctx, movieID, page)
	})
}

func (f *Fetcher) MovieList(ctx context.Context, kind tmdb.ListKind, page int) (*tmdb.MoviePage, error) {
	return cached(ctx, f, fmt.Sprintf("list:%s:%d", kind, page), func(ctx context.Context) (*tmdb.MoviePage, error) {
		return f.next.MovieList(ctx, kind, page)
	})
}

// SearchMovies is not cached; free-text queries rarely repeat.
func (f *Fetcher) SearchMovies(ctx context.Context, query string, page int) (*tmdb.MoviePage, error) {
	return f.next.SearchMovies(ctx, query, page)
}

func cached[T any](ctx context.Context, f *Fetcher, key string, load func(context.Context) (*T, error)) (*T, error) {
	key = f.namespace + key
	logger := logging.WithContext(ctx, f.logger)

	raw, err := f.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out T
		jsonErr := json.Unmarshal(raw, &out)
		if jsonErr == nil {
			logger.Debug("tmdb cache hit", logging.String("key", key))
			return &out, nil
		}
		logging.WarnWithContext(logger, "tmdb cache entry unreadable", "tmdb_cache_decode_failed",
			logging.String("key", key),
			logging.Error(jsonErr),
			logging.String(logging.FieldErrorHint, "the entry is replaced on this request"),
			logging.String(logging.FieldImpact, "one extra TMDB request"))
	case errors.Is(err, redis.Nil):
	default:
		if ctx.Err() != nil {
			return nil, services.Wrap(services.ErrTimeout, "tmdbcache", "get", "request cancelled", ctx.Err())
		}
		logging.WarnWithContext(logger, "tmdb cache lookup failed", "tmdb_cache_get_failed",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that redis.addr is reachable"),
			logging.String(logging.FieldImpact, "requests go straight to TMDB"),
			logging.Alert("redis_unavailable"))
	}

	value, err := load(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return value, nil
	}
	if err := f.client.Set(ctx, key, payload, f.ttl).Err(); err != nil && ctx.Err() == nil {
		logging.WarnWithContext(logger, "tmdb cache store failed", "tmdb_cache_set_failed",
			logging.String("key", key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check redis memory limits and connectivity"),
			logging.String(logging.FieldImpact, "response is not shared with other processes"))
	}
	return value, nil
}
