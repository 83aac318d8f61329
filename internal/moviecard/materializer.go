package moviecard

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"moviebox/internal/imagecache"
	"moviebox/internal/imagex"
	"moviebox/internal/logging"
	"moviebox/internal/services"
	"moviebox/internal/tmdb"
)

// MaterializerOptions configures a Materializer.
type MaterializerOptions struct {
	// ImageBaseURL is prefixed to the movie's poster path, e.g.
	// "https://image.tmdb.org/t/p/w780".
	ImageBaseURL string
	JPEGQuality  int
	Clock        func() time.Time
	Logger       *slog.Logger
}

// Materializer turns a fetched movie plus its optional stored card into the
// card the screen shows.
type Materializer struct {
	images       imagecache.Retriever
	imageBaseURL string
	quality      int
	now          func() time.Time
	logger       *slog.Logger
}

// NewMaterializer creates a Materializer that downloads posters through images.
func NewMaterializer(images imagecache.Retriever, opts MaterializerOptions) *Materializer {
	m := &Materializer{
		images:       images,
		imageBaseURL: strings.TrimSpace(opts.ImageBaseURL),
		quality:      opts.JPEGQuality,
		now:          opts.Clock,
		logger:       logging.NewComponentLogger(opts.Logger, "moviecard"),
	}
	if m.quality < 1 || m.quality > 100 {
		m.quality = imagex.DefaultQuality
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

var errEmptyPosterPath = errors.New("movie has no poster path")

// Materialize returns existing verbatim when it is non-nil. Otherwise it
// builds a new card for info with rate 0 and an empty comment, whose poster
// is the movie's poster re-encoded as JPEG, or nil when the poster URL cannot
// be built or the image cannot be retrieved or decoded. Materialize never
// fails and makes at most one network attempt, through the memory tier only.
func (m *Materializer) Materialize(ctx context.Context, info tmdb.MovieDetails, existing *Card) Card {
	if existing != nil {
		return *existing
	}
	return Card{
		MovieID:   info.ID,
		Poster:    m.poster(ctx, info),
		Title:     info.Title,
		Rate:      0,
		Comment:   "",
		CreatedAt: m.now(),
	}
}

func (m *Materializer) poster(ctx context.Context, info tmdb.MovieDetails) []byte {
	if _, ok := services.MovieIDFromContext(ctx); !ok {
		ctx = services.WithMovieID(ctx, info.ID)
	}
	logger := logging.WithContext(ctx, m.logger)

	posterURL, err := m.posterURL(info.PosterPath)
	if err != nil {
		logging.WarnWithContext(logger, "poster url could not be built", "poster_url_invalid",
			logging.String("poster_path", info.PosterPath),
			logging.String("image_base_url", m.imageBaseURL),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check tmdb.image_base_url"),
			logging.String(logging.FieldImpact, "movie card is created without a poster"))
		return nil
	}
	if m.images == nil {
		logging.WarnWithContext(logger, "no image loader configured", "poster_loader_missing",
			logging.String(logging.FieldImpact, "movie card is created without a poster"))
		return nil
	}

	result, err := m.images.Retrieve(ctx, posterURL, imagecache.CacheMemoryOnly)
	if err != nil {
		logging.WarnWithContext(logger, "poster retrieval failed", "poster_retrieve_failed",
			logging.String("url", posterURL),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check network access to the TMDB image host"),
			logging.String(logging.FieldImpact, "movie card is created without a poster"))
		return nil
	}

	encoded, err := imagex.RecompressJPEG(result.Data, m.quality)
	if err != nil {
		logging.WarnWithContext(logger, "poster could not be re-encoded", "poster_encode_failed",
			logging.String("url", posterURL),
			logging.Int("bytes", len(result.Data)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the image host returned data that is not a decodable image"),
			logging.String(logging.FieldImpact, "movie card is created without a poster"))
		return nil
	}

	logger.Debug("materialized poster",
		logging.String("url", posterURL),
		logging.String("source", string(result.Source)),
		logging.Int("bytes", len(encoded)))
	return encoded
}

// posterURL concatenates the base URL and poster path and requires the result
// to be an absolute URL that names an image.
func (m *Materializer) posterURL(posterPath string) (string, error) {
	if strings.TrimSpace(posterPath) == "" {
		return "", errEmptyPosterPath
	}
	raw := m.imageBaseURL + posterPath
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("poster url is not absolute: " + raw)
	}
	return parsed.String(), nil
}
