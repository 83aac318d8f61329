package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"moviebox/internal/logging"
	"moviebox/internal/moviecard"
	"moviebox/internal/services"
	"moviebox/internal/tmdb"
)

// Service implements the movie content use case.
type Service struct {
	fetcher      tmdb.Fetcher
	store        moviecard.Store
	materializer *moviecard.Materializer
	logger       *slog.Logger
}

// NewService wires the use case to its fetcher, card store and materializer.
// The materializer is only required by AddCard.
func NewService(fetcher tmdb.Fetcher, store moviecard.Store, materializer *moviecard.Materializer, logger *slog.Logger) *Service {
	return &Service{
		fetcher:      fetcher,
		store:        store,
		materializer: materializer,
		logger:       logging.NewComponentLogger(logger, "content"),
	}
}

// Materializer returns the card materializer the service was built with.
func (s *Service) Materializer() *moviecard.Materializer {
	return s.materializer
}

// FetchMovieContent loads details, credits, images, videos, similar and
// recommended movies concurrently, along with any stored card. The first
// failure cancels the remaining requests and is returned.
func (s *Service) FetchMovieContent(ctx context.Context, movieID int64) (*MovieContent, error) {
	if movieID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "content", "fetch movie content", "movie id must be positive", nil)
	}
	ctx = services.WithMovieID(ctx, movieID)

	var (
		details     *tmdb.MovieDetails
		credits     *tmdb.Credits
		images      *tmdb.Images
		videos      *tmdb.Videos
		similar     *tmdb.MoviePage
		recommended *tmdb.MoviePage
		card        *moviecard.Card
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		details, err = s.fetcher.MovieDetails(gctx, movieID)
		return err
	})
	g.Go(func() (err error) {
		credits, err = s.fetcher.MovieCredits(gctx, movieID)
		return err
	})
	g.Go(func() (err error) {
		images, err = s.fetcher.MovieImages(gctx, movieID)
		return err
	})
	g.Go(func() (err error) {
		videos, err = s.fetcher.MovieVideos(gctx, movieID)
		return err
	})
	g.Go(func() (err error) {
		similar, err = s.fetcher.SimilarMovies(gctx, movieID, 1)
		return err
	})
	g.Go(func() (err error) {
		recommended, err = s.fetcher.RecommendedMovies(gctx, movieID, 1)
		return err
	})
	g.Go(func() (err error) {
		card, err = s.store.Get(gctx, movieID)
		if err != nil {
			return fmt.Errorf("lookup movie card: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logging.WithContext(ctx, s.logger).Debug("movie content fetch failed", logging.Error(err))
		return nil, fmt.Errorf("fetch movie content %d: %w", movieID, err)
	}

	return &MovieContent{
		Info:                  *details,
		Credit:                castFrom(credits),
		ImageGallery:          backdropsFrom(images),
		VideoGallery:          videosFrom(videos),
		SimilarMovieGallery:   postersFrom(similar),
		RecommendMovieGallery: postersFrom(recommended),
		Card:                  card,
	}, nil
}

// ReloadMovieCard re-reads the stored card for movieID; nil means none.
func (s *Service) ReloadMovieCard(ctx context.Context, movieID int64) (*moviecard.Card, error) {
	card, err := s.store.Get(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("reload movie card %d: %w", movieID, err)
	}
	return card, nil
}

// MovieList returns one page of a curated list.
func (s *Service) MovieList(ctx context.Context, kind tmdb.ListKind, page int) (*MovieList, error) {
	if !kind.Valid() {
		return nil, services.Wrap(services.ErrValidation, "content", "movie list", fmt.Sprintf("unknown list %q", kind), nil)
	}
	result, err := s.fetcher.MovieList(ctx, kind, page)
	if err != nil {
		return nil, fmt.Errorf("movie list %s: %w", kind, err)
	}
	list := listFrom(result)
	list.Kind = kind
	return &list, nil
}

// SearchMovies returns one page of search results for query.
func (s *Service) SearchMovies(ctx context.Context, query string, page int) (*MovieList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "content", "search", "query must not be empty", nil)
	}
	result, err := s.fetcher.SearchMovies(ctx, query, page)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	list := listFrom(result)
	list.Query = query
	return &list, nil
}
