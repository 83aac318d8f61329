package content_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviebox/internal/content"
	"moviebox/internal/imagecache"
	"moviebox/internal/moviecard"
	"moviebox/internal/services"
	"moviebox/internal/testsupport"
	"moviebox/internal/tmdb"
)

type fakeFetcher struct {
	creditsErr error
	calls      atomic.Int32
}

func (f *fakeFetcher) MovieDetails(_ context.Context, id int64) (*tmdb.MovieDetails, error) {
	f.calls.Add(1)
	return &tmdb.MovieDetails{ID: id, Title: "Sample", PosterPath: "/abc.jpg", Runtime: 136}, nil
}

func (f *fakeFetcher) MovieCredits(ctx context.Context, id int64) (*tmdb.Credits, error) {
	f.calls.Add(1)
	if f.creditsErr != nil {
		return nil, f.creditsErr
	}
	return &tmdb.Credits{ID: id, Cast: []tmdb.CastMember{{Name: "Lead", Character: "Hero"}}}, nil
}

func (f *fakeFetcher) MovieImages(_ context.Context, id int64) (*tmdb.Images, error) {
	f.calls.Add(1)
	return &tmdb.Images{ID: id, Backdrops: []tmdb.Image{{FilePath: "/b1.jpg"}, {FilePath: ""}, {FilePath: "/b2.jpg"}}}, nil
}

func (f *fakeFetcher) MovieVideos(_ context.Context, id int64) (*tmdb.Videos, error) {
	f.calls.Add(1)
	return &tmdb.Videos{ID: id, Results: []tmdb.Video{{Key: "k1", Name: "Trailer", Site: "YouTube", Type: "Trailer"}}}, nil
}

func (f *fakeFetcher) SimilarMovies(_ context.Context, id int64, page int) (*tmdb.MoviePage, error) {
	f.calls.Add(1)
	return &tmdb.MoviePage{Page: page, Results: []tmdb.MovieSummary{{ID: 2, Title: "Similar", PosterPath: "/s.jpg"}}}, nil
}

func (f *fakeFetcher) RecommendedMovies(_ context.Context, id int64, page int) (*tmdb.MoviePage, error) {
	f.calls.Add(1)
	return &tmdb.MoviePage{Page: page, Results: []tmdb.MovieSummary{{ID: 3, Title: "Recommended"}, {ID: 4, Title: "Another"}}}, nil
}

func (f *fakeFetcher) MovieList(_ context.Context, kind tmdb.ListKind, page int) (*tmdb.MoviePage, error) {
	f.calls.Add(1)
	return &tmdb.MoviePage{Page: page, TotalPages: 3, TotalResults: 1, Results: []tmdb.MovieSummary{{ID: 9, Title: string(kind)}}}, nil
}

func (f *fakeFetcher) SearchMovies(_ context.Context, query string, page int) (*tmdb.MoviePage, error) {
	f.calls.Add(1)
	return &tmdb.MoviePage{Page: page, Results: []tmdb.MovieSummary{{ID: 10, Title: query}}}, nil
}

func newService(t *testing.T, fetcher tmdb.Fetcher) (*content.Service, moviecard.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return content.NewService(fetcher, store, nil, nil), store
}

func TestFetchMovieContentAssemblesEverything(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc, store := newService(t, fetcher)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, moviecard.Card{MovieID: 673, Title: "Sample", Rate: 4}))

	got, err := svc.FetchMovieContent(ctx, 673)
	require.NoError(t, err)

	assert.Equal(t, int64(673), got.Info.ID)
	assert.Equal(t, []content.CastMember{{Name: "Lead", Character: "Hero"}}, got.Credit)
	assert.Equal(t, []string{"/b1.jpg", "/b2.jpg"}, got.ImageGallery)
	require.Len(t, got.VideoGallery, 1)
	assert.Equal(t, "k1", got.VideoGallery[0].Key)
	assert.Equal(t, []content.Poster{{MovieID: 2, Title: "Similar", PosterPath: "/s.jpg"}}, got.SimilarMovieGallery)
	assert.Len(t, got.RecommendMovieGallery, 2)
	require.NotNil(t, got.Card)
	assert.Equal(t, 4, got.Card.Rate)
	assert.Equal(t, int32(6), fetcher.calls.Load())
}

func TestFetchMovieContentWithoutCard(t *testing.T) {
	svc, _ := newService(t, &fakeFetcher{})
	got, err := svc.FetchMovieContent(context.Background(), 673)
	require.NoError(t, err)
	assert.Nil(t, got.Card)
}

func TestFetchMovieContentPropagatesFirstError(t *testing.T) {
	missing := services.Wrap(services.ErrNotFound, "tmdb", "movie credits", "", nil)
	svc, _ := newService(t, &fakeFetcher{creditsErr: missing})

	_, err := svc.FetchMovieContent(context.Background(), 673)
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrNotFound), "got %v", err)
}

func TestFetchMovieContentRejectsInvalidID(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc, _ := newService(t, fetcher)

	_, err := svc.FetchMovieContent(context.Background(), 0)
	assert.True(t, errors.Is(err, services.ErrValidation), "got %v", err)
	assert.Zero(t, fetcher.calls.Load())
}

func TestReloadMovieCard(t *testing.T) {
	svc, store := newService(t, &fakeFetcher{})
	ctx := context.Background()

	card, err := svc.ReloadMovieCard(ctx, 673)
	require.NoError(t, err)
	assert.Nil(t, card)

	require.NoError(t, store.Save(ctx, moviecard.Card{MovieID: 673, Title: "Sample", Comment: "later"}))
	card, err = svc.ReloadMovieCard(ctx, 673)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, "later", card.Comment)
}

func TestMovieListAndSearch(t *testing.T) {
	svc, _ := newService(t, &fakeFetcher{})
	ctx := context.Background()

	list, err := svc.MovieList(ctx, tmdb.ListTopRated, 2)
	require.NoError(t, err)
	assert.Equal(t, tmdb.ListTopRated, list.Kind)
	assert.Equal(t, 2, list.Page)
	assert.Equal(t, 3, list.TotalPages)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "top_rated", list.Entries[0].Title)

	_, err = svc.MovieList(ctx, tmdb.ListKind("favorites"), 1)
	assert.True(t, errors.Is(err, services.ErrValidation), "got %v", err)

	results, err := svc.SearchMovies(ctx, "  heat ", 1)
	require.NoError(t, err)
	assert.Equal(t, "heat", results.Query)
	require.Len(t, results.Entries, 1)

	_, err = svc.SearchMovies(ctx, " ", 1)
	assert.True(t, errors.Is(err, services.ErrValidation), "got %v", err)
}

func TestCardMutations(t *testing.T) {
	svc, _ := newService(t, &fakeFetcher{})
	ctx := context.Background()

	_, err := svc.RateCard(ctx, 673, 3)
	assert.True(t, errors.Is(err, services.ErrNotFound), "rate on missing card: %v", err)
	_, err = svc.CommentCard(ctx, 673, "hi")
	assert.True(t, errors.Is(err, services.ErrNotFound), "comment on missing card: %v", err)
	_, err = svc.GetCard(ctx, 673)
	assert.True(t, errors.Is(err, services.ErrNotFound), "get missing card: %v", err)

	require.NoError(t, svc.SaveCard(ctx, moviecard.Card{MovieID: 673, Title: "Sample", Rate: -2}))

	card, err := svc.RateCard(ctx, 673, 12)
	require.NoError(t, err)
	assert.Equal(t, moviecard.MaxRate, card.Rate)

	card, err = svc.CommentCard(ctx, 673, "worth it")
	require.NoError(t, err)
	assert.Equal(t, "worth it", card.Comment)
	assert.Equal(t, moviecard.MaxRate, card.Rate)

	cards, err := svc.ListCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "worth it", cards[0].Comment)

	require.NoError(t, svc.DeleteCard(ctx, 673))
	err = svc.DeleteCard(ctx, 673)
	assert.True(t, errors.Is(err, services.ErrNotFound), "delete missing card: %v", err)

	cards, err = svc.ListCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.NotNil(t, cards)
}

func TestAddCardMaterializesPoster(t *testing.T) {
	srv := testsupport.NewTMDBServer(t)
	srv.AddMovie(tmdb.MovieDetails{ID: 673, Title: "Sample", PosterPath: "/abc.jpg"})
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBServer(srv))
	store := testsupport.MustOpenStore(t, cfg)

	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	require.NoError(t, err)
	materializer := moviecard.NewMaterializer(imagecache.NewFromConfig(cfg), moviecard.MaterializerOptions{
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
	})
	svc := content.NewService(client, store, materializer, nil)
	ctx := context.Background()

	card, err := svc.AddCard(ctx, 673, 4, "first watch")
	require.NoError(t, err)
	assert.True(t, card.HasPoster())
	assert.Equal(t, 4, card.Rate)
	assert.Equal(t, "Sample", card.Title)

	stored, err := store.Get(ctx, 673)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, card.Poster, stored.Poster)

	// A second add keeps the stored card and only updates rating and comment.
	imageHits := srv.ImageHits()
	card, err = svc.AddCard(ctx, 673, 2, "second watch")
	require.NoError(t, err)
	assert.Equal(t, 2, card.Rate)
	assert.Equal(t, "second watch", card.Comment)
	assert.Equal(t, imageHits, srv.ImageHits())

	_, err = svc.AddCard(ctx, 999, 1, "")
	assert.True(t, errors.Is(err, services.ErrNotFound), "got %v", err)
}
