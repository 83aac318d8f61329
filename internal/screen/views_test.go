package screen

import (
	"testing"
	"time"

	"moviebox/internal/content"
	"moviebox/internal/moviecard"
	"moviebox/internal/tmdb"
)

func TestRuntimeText(t *testing.T) {
	cases := map[int]string{0: "", -5: "", 45: "45m", 60: "1h", 120: "2h", 136: "2h 16m"}
	for minutes, want := range cases {
		if got := RuntimeText(minutes); got != want {
			t.Fatalf("RuntimeText(%d) = %q, want %q", minutes, got, want)
		}
	}
}

func TestFormatterMovieInfo(t *testing.T) {
	f := NewFormatter("https://image.tmdb.org/t/p/w780/", "en-US")
	view := f.MovieInfo(tmdb.MovieDetails{
		ID:            673,
		Title:         "Sample",
		OriginalTitle: "Sample",
		Overview:      "A sample movie.",
		ReleaseDate:   "2004-05-31",
		Runtime:       136,
		Genres:        []tmdb.Genre{{Name: "Adventure"}, {Name: " "}, {Name: "Science Fiction"}},
		VoteAverage:   7.94,
		VoteCount:     12345,
		PosterPath:    "/abc.jpg",
	})

	if view.Year != "2004" || view.RuntimeText != "2h 16m" {
		t.Fatalf("unexpected year/runtime: %+v", view)
	}
	if view.Genres != "Adventure, Science Fiction" {
		t.Fatalf("unexpected genres %q", view.Genres)
	}
	if view.Rating != "7.9" || view.VoteCount != "12,345" {
		t.Fatalf("unexpected rating %q / votes %q", view.Rating, view.VoteCount)
	}
	if view.PosterURL != "https://image.tmdb.org/t/p/w780/abc.jpg" || view.BackdropURL != "" {
		t.Fatalf("unexpected image urls: %q %q", view.PosterURL, view.BackdropURL)
	}
	if view.OriginalTitle != "" {
		t.Fatalf("original title equal to title should be omitted, got %q", view.OriginalTitle)
	}
}

func TestFormatterLocalizesNumbers(t *testing.T) {
	view := NewFormatter("https://img.test", "de-DE").MovieInfo(tmdb.MovieDetails{VoteAverage: 7.5, VoteCount: 1200})
	if view.Rating != "7,5" || view.VoteCount != "1.200" {
		t.Fatalf("expected German number formatting, got %q / %q", view.Rating, view.VoteCount)
	}

	fallback := NewFormatter("https://img.test", "not a language!")
	if got := fallback.MovieInfo(tmdb.MovieDetails{VoteAverage: 6}).Rating; got != "6.0" {
		t.Fatalf("expected English fallback, got %q", got)
	}
}

func TestMovieVideosKeepsYouTubeOnly(t *testing.T) {
	views := MovieVideos([]content.Video{
		{Key: "abc123", Name: "Trailer", Site: "YouTube", Type: "Trailer"},
		{Key: "999", Name: "Clip", Site: "Vimeo"},
		{Key: "", Name: "Broken", Site: "YouTube"},
		{Key: "xyz", Name: "Teaser", Site: "youtube", Type: "Teaser"},
	})
	if len(views) != 2 {
		t.Fatalf("expected two YouTube videos, got %d", len(views))
	}
	if views[0].ThumbnailURL != "https://img.youtube.com/vi/abc123/0.jpg" {
		t.Fatalf("unexpected thumbnail %q", views[0].ThumbnailURL)
	}
	if views[0].WatchURL != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("unexpected watch url %q", views[0].WatchURL)
	}
}

func TestGalleriesAndCardView(t *testing.T) {
	f := NewFormatter("https://img.test/w780", "en")
	cast := f.Cast([]content.CastMember{{Name: "A", ProfilePath: "/a.jpg"}, {Name: "B"}})
	if cast[0].ProfileURL != "https://img.test/w780/a.jpg" || cast[1].ProfileURL != "" {
		t.Fatalf("unexpected cast urls: %+v", cast)
	}
	backdrops := f.Backdrops([]string{"/b.jpg", ""})
	if len(backdrops) != 1 || backdrops[0] != "https://img.test/w780/b.jpg" {
		t.Fatalf("unexpected backdrops: %v", backdrops)
	}
	posters := f.Posters([]content.Poster{{MovieID: 2, Title: "Two", PosterPath: "/2.jpg"}})
	if posters[0].PosterURL != "https://img.test/w780/2.jpg" {
		t.Fatalf("unexpected poster url %q", posters[0].PosterURL)
	}

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	card := MovieCard(moviecard.Card{MovieID: 673, Title: "Sample", Rate: 4, CreatedAt: created})
	if card.HasPoster || card.Rate != 4 || !card.CreatedAt.Equal(created) {
		t.Fatalf("unexpected card view: %+v", card)
	}
	if !MovieCard(moviecard.Card{Poster: []byte{1}}).HasPoster {
		t.Fatal("expected HasPoster for non-empty poster")
	}
}

func TestZeroFormatterFormatsAsEnglish(t *testing.T) {
	var f Formatter
	view := f.MovieInfo(tmdb.MovieDetails{VoteAverage: 6, VoteCount: 1200})
	if view.Rating != "6.0" || view.VoteCount != "1,200" {
		t.Fatalf("unexpected zero formatter output %q / %q", view.Rating, view.VoteCount)
	}
}
