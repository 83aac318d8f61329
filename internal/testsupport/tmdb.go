package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"moviebox/internal/tmdb"
)

// TMDBServer is an in-process stand-in for the TMDB API and image host.
// Movies registered with AddMovie are served from /3/movie/{id} and friends;
// every /t/p/w780/* image path returns the same PNG poster.
type TMDBServer struct {
	*httptest.Server

	mu     sync.Mutex
	movies map[int64]tmdb.MovieDetails
	lists  map[tmdb.ListKind][]tmdb.MovieSummary
	poster []byte

	apiHits   atomic.Int32
	imageHits atomic.Int32
	failAPI   atomic.Bool
}

// NewTMDBServer starts a fake TMDB server closed on test cleanup.
func NewTMDBServer(t testing.TB) *TMDBServer {
	t.Helper()

	s := &TMDBServer{
		movies: make(map[int64]tmdb.MovieDetails),
		lists:  make(map[tmdb.ListKind][]tmdb.MovieSummary),
		poster: PosterPNG(t, 16, 24),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/3/", s.handleAPI)
	mux.HandleFunc("/t/p/w780/", s.handleImage)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// APIBaseURL is the value for tmdb.base_url.
func (s *TMDBServer) APIBaseURL() string { return s.URL + "/3" }

// ImageBaseURL is the value for tmdb.image_base_url.
func (s *TMDBServer) ImageBaseURL() string { return s.URL + "/t/p/w780" }

// AddMovie registers movie details; the movie also appears in the popular list.
func (s *TMDBServer) AddMovie(movie tmdb.MovieDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movies[movie.ID] = movie
	s.lists[tmdb.ListPopular] = append(s.lists[tmdb.ListPopular], tmdb.MovieSummary{
		ID:           movie.ID,
		Title:        movie.Title,
		PosterPath:   movie.PosterPath,
		BackdropPath: movie.BackdropPath,
		ReleaseDate:  movie.ReleaseDate,
		VoteAverage:  movie.VoteAverage,
	})
}

// FailAPI makes every API endpoint return 500 until reset.
func (s *TMDBServer) FailAPI(fail bool) { s.failAPI.Store(fail) }

// APIHits reports how many API requests were served.
func (s *TMDBServer) APIHits() int { return int(s.apiHits.Load()) }

// ImageHits reports how many image requests were served.
func (s *TMDBServer) ImageHits() int { return int(s.imageHits.Load()) }

func (s *TMDBServer) handleImage(w http.ResponseWriter, r *http.Request) {
	s.imageHits.Add(1)
	if strings.HasSuffix(r.URL.Path, "/missing.jpg") {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(s.poster)
}

func (s *TMDBServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	s.apiHits.Add(1)
	if r.URL.Query().Get("api_key") == "" {
		writeStatus(w, http.StatusUnauthorized, "Invalid API key: You must be granted a valid key.")
		return
	}
	if s.failAPI.Load() {
		writeStatus(w, http.StatusInternalServerError, "Internal error")
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/3/"), "/"), "/")
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case len(parts) == 2 && parts[0] == "search" && parts[1] == "movie":
		query := strings.ToLower(r.URL.Query().Get("query"))
		var results []tmdb.MovieSummary
		for _, summary := range s.lists[tmdb.ListPopular] {
			if strings.Contains(strings.ToLower(summary.Title), query) {
				results = append(results, summary)
			}
		}
		writeJSON(w, pageOf(results))
		return
	case len(parts) == 2 && parts[0] == "movie" && tmdb.ListKind(parts[1]).Valid():
		writeJSON(w, pageOf(s.lists[tmdb.ListKind(parts[1])]))
		return
	case len(parts) >= 2 && parts[0] == "movie":
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			writeStatus(w, http.StatusNotFound, "The resource you requested could not be found.")
			return
		}
		movie, ok := s.movies[id]
		if !ok {
			writeStatus(w, http.StatusNotFound, "The resource you requested could not be found.")
			return
		}
		if len(parts) == 2 {
			writeJSON(w, movie)
			return
		}
		switch parts[2] {
		case "credits":
			writeJSON(w, tmdb.Credits{ID: id, Cast: []tmdb.CastMember{
				{ID: 1, Name: "Lead Actor", Character: "Hero", ProfilePath: "/lead.jpg"},
				{ID: 2, Name: "Support Actor", Character: "Friend"},
			}})
		case "images":
			writeJSON(w, tmdb.Images{ID: id, Backdrops: []tmdb.Image{
				{FilePath: fmt.Sprintf("/backdrop-%d-1.jpg", id), Width: 1280, Height: 720},
				{FilePath: fmt.Sprintf("/backdrop-%d-2.jpg", id), Width: 1280, Height: 720},
			}})
		case "videos":
			writeJSON(w, tmdb.Videos{ID: id, Results: []tmdb.Video{
				{Key: "trailer1", Name: "Official Trailer", Site: "YouTube", Type: "Trailer"},
				{Key: "12345", Name: "Clip", Site: "Vimeo", Type: "Clip"},
			}})
		case "similar", "recommendations":
			var results []tmdb.MovieSummary
			for _, summary := range s.lists[tmdb.ListPopular] {
				if summary.ID != id {
					results = append(results, summary)
				}
			}
			writeJSON(w, pageOf(results))
		default:
			writeStatus(w, http.StatusNotFound, "The resource you requested could not be found.")
		}
		return
	}
	writeStatus(w, http.StatusNotFound, "The resource you requested could not be found.")
}

func pageOf(results []tmdb.MovieSummary) tmdb.MoviePage {
	if results == nil {
		results = []tmdb.MovieSummary{}
	}
	return tmdb.MoviePage{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeStatus(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"status_code": code, "status_message": message, "success": false})
}
