package content

import (
	"moviebox/internal/moviecard"
	"moviebox/internal/tmdb"
)

// MovieInfo is the immutable movie detail record.
type MovieInfo = tmdb.MovieDetails

// CastMember is one entry of the credit list.
type CastMember struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profilePath,omitempty"`
}

// Video is one entry of the video gallery.
type Video struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// Poster is one entry of a similar or recommended movie gallery.
type Poster struct {
	MovieID    int64  `json:"movieId"`
	Title      string `json:"title"`
	PosterPath string `json:"posterPath,omitempty"`
}

// MovieContent bundles a movie with its galleries and stored card.
type MovieContent struct {
	Info                  MovieInfo       `json:"info"`
	Credit                []CastMember    `json:"credit"`
	ImageGallery          []string        `json:"imageGallery"` // backdrop paths
	VideoGallery          []Video         `json:"videoGallery"`
	SimilarMovieGallery   []Poster        `json:"similarMovieGallery"`
	RecommendMovieGallery []Poster        `json:"recommendMovieGallery"`
	Card                  *moviecard.Card `json:"card,omitempty"` // nil when no card is stored
}

// MovieListEntry is one movie of a curated list or search result.
type MovieListEntry struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	PosterPath   string  `json:"posterPath,omitempty"`
	BackdropPath string  `json:"backdropPath,omitempty"`
	VoteAverage  float64 `json:"voteAverage"`
	ReleaseDate  string  `json:"releaseDate,omitempty"`
}

// MovieList is one page of a curated list or search.
type MovieList struct {
	Kind         tmdb.ListKind    `json:"kind,omitempty"`
	Query        string           `json:"query,omitempty"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"totalPages"`
	TotalResults int              `json:"totalResults"`
	Entries      []MovieListEntry `json:"entries"`
}

func castFrom(credits *tmdb.Credits) []CastMember {
	if credits == nil {
		return []CastMember{}
	}
	cast := make([]CastMember, 0, len(credits.Cast))
	for _, member := range credits.Cast {
		cast = append(cast, CastMember{Name: member.Name, Character: member.Character, ProfilePath: member.ProfilePath})
	}
	return cast
}

func backdropsFrom(images *tmdb.Images) []string {
	if images == nil {
		return []string{}
	}
	paths := make([]string, 0, len(images.Backdrops))
	for _, img := range images.Backdrops {
		if img.FilePath != "" {
			paths = append(paths, img.FilePath)
		}
	}
	return paths
}

func videosFrom(videos *tmdb.Videos) []Video {
	if videos == nil {
		return []Video{}
	}
	out := make([]Video, 0, len(videos.Results))
	for _, v := range videos.Results {
		out = append(out, Video{Key: v.Key, Name: v.Name, Site: v.Site, Type: v.Type})
	}
	return out
}

func postersFrom(page *tmdb.MoviePage) []Poster {
	if page == nil {
		return []Poster{}
	}
	out := make([]Poster, 0, len(page.Results))
	for _, m := range page.Results {
		out = append(out, Poster{MovieID: m.ID, Title: m.Title, PosterPath: m.PosterPath})
	}
	return out
}

func listFrom(page *tmdb.MoviePage) MovieList {
	list := MovieList{Entries: []MovieListEntry{}}
	if page == nil {
		return list
	}
	list.Page = page.Page
	list.TotalPages = page.TotalPages
	list.TotalResults = page.TotalResults
	for _, m := range page.Results {
		list.Entries = append(list.Entries, MovieListEntry{
			ID:           m.ID,
			Title:        m.Title,
			PosterPath:   m.PosterPath,
			BackdropPath: m.BackdropPath,
			VoteAverage:  m.VoteAverage,
			ReleaseDate:  m.ReleaseDate,
		})
	}
	return list
}
