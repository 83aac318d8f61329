package screen

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"moviebox/internal/content"
	"moviebox/internal/moviecard"
)

const (
	youTubeThumbnailURL = "https://img.youtube.com/vi/%s/0.jpg"
	youTubeWatchURL     = "https://www.youtube.com/watch?v=%s"
)

// Formatter renders content records for one display language.
type Formatter struct {
	imageBaseURL string
	printer      *message.Printer
}

// NewFormatter creates a Formatter. An unparsable lang falls back to English.
func NewFormatter(imageBaseURL, lang string) Formatter {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		tag = language.English
	}
	return Formatter{
		imageBaseURL: strings.TrimRight(strings.TrimSpace(imageBaseURL), "/"),
		printer:      message.NewPrinter(tag),
	}
}

// sprintf formats with the locale printer. A zero Formatter formats as English.
func (f Formatter) sprintf(format string, args ...any) string {
	if f.printer == nil {
		return message.NewPrinter(language.English).Sprintf(format, args...)
	}
	return f.printer.Sprintf(format, args...)
}

// ImageURL returns the absolute URL for a TMDB image path, or "" when path is empty.
func (f Formatter) ImageURL(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	return f.imageBaseURL + path
}

// MovieInfoView is the display form of a movie's details.
type MovieInfoView struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"originalTitle,omitempty"`
	Tagline       string `json:"tagline,omitempty"`
	Overview      string `json:"overview"`
	Year          string `json:"year,omitempty"`
	RuntimeText   string `json:"runtimeText,omitempty"`
	Genres        string `json:"genres,omitempty"`
	Rating        string `json:"rating"`
	VoteCount     string `json:"voteCount"`
	PosterURL     string `json:"posterUrl,omitempty"`
	BackdropURL   string `json:"backdropUrl,omitempty"`
}

// MovieInfo converts movie details into a MovieInfoView.
func (f Formatter) MovieInfo(info content.MovieInfo) MovieInfoView {
	genres := make([]string, 0, len(info.Genres))
	for _, g := range info.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			genres = append(genres, name)
		}
	}
	return MovieInfoView{
		ID:            info.ID,
		Title:         info.Title,
		OriginalTitle: originalTitle(info),
		Tagline:       info.Tagline,
		Overview:      info.Overview,
		Year:          releaseYear(info.ReleaseDate),
		RuntimeText:   RuntimeText(info.Runtime),
		Genres:        strings.Join(genres, ", "),
		Rating:        f.sprintf("%.1f", info.VoteAverage),
		VoteCount:     f.sprintf("%d", info.VoteCount),
		PosterURL:     f.ImageURL(info.PosterPath),
		BackdropURL:   f.ImageURL(info.BackdropPath),
	}
}

func originalTitle(info content.MovieInfo) string {
	if info.OriginalTitle == info.Title {
		return ""
	}
	return info.OriginalTitle
}

func releaseYear(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// RuntimeText formats a runtime in minutes as "2h 16m".
func RuntimeText(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// MovieVideoView is a playable video.
type MovieVideoView struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	ThumbnailURL string `json:"thumbnailUrl"`
	WatchURL     string `json:"watchUrl"`
}

// MovieVideos keeps YouTube videos and attaches thumbnail and watch URLs.
func MovieVideos(videos []content.Video) []MovieVideoView {
	out := make([]MovieVideoView, 0, len(videos))
	for _, v := range videos {
		if !strings.EqualFold(v.Site, "YouTube") || strings.TrimSpace(v.Key) == "" {
			continue
		}
		out = append(out, MovieVideoView{
			Key:          v.Key,
			Name:         v.Name,
			Type:         v.Type,
			ThumbnailURL: fmt.Sprintf(youTubeThumbnailURL, v.Key),
			WatchURL:     fmt.Sprintf(youTubeWatchURL, v.Key),
		})
	}
	return out
}

// CastView is one credited performer.
type CastView struct {
	Name       string `json:"name"`
	Character  string `json:"character"`
	ProfileURL string `json:"profileUrl,omitempty"`
}

// Cast attaches profile image URLs to the credit list.
func (f Formatter) Cast(cast []content.CastMember) []CastView {
	out := make([]CastView, 0, len(cast))
	for _, c := range cast {
		out = append(out, CastView{Name: c.Name, Character: c.Character, ProfileURL: f.ImageURL(c.ProfilePath)})
	}
	return out
}

// PosterView is a movie in a similar or recommended gallery.
type PosterView struct {
	MovieID   int64  `json:"movieId"`
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl,omitempty"`
}

// Posters attaches poster URLs to a gallery.
func (f Formatter) Posters(posters []content.Poster) []PosterView {
	out := make([]PosterView, 0, len(posters))
	for _, p := range posters {
		out = append(out, PosterView{MovieID: p.MovieID, Title: p.Title, PosterURL: f.ImageURL(p.PosterPath)})
	}
	return out
}

// Backdrops converts backdrop paths into absolute URLs.
func (f Formatter) Backdrops(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if u := f.ImageURL(p); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// MovieCardView is the display form of a movie card.
type MovieCardView struct {
	MovieID   int64     `json:"movieId"`
	Title     string    `json:"title"`
	Rate      int       `json:"rate"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	Poster    []byte    `json:"poster,omitempty"`
	HasPoster bool      `json:"hasPoster"`
}

// MovieCard converts a card into its view.
func MovieCard(card moviecard.Card) MovieCardView {
	return MovieCardView{
		MovieID:   card.MovieID,
		Title:     card.Title,
		Rate:      card.Rate,
		Comment:   card.Comment,
		CreatedAt: card.CreatedAt,
		Poster:    card.Poster,
		HasPoster: card.HasPoster(),
	}
}
