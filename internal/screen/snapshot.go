package screen

import (
	"fmt"
	"time"

	"moviebox/internal/services"
)

// State is the lifecycle position of a MovieContentModel.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StateLoading, StateLoaded, StateFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown screen state %q", text)
}

// Snapshot is one immutable published state of a movie content screen.
// Slices are never mutated after publication.
type Snapshot struct {
	MovieID               int64            `json:"movieId"`
	State                 State            `json:"state"`
	Info                  MovieInfoView    `json:"info"`
	Credit                []CastView       `json:"credit"`
	ImageGallery          []string         `json:"imageGallery"`
	VideoGallery          []MovieVideoView `json:"videoGallery"`
	SimilarMovies         []PosterView     `json:"similarMovies"`
	RecommendMovies       []PosterView     `json:"recommendMovies"`
	Card                  MovieCardView    `json:"card"`
	ShowActivityIndicator bool             `json:"showActivityIndicator"`
	Error                 string           `json:"error,omitempty"`
	ErrorKind             string           `json:"errorKind,omitempty"`
	Version               uint64           `json:"version"`
	UpdatedAt             time.Time        `json:"updatedAt"`

	err     error
	cardGen uint64 // reload generation that produced Card; 0 = content fetch
}

// Err returns the content fetch failure when State is StateFailed.
func (s Snapshot) Err() error {
	return s.err
}

// DefaultSnapshot is the state shown before any content arrives: empty
// galleries, a placeholder card with movie id 0 and the activity indicator on.
func DefaultSnapshot(movieID int64) Snapshot {
	return Snapshot{
		MovieID:               movieID,
		State:                 StateIdle,
		Credit:                []CastView{},
		ImageGallery:          []string{},
		VideoGallery:          []MovieVideoView{},
		SimilarMovies:         []PosterView{},
		RecommendMovies:       []PosterView{},
		Card:                  MovieCardView{MovieID: 0},
		ShowActivityIndicator: true,
	}
}

func (s Snapshot) withError(err error) Snapshot {
	s.State = StateFailed
	s.ShowActivityIndicator = false
	s.err = err
	s.Error = err.Error()
	s.ErrorKind = services.Kind(err)
	return s
}
