package moviecard

import (
	"context"
	"time"
)

// MaxRate is the highest star rating a card can hold.
const MaxRate = 5

// Card is the locally stored summary of one movie.
type Card struct {
	MovieID   int64     `json:"movieId"`
	Poster    []byte    `json:"poster,omitempty"` // JPEG; nil when no poster could be obtained
	Title     string    `json:"title"`
	Rate      int       `json:"rate"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasPoster reports whether the card carries poster bytes.
func (c Card) HasPoster() bool {
	return len(c.Poster) > 0
}

// ClampRate limits rate to 0..MaxRate.
func ClampRate(rate int) int {
	return min(max(rate, 0), MaxRate)
}

// Store persists movie cards keyed by movie id. At most one card exists per
// movie; Save replaces any existing card for the same id.
type Store interface {
	// Get returns the card for movieID, or nil with a nil error when absent.
	Get(ctx context.Context, movieID int64) (*Card, error)
	Save(ctx context.Context, card Card) error
	// Delete removes the card; a missing card yields services.ErrNotFound.
	Delete(ctx context.Context, movieID int64) error
	// List returns every card, newest first.
	List(ctx context.Context) ([]Card, error)
}

// Backend is a Store that owns a connection.
type Backend interface {
	Store
	Close() error
}
