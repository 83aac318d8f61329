package api

import (
	"moviebox/internal/moviecard"
	"moviebox/internal/screen"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status       string `json:"status"`
	CachedModels int    `json:"cachedModels"`
}

// CardResponse wraps a single card.
type CardResponse struct {
	Card screen.MovieCardView `json:"card"`
}

// CardListResponse wraps the card box.
type CardListResponse struct {
	Cards []screen.MovieCardView `json:"cards"`
}

// ReloadResponse acknowledges a card reload request.
type ReloadResponse struct {
	Status  string `json:"status"`
	Version uint64 `json:"version"`
}

// RateRequest sets a card's rating. Values above the maximum are clamped.
type RateRequest struct {
	Rate *int `json:"rate" binding:"required"`
}

// CommentRequest sets a card's comment.
type CommentRequest struct {
	Comment string `json:"comment" binding:"max=2000"`
}

// AddCardRequest stores the card for a movie.
type AddCardRequest struct {
	Rate    int    `json:"rate"`
	Comment string `json:"comment" binding:"max=2000"`
}

func cardViews(cards []moviecard.Card) []screen.MovieCardView {
	views := make([]screen.MovieCardView, 0, len(cards))
	for _, card := range cards {
		views = append(views, screen.MovieCard(card))
	}
	return views
}
