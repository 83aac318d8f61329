package content

import (
	"context"
	"fmt"

	"moviebox/internal/logging"
	"moviebox/internal/moviecard"
	"moviebox/internal/services"
)

// SaveCard stores card, replacing any existing card for the same movie.
func (s *Service) SaveCard(ctx context.Context, card moviecard.Card) error {
	if card.MovieID <= 0 {
		return services.Wrap(services.ErrValidation, "content", "save card", "movie id must be positive", nil)
	}
	card.Rate = moviecard.ClampRate(card.Rate)
	if err := s.store.Save(ctx, card); err != nil {
		return fmt.Errorf("save card %d: %w", card.MovieID, err)
	}
	logging.WithContext(services.WithMovieID(ctx, card.MovieID), s.logger).Info("movie card saved",
		logging.String(logging.FieldEventType, "card_saved"),
		logging.Int("rate", card.Rate),
		logging.Bool("has_poster", card.HasPoster()))
	return nil
}

// AddCard materializes the card for movieID (keeping an existing one), applies
// rate and comment, and stores it.
func (s *Service) AddCard(ctx context.Context, movieID int64, rate int, comment string) (*moviecard.Card, error) {
	if s.materializer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "content", "add card", "no materializer configured", nil)
	}
	if movieID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "content", "add card", "movie id must be positive", nil)
	}
	ctx = services.WithMovieID(ctx, movieID)
	info, err := s.fetcher.MovieDetails(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("add card %d: %w", movieID, err)
	}
	existing, err := s.store.Get(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("add card %d: %w", movieID, err)
	}
	card := s.materializer.Materialize(ctx, *info, existing)
	card.Rate = moviecard.ClampRate(rate)
	card.Comment = comment
	if err := s.SaveCard(ctx, card); err != nil {
		return nil, err
	}
	return &card, nil
}

// RateCard sets the rating of a stored card, clamped to 0..MaxRate.
func (s *Service) RateCard(ctx context.Context, movieID int64, rate int) (*moviecard.Card, error) {
	return s.updateCard(ctx, movieID, "rate card", func(card *moviecard.Card) {
		card.Rate = moviecard.ClampRate(rate)
	})
}

// CommentCard replaces the comment of a stored card.
func (s *Service) CommentCard(ctx context.Context, movieID int64, comment string) (*moviecard.Card, error) {
	return s.updateCard(ctx, movieID, "comment card", func(card *moviecard.Card) {
		card.Comment = comment
	})
}

func (s *Service) updateCard(ctx context.Context, movieID int64, op string, mutate func(*moviecard.Card)) (*moviecard.Card, error) {
	card, err := s.store.Get(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, movieID, err)
	}
	if card == nil {
		return nil, services.Wrap(services.ErrNotFound, "content", op, fmt.Sprintf("no card for movie %d", movieID), nil)
	}
	mutate(card)
	if err := s.store.Save(ctx, *card); err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, movieID, err)
	}
	return card, nil
}

// GetCard returns the stored card or services.ErrNotFound.
func (s *Service) GetCard(ctx context.Context, movieID int64) (*moviecard.Card, error) {
	card, err := s.store.Get(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", movieID, err)
	}
	if card == nil {
		return nil, services.Wrap(services.ErrNotFound, "content", "get card", fmt.Sprintf("no card for movie %d", movieID), nil)
	}
	return card, nil
}

// DeleteCard removes the stored card for movieID.
func (s *Service) DeleteCard(ctx context.Context, movieID int64) error {
	if err := s.store.Delete(ctx, movieID); err != nil {
		return fmt.Errorf("delete card %d: %w", movieID, err)
	}
	logging.WithContext(services.WithMovieID(ctx, movieID), s.logger).Info("movie card deleted",
		logging.String(logging.FieldEventType, "card_deleted"))
	return nil
}

// ListCards returns every stored card, newest first.
func (s *Service) ListCards(ctx context.Context) ([]moviecard.Card, error) {
	cards, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	if cards == nil {
		cards = []moviecard.Card{}
	}
	return cards, nil
}
