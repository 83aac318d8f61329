package moviecard_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviebox/internal/moviecard"
	"moviebox/internal/services"
)

func openTestStore(t *testing.T) *moviecard.SQLiteStore {
	t.Helper()
	store, err := moviecard.OpenPath(filepath.Join(t.TempDir(), "moviebox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteGet_NotExists_ReturnsNilNil(t *testing.T) {
	store := openTestStore(t)

	card, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	require.Nil(t, card)
}

func TestSQLiteSaveAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 9, 18, 30, 0, 123456789, time.UTC)

	require.NoError(t, store.Save(ctx, moviecard.Card{
		MovieID:   673,
		Poster:    []byte{0xff, 0xd8, 0xff},
		Title:     "Sample",
		Rate:      3,
		Comment:   "rewatch",
		CreatedAt: created,
	}))

	card, err := store.Get(ctx, 673)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, int64(673), card.MovieID)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, card.Poster)
	assert.Equal(t, "Sample", card.Title)
	assert.Equal(t, 3, card.Rate)
	assert.Equal(t, "rewatch", card.Comment)
	assert.True(t, created.Equal(card.CreatedAt), "created_at round trip: %v", card.CreatedAt)
}

func TestSQLiteSave_UpsertKeepsOneCardPerMovie(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, moviecard.Card{MovieID: 7, Title: "Old", CreatedAt: time.Now()}))
	require.NoError(t, store.Save(ctx, moviecard.Card{MovieID: 7, Title: "New", Rate: 9, CreatedAt: time.Now()}))

	cards, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "New", cards[0].Title)
	assert.Equal(t, moviecard.MaxRate, cards[0].Rate, "rate is clamped on save")
	assert.Nil(t, cards[0].Poster)
}

func TestSQLiteList_NewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, moviecard.Card{MovieID: 1, Title: "a", CreatedAt: base}))
	require.NoError(t, store.Save(ctx, moviecard.Card{MovieID: 2, Title: "b", CreatedAt: base.Add(500 * time.Millisecond)}))
	require.NoError(t, store.Save(ctx, moviecard.Card{MovieID: 3, Title: "c", CreatedAt: base.Add(time.Second)}))

	cards, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{cards[0].MovieID, cards[1].MovieID, cards[2].MovieID})
}

func TestSQLiteDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, moviecard.Card{MovieID: 5, Title: "x"}))
	require.NoError(t, store.Delete(ctx, 5))

	card, err := store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, card)

	err = store.Delete(ctx, 5)
	assert.True(t, errors.Is(err, services.ErrNotFound), "got %v", err)
}

func TestSQLiteSave_RejectsInvalidID(t *testing.T) {
	store := openTestStore(t)
	err := store.Save(context.Background(), moviecard.Card{MovieID: 0})
	assert.True(t, errors.Is(err, services.ErrValidation), "got %v", err)
}

func TestSQLiteReopenKeepsCards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moviebox.db")
	store, err := moviecard.OpenPath(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), moviecard.Card{MovieID: 11, Title: "kept"}))
	require.NoError(t, store.Close())

	reopened, err := moviecard.OpenPath(path)
	require.NoError(t, err)
	defer reopened.Close()

	card, err := reopened.Get(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, "kept", card.Title)
}
