package moviecard

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviebox/internal/services"
)

const (
	pgSelectOne = `(?s)^SELECT\s+movie_id,\s*poster,\s*title,\s*rate,\s*comment,\s*created_at\s+FROM\s+movie_cards\s+WHERE\s+movie_id\s*=\s*\$1$`
	pgSelectAll = `(?s)^SELECT\s+movie_id,\s*poster,\s*title,\s*rate,\s*comment,\s*created_at\s+FROM\s+movie_cards\s+ORDER\s+BY\s+created_at\s+DESC,\s*movie_id\s+DESC$`
	pgUpsert    = `(?s)^INSERT\s+INTO\s+movie_cards\s*\(movie_id,\s*poster,\s*title,\s*rate,\s*comment,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*ON\s+CONFLICT\s*\(movie_id\)\s*DO\s+UPDATE\s+SET.*poster\s*=\s*EXCLUDED\.poster.*created_at\s*=\s*EXCLUDED\.created_at$`
	pgDelete    = `(?s)^DELETE\s+FROM\s+movie_cards\s+WHERE\s+movie_id\s*=\s*\$1$`
)

var pgCardColumns = []string{"movie_id", "poster", "title", "rate", "comment", "created_at"}

func newPostgresWithMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		_ = db.Close()
	})
	return &PostgresStore{db: db}, mock
}

func TestPostgresGetFound(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(pgSelectOne).
		WithArgs(int64(673)).
		WillReturnRows(sqlmock.NewRows(pgCardColumns).AddRow(int64(673), []byte{0xff, 0xd8}, "Sample", int64(4), "great", created))

	card, err := store.Get(context.Background(), 673)
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, Card{MovieID: 673, Poster: []byte{0xff, 0xd8}, Title: "Sample", Rate: 4, Comment: "great", CreatedAt: created}, *card)
}

func TestPostgresGetMissingReturnsNil(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectQuery(pgSelectOne).WithArgs(int64(680)).WillReturnError(sql.ErrNoRows)

	card, err := store.Get(context.Background(), 680)
	require.NoError(t, err)
	assert.Nil(t, card)
}

func TestPostgresGetEmptyPosterIsNil(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectQuery(pgSelectOne).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(pgCardColumns).AddRow(int64(1), nil, "No poster", int64(0), "", time.Now()))

	card, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, card.Poster)
}

func TestPostgresGetDBError(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectQuery(pgSelectOne).WithArgs(int64(1)).WillReturnError(errors.New("db down"))

	_, err := store.Get(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestPostgresSaveUpsertsClampedCard(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.FixedZone("KST", 9*3600))
	mock.ExpectExec(pgUpsert).
		WithArgs(int64(673), nil, "Sample", int64(MaxRate), "again", created.UTC()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Save(context.Background(), Card{MovieID: 673, Title: "Sample", Rate: 9, Comment: "again", CreatedAt: created})
	require.NoError(t, err)
}

func TestPostgresSaveStampsMissingCreatedAt(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectExec(pgUpsert).
		WithArgs(int64(2), []byte{1}, "New", int64(0), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), Card{MovieID: 2, Poster: []byte{1}, Title: "New"}))
}

func TestPostgresSaveRejectsInvalidID(t *testing.T) {
	store, _ := newPostgresWithMock(t)

	err := store.Save(context.Background(), Card{MovieID: 0})
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestPostgresDelete(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectExec(pgDelete).WithArgs(int64(673)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(pgDelete).WithArgs(int64(673)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), 673))
	err := store.Delete(context.Background(), 673)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestPostgresListNewestFirst(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	older := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	mock.ExpectQuery(pgSelectAll).
		WillReturnRows(sqlmock.NewRows(pgCardColumns).
			AddRow(int64(2), []byte{0xff}, "New", int64(3), "", newer).
			AddRow(int64(1), nil, "Old", int64(0), "", older))

	cards, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, int64(2), cards[0].MovieID)
	assert.Equal(t, 3, cards[0].Rate)
	assert.Equal(t, int64(1), cards[1].MovieID)
	assert.Nil(t, cards[1].Poster)
}

func TestPostgresListRowError(t *testing.T) {
	store, mock := newPostgresWithMock(t)
	mock.ExpectQuery(pgSelectAll).
		WillReturnRows(sqlmock.NewRows(pgCardColumns).
			AddRow(int64(1), nil, "Old", int64(0), "", time.Now()).
			RowError(0, errors.New("connection reset")))

	_, err := store.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
