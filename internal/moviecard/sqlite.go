package moviecard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"moviebox/internal/config"
	"moviebox/internal/services"
)

// SQLiteStore persists cards in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Backend = (*SQLiteStore)(nil)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *SQLiteStore) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the card database under the data directory.
func Open(cfg *config.Config) (*SQLiteStore, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the card database at dbPath, creating the schema when new.
func OpenPath(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const cardColumns = "movie_id, poster, title, rate, comment, created_at"

// timestampLayout is fixed width so created_at sorts chronologically as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Get returns the card for movieID, or nil when none is stored.
func (s *SQLiteStore) Get(ctx context.Context, movieID int64) (*Card, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+cardColumns+" FROM movie_cards WHERE movie_id = ?", movieID)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", movieID, err)
	}
	return card, nil
}

// Save inserts or replaces the card for card.MovieID.
func (s *SQLiteStore) Save(ctx context.Context, card Card) error {
	if card.MovieID <= 0 {
		return services.Wrap(services.ErrValidation, "moviecard", "save", "movie id must be positive", nil)
	}
	created := card.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO movie_cards (`+cardColumns+`) VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(movie_id) DO UPDATE SET
            poster = excluded.poster,
            title = excluded.title,
            rate = excluded.rate,
            comment = excluded.comment,
            created_at = excluded.created_at`,
		card.MovieID,
		nullableBlob(card.Poster),
		card.Title,
		ClampRate(card.Rate),
		card.Comment,
		created.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("save card %d: %w", card.MovieID, err)
	}
	return nil
}

// Delete removes the card for movieID.
func (s *SQLiteStore) Delete(ctx context.Context, movieID int64) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM movie_cards WHERE movie_id = ?", movieID)
	if err != nil {
		return fmt.Errorf("delete card %d: %w", movieID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "moviecard", "delete", fmt.Sprintf("no card for movie %d", movieID), nil)
	}
	return nil
}

// List returns all cards ordered by creation time, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Card, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+cardColumns+" FROM movie_cards ORDER BY created_at DESC, movie_id DESC")
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*Card, error) {
	var (
		card    Card
		poster  []byte
		created string
	)
	if err := row.Scan(&card.MovieID, &poster, &card.Title, &card.Rate, &card.Comment, &created); err != nil {
		return nil, err
	}
	if len(poster) > 0 {
		card.Poster = poster
	}
	ts, err := time.Parse(timestampLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	card.CreatedAt = ts
	return &card, nil
}

func nullableBlob(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return data
}
