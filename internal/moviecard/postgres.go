package moviecard

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"moviebox/internal/services"
)

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// PostgresStore persists cards in PostgreSQL. The schema is managed by goose
// migrations embedded in the binary.
type PostgresStore struct {
	db *sql.DB
}

var _ Backend = (*PostgresStore)(nil)

// OpenPostgres connects with the pgx driver and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrConfiguration, "moviecard", "open postgres", "ping failed", err)
	}
	if err := migratePostgres(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func migratePostgres(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(postgresMigrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations/postgres"); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the card for movieID, or nil when none is stored.
func (s *PostgresStore) Get(ctx context.Context, movieID int64) (*Card, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT "+cardColumns+" FROM movie_cards WHERE movie_id = $1", movieID)
	card, err := scanPostgresCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", movieID, err)
	}
	return card, nil
}

// Save inserts or replaces the card for card.MovieID.
func (s *PostgresStore) Save(ctx context.Context, card Card) error {
	if card.MovieID <= 0 {
		return services.Wrap(services.ErrValidation, "moviecard", "save", "movie id must be positive", nil)
	}
	created := card.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ensureContext(ctx),
		`INSERT INTO movie_cards (`+cardColumns+`) VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (movie_id) DO UPDATE SET
            poster = EXCLUDED.poster,
            title = EXCLUDED.title,
            rate = EXCLUDED.rate,
            comment = EXCLUDED.comment,
            created_at = EXCLUDED.created_at`,
		card.MovieID,
		nullableBlob(card.Poster),
		card.Title,
		ClampRate(card.Rate),
		card.Comment,
		created.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save card %d: %w", card.MovieID, err)
	}
	return nil
}

// Delete removes the card for movieID.
func (s *PostgresStore) Delete(ctx context.Context, movieID int64) error {
	res, err := s.db.ExecContext(ensureContext(ctx), "DELETE FROM movie_cards WHERE movie_id = $1", movieID)
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
func (s *PostgresStore) List(ctx context.Context) ([]Card, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+cardColumns+" FROM movie_cards ORDER BY created_at DESC, movie_id DESC")
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		card, err := scanPostgresCard(rows)
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

func scanPostgresCard(row rowScanner) (*Card, error) {
	var (
		card   Card
		poster []byte
	)
	if err := row.Scan(&card.MovieID, &poster, &card.Title, &card.Rate, &card.Comment, &card.CreatedAt); err != nil {
		return nil, err
	}
	if len(poster) > 0 {
		card.Poster = poster
	}
	card.CreatedAt = card.CreatedAt.UTC()
	return &card, nil
}
