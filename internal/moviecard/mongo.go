package moviecard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"moviebox/internal/services"
)

// CardsCollection is the MongoDB collection holding movie cards.
const CardsCollection = "movie_cards"

const mongoTimeout = 10 * time.Second

// MongoStore persists cards in a MongoDB collection with a unique index on
// movie_id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ Backend = (*MongoStore)(nil)

type cardDocument struct {
	MovieID   int64     `bson:"movie_id"`
	Poster    []byte    `bson:"poster,omitempty"`
	Title     string    `bson:"title"`
	Rate      int       `bson:"rate"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDocument(card Card) cardDocument {
	created := card.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return cardDocument{
		MovieID:   card.MovieID,
		Poster:    card.Poster,
		Title:     card.Title,
		Rate:      ClampRate(card.Rate),
		Comment:   card.Comment,
		CreatedAt: created.UTC().Truncate(time.Millisecond), // BSON dates are millisecond precision
	}
}

func (d cardDocument) card() Card {
	card := Card{
		MovieID:   d.MovieID,
		Title:     d.Title,
		Rate:      d.Rate,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt.UTC(),
	}
	if len(d.Poster) > 0 {
		card.Poster = d.Poster
	}
	return card
}

// OpenMongo connects to uri, verifies the connection and ensures the unique
// movie_id index exists.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, services.Wrap(services.ErrConfiguration, "moviecard", "open mongo", "mongo uri required", nil)
	}
	if strings.TrimSpace(database) == "" {
		database = "moviebox"
	}

	ctx, cancel := context.WithTimeout(ensureContext(ctx), mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "moviecard", "open mongo", "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, services.Wrap(services.ErrExternal, "moviecard", "open mongo", "ping", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(CardsCollection),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("movie_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("create card indexes: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Get returns the card for movieID, or nil when none is stored.
func (s *MongoStore) Get(ctx context.Context, movieID int64) (*Card, error) {
	var doc cardDocument
	err := s.collection.FindOne(ensureContext(ctx), bson.M{"movie_id": movieID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card %d: %w", movieID, err)
	}
	card := doc.card()
	return &card, nil
}

// Save upserts the card for card.MovieID.
func (s *MongoStore) Save(ctx context.Context, card Card) error {
	if card.MovieID <= 0 {
		return services.Wrap(services.ErrValidation, "moviecard", "save", "movie id must be positive", nil)
	}
	_, err := s.collection.ReplaceOne(ensureContext(ctx),
		bson.M{"movie_id": card.MovieID},
		toDocument(card),
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save card %d: %w", card.MovieID, err)
	}
	return nil
}

// Delete removes the card for movieID.
func (s *MongoStore) Delete(ctx context.Context, movieID int64) error {
	res, err := s.collection.DeleteOne(ensureContext(ctx), bson.M{"movie_id": movieID})
	if err != nil {
		return fmt.Errorf("delete card %d: %w", movieID, err)
	}
	if res.DeletedCount == 0 {
		return services.Wrap(services.ErrNotFound, "moviecard", "delete", fmt.Sprintf("no card for movie %d", movieID), nil)
	}
	return nil
}

// List returns all cards, newest first.
func (s *MongoStore) List(ctx context.Context) ([]Card, error) {
	ctx = ensureContext(ctx)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "movie_id", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	var docs []cardDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}
	cards := make([]Card, 0, len(docs))
	for _, doc := range docs {
		cards = append(cards, doc.card())
	}
	return cards, nil
}
