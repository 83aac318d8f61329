// Package moviecard owns the user's movie cards: one locally stored record
// per movie holding a poster thumbnail, a star rating and a comment.
//
// A Store persists cards in SQLite (the default) or MongoDB. The Materializer
// merges a fetched movie with its possibly existing card: an existing card is
// returned untouched, otherwise a fresh card is built around a re-encoded
// poster downloaded through the memory tier of the image cache. Poster
// failures never surface as errors; the card is produced with an empty poster.
package moviecard
