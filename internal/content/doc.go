// Package content is the movie content use case: it assembles everything a
// movie screen shows from TMDB and the local card store, serves the curated
// lists and search, and manages the user's card box.
package content
