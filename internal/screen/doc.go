// Package screen holds the movie content screen state.
//
// MovieContentModel drives the refresh flow for one movie: it fetches the
// movie content, materializes the movie card and publishes immutable
// Snapshots. Every change to the published state is applied by a single
// update goroutine, so readers never observe a half-applied update.
// Presentation views (MovieInfoView, MovieVideoView, MovieCardView) turn
// content records into display-ready values.
package screen
