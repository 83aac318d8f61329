// Command moviebox browses TMDB movies, keeps a personal box of movie cards
// and serves both over an HTTP API.
//
// Configuration is read from --config, ~/.config/moviebox/config.toml or
// ./moviebox.toml, in that order. A .env file in the working directory is
// loaded first so TMDB_API_KEY and friends can live there.
package main
