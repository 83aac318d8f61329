// Package tmdb provides the TMDB v3 API client used to fetch movie content.
//
// It authenticates requests and exposes movie details, credits, image and
// video galleries, similar/recommended movie pages, the curated list
// endpoints (now playing, popular, top rated, upcoming), and movie search.
// Responses are strongly typed. Non-200 responses surface as *APIError wrapped
// with the services error markers so callers can map 404s to not-found.
// Options allow tests to supply custom HTTP clients without modifying
// production code.
package tmdb
