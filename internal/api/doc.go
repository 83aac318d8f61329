// Package api exposes the MovieBox use cases over HTTP.
//
// The server is built on gin. Routes live under /api and return camelCase
// JSON; failures use ErrorResponse with a status derived from the error kind
// (see services.Kind). Movie screens are served from cached
// screen.MovieContentModel instances so card mutations made through the API
// reload the card of any screen that is already open.
//
// Authentication is an optional bearer token that guards every route except
// /api/health.
package api
