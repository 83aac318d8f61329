// Package daemon coordinates the long-running MovieBox API process.
//
// It wires configuration, the movie card store, the TMDB client, the image
// cache and the HTTP API into a single lifecycle with flock-based locking to
// prevent multiple instances sharing one data directory. While running it
// periodically prunes the image cache.
//
// Keep orchestration here: use cases live in content and screen, transport in
// api.
package daemon
