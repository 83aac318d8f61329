package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"moviebox/internal/screen"
	"moviebox/internal/services"
	"moviebox/internal/tmdb"
)

const movieWaitTimeout = 30 * time.Second

func (s *Server) handleMovieList(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}
	list, err := s.deps.Content.MovieList(c.Request.Context(), tmdb.ListKind(c.Param("kind")), page)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleSearch(c *gin.Context) {
	page, ok := pageParam(c)
	if !ok {
		return
	}
	list, err := s.deps.Content.SearchMovies(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// handleMovie returns the movie content screen once it has loaded or failed.
func (s *Server) handleMovie(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		return
	}
	model, err := s.models.load(movieID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), movieWaitTimeout)
	defer cancel()
	snap, err := model.Wait(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = services.Wrap(services.ErrTimeout, "api", "movie", "movie content still loading", err)
		}
		abortWithError(c, err)
		return
	}
	if snap.State == screen.StateFailed {
		c.JSON(statusForError(snap.Err()), snap)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// handleReloadCard asks an open movie screen to re-read its card.
func (s *Server) handleReloadCard(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		return
	}
	model, found := s.models.lookup(movieID)
	if !found || !model.ReloadCard(context.Background()) {
		c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{Error: "movie content not loaded", Kind: "conflict"})
		return
	}
	c.JSON(http.StatusAccepted, ReloadResponse{Status: "reloading", Version: model.Snapshot().Version})
}

// reloadOpenScreen refreshes the card of a cached screen after a mutation.
func (s *Server) reloadOpenScreen(movieID int64) {
	if model, found := s.models.lookup(movieID); found {
		model.ReloadCard(context.Background())
	}
}

func movieIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortBadRequest(c, "movie id must be a positive integer")
		return 0, false
	}
	return id, true
}

func pageParam(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		abortBadRequest(c, "page must be a positive integer")
		return 0, false
	}
	return page, true
}
