package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moviebox/internal/screen"
)

func (s *Server) handleListCards(c *gin.Context) {
	cards, err := s.deps.Content.ListCards(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, CardListResponse{Cards: cardViews(cards)})
}

func (s *Server) handleGetCard(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		return
	}
	card, err := s.deps.Content.GetCard(c.Request.Context(), movieID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, CardResponse{Card: screen.MovieCard(*card)})
}

func (s *Server) handleAddCard(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		return
	}
	var req AddCardRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBindError(c, err)
			return
		}
	}
	card, err := s.deps.Content.AddCard(c.Request.Context(), movieID, req.Rate, req.Comment)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.reloadOpenScreen(movieID)
	c.JSON(http.StatusCreated, CardResponse{Card: screen.MovieCard(*card)})
}

func (s *Server) handleRateCard(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		return
	}
	var req RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBindError(c, err)
		return
	}
	card, err := s.deps.Content.RateCard(c.Request.Context(), movieID, *req.Rate)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.reloadOpenScreen(movieID)
	c.JSON(http.StatusOK, CardResponse{Card: screen.MovieCard(*card)})
}

func (s *Server) handleCommentCard(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBindError(c, err)
		return
	}
	card, err := s.deps.Content.CommentCard(c.Request.Context(), movieID, req.Comment)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.reloadOpenScreen(movieID)
	c.JSON(http.StatusOK, CardResponse{Card: screen.MovieCard(*card)})
}

func (s *Server) handleDeleteCard(c *gin.Context) {
	movieID, ok := movieIDParam(c)
	if !ok {
		return
	}
	if err := s.deps.Content.DeleteCard(c.Request.Context(), movieID); err != nil {
		abortWithError(c, err)
		return
	}
	s.reloadOpenScreen(movieID)
	c.Status(http.StatusNoContent)
}
