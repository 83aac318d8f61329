package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"moviebox/internal/config"
	"moviebox/internal/content"
	"moviebox/internal/imagecache"
	"moviebox/internal/logging"
	"moviebox/internal/screen"
)

// Dependencies are the collaborators the HTTP handlers call into.
type Dependencies struct {
	Content *content.Service
	Images  imagecache.Retriever
	// Models builds the screen model for a movie. When nil, models are built
	// from Content with the Formatter.
	Models    ModelFactory
	Formatter screen.Formatter
}

// Options tune the server.
type Options struct {
	Bind         string
	Token        string
	JWTSecret    string
	ReleaseMode  bool
	ModelTTL     time.Duration
	ImageBaseURL string
	JPEGQuality  int
	Logger       *slog.Logger
}

// OptionsFromConfig derives server options from the [api], [tmdb] and
// [images] sections.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	return Options{
		Bind:         cfg.API.Bind,
		Token:        cfg.API.Token,
		JWTSecret:    cfg.API.JWTSecret,
		ReleaseMode:  cfg.API.ReleaseMode,
		ModelTTL:     cfg.ModelTTL(),
		ImageBaseURL: cfg.TMDB.ImageBaseURL,
		JPEGQuality:  cfg.Images.JPEGQuality,
		Logger:       logger,
	}
}

// Server serves the MovieBox HTTP API.
type Server struct {
	deps    Dependencies
	opts    Options
	logger  *slog.Logger
	models  *modelCache
	engine  *gin.Engine
	httpSrv *http.Server
}

// New builds a server and registers its routes.
func New(deps Dependencies, opts Options) *Server {
	logger := logging.NewComponentLogger(opts.Logger, "api")
	if opts.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	factory := deps.Models
	if factory == nil {
		factory = func(movieID int64) *screen.MovieContentModel {
			return screen.NewMovieContentModel(movieID, deps.Content, deps.Content.Materializer(), screen.ModelOptions{
				Formatter: deps.Formatter,
				Logger:    opts.Logger,
			})
		}
	}
	s := &Server{
		deps:   deps,
		opts:   opts,
		logger: logger,
		models: newModelCache(factory, opts.ModelTTL, nil),
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), recovery(s.logger), accessLog(s.logger))

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)

	authed := api.Group("", bearerAuth(s.opts.Token, []byte(s.opts.JWTSecret)))
	authed.GET("/lists/:kind", s.handleMovieList)
	authed.GET("/search", s.handleSearch)

	authed.GET("/movies/:id", s.handleMovie)
	authed.POST("/movies/:id/card/reload", s.handleReloadCard)

	authed.GET("/cards", s.handleListCards)
	authed.GET("/cards/:id", s.handleGetCard)
	authed.POST("/cards/:id", s.handleAddCard)
	authed.PUT("/cards/:id/rate", s.handleRateCard)
	authed.PUT("/cards/:id/comment", s.handleCommentCard)
	authed.DELETE("/cards/:id", s.handleDeleteCard)

	authed.GET("/images/*path", s.handleImage)
	return r
}

// Start listens on the configured bind address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.httpSrv = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			logging.WarnWithContext(s.logger, "api server shutdown failed", "api_shutdown_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "restart the server if the port stays bound"),
				logging.String(logging.FieldImpact, "in-flight requests may have been dropped"))
		}
		s.models.closeAll()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases cached screen models.
func (s *Server) Close() {
	s.models.closeAll()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", CachedModels: s.models.size()})
}
