package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"moviebox/internal/logging"
	"moviebox/internal/services"
)

const (
	requestIDHeader = "X-Request-ID"
	subjectKey      = "moviebox.subject"
)

// requestID tags every request with an id, taken from X-Request-ID when the
// caller supplies one, and stores it on the request context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// accessLog writes one structured line per request.
func accessLog(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		attrs := []logging.Attr{
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("latency", time.Since(started)),
		}
		if subject := c.GetString(subjectKey); subject != "" {
			attrs = append(attrs, logging.String("subject", subject))
		}
		log := logging.WithContext(c.Request.Context(), logger)
		if status >= http.StatusInternalServerError {
			log.Error("api request failed", logging.Args(attrs...)...)
			return
		}
		log.Debug("api request", logging.Args(attrs...)...)
	}
}

// recovery turns panics into 500 responses and logs them.
func recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.ErrorWithContext(logging.WithContext(c.Request.Context(), logger), "api handler panic", "api_panic",
			logging.Any("panic", recovered),
			logging.String(logging.FieldErrorHint, "report this as a bug with the request id"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	})
}

// bearerAuth validates bearer tokens against the static token and, when a
// secret is configured, as HS256 JWTs. With neither set all requests pass.
func bearerAuth(token string, jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" && len(jwtSecret) == 0 {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}
		presented := strings.TrimPrefix(auth, "Bearer ")
		if token != "" && presented == token {
			c.Next()
			return
		}
		if len(jwtSecret) > 0 {
			if claims, err := ParseToken(jwtSecret, presented); err == nil {
				c.Set(subjectKey, claims.Subject)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
}
