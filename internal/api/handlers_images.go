package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"moviebox/internal/imagecache"
	"moviebox/internal/imagex"
	"moviebox/internal/services"
)

const maxThumbnailWidth = 2000

// handleImage proxies TMDB images through the two-tier cache. An optional
// ?w= query downsamples the image to that width and re-encodes it as JPEG.
func (s *Server) handleImage(c *gin.Context) {
	path := c.Param("path")
	if strings.Trim(path, "/") == "" || strings.Contains(path, "..") {
		abortBadRequest(c, "image path is required")
		return
	}
	width := 0
	if raw := c.Query("w"); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil || w < 1 || w > maxThumbnailWidth {
			abortBadRequest(c, "w must be between 1 and "+strconv.Itoa(maxThumbnailWidth))
			return
		}
		width = w
	}

	rawURL := strings.TrimRight(s.opts.ImageBaseURL, "/") + path
	result, err := s.deps.Images.Retrieve(c.Request.Context(), rawURL, imagecache.CacheAll)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("X-Image-Source", string(result.Source))
	c.Header("Cache-Control", "public, max-age=86400")

	if width == 0 {
		c.Data(http.StatusOK, http.DetectContentType(result.Data), result.Data)
		return
	}
	thumb, err := imagex.DownsampleJPEG(result.Data, width, 0, s.opts.JPEGQuality)
	if err != nil {
		abortWithError(c, services.Wrap(services.ErrExternal, "api", "image", "decode image", err))
		return
	}
	c.Data(http.StatusOK, "image/jpeg", thumb)
}
