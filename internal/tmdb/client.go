package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"moviebox/internal/logging"
	"moviebox/internal/services"
)

// Fetcher defines the TMDB operations used by the content use case.
type Fetcher interface {
	MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error)
	MovieCredits(ctx context.Context, movieID int64) (*Credits, error)
	MovieImages(ctx context.Context, movieID int64) (*Images, error)
	MovieVideos(ctx context.Context, movieID int64) (*Videos, error)
	SimilarMovies(ctx context.Context, movieID int64, page int) (*MoviePage, error)
	RecommendedMovies(ctx context.Context, movieID int64, page int) (*MoviePage, error)
	MovieList(ctx context.Context, kind ListKind, page int) (*MoviePage, error)
	SearchMovies(ctx context.Context, query string, page int) (*MoviePage, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "tmdb")
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// APIError reports a non-200 TMDB response.
type APIError struct {
	Endpoint      string
	StatusCode    int
	StatusMessage string
}

func (e *APIError) Error() string {
	if e.StatusMessage != "" {
		return fmt.Sprintf("tmdb %s returned %d: %s", e.Endpoint, e.StatusCode, e.StatusMessage)
	}
	return fmt.Sprintf("tmdb %s returned %d", e.Endpoint, e.StatusCode)
}

// MovieDetails fetches movie details by TMDB ID.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*MovieDetails, error) {
	if err := requirePositive(movieID); err != nil {
		return nil, err
	}
	var payload MovieDetails
	if err := c.get(ctx, "movie details", fmt.Sprintf("/movie/%d", movieID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieCredits fetches cast and crew for a movie.
func (c *Client) MovieCredits(ctx context.Context, movieID int64) (*Credits, error) {
	if err := requirePositive(movieID); err != nil {
		return nil, err
	}
	var payload Credits
	if err := c.get(ctx, "movie credits", fmt.Sprintf("/movie/%d/credits", movieID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieImages fetches the backdrop and poster galleries. Language-neutral
// images are included alongside the configured language.
func (c *Client) MovieImages(ctx context.Context, movieID int64) (*Images, error) {
	if err := requirePositive(movieID); err != nil {
		return nil, err
	}
	params := url.Values{}
	langs := []string{"null"}
	if primary := c.primaryLanguage(); primary != "" {
		langs = append([]string{primary}, langs...)
	}
	if !slices.Contains(langs, "en") {
		langs = append(langs, "en")
	}
	params.Set("include_image_language", strings.Join(langs, ","))
	var payload Images
	if err := c.getWithLanguage(ctx, "movie images", fmt.Sprintf("/movie/%d/images", movieID), params, &payload, false); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieVideos fetches trailers and clips for a movie.
func (c *Client) MovieVideos(ctx context.Context, movieID int64) (*Videos, error) {
	if err := requirePositive(movieID); err != nil {
		return nil, err
	}
	var payload Videos
	if err := c.get(ctx, "movie videos", fmt.Sprintf("/movie/%d/videos", movieID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SimilarMovies fetches a page of movies similar to movieID.
func (c *Client) SimilarMovies(ctx context.Context, movieID int64, page int) (*MoviePage, error) {
	if err := requirePositive(movieID); err != nil {
		return nil, err
	}
	return c.page(ctx, "similar movies", fmt.Sprintf("/movie/%d/similar", movieID), page, nil)
}

// RecommendedMovies fetches a page of recommendations for movieID.
func (c *Client) RecommendedMovies(ctx context.Context, movieID int64, page int) (*MoviePage, error) {
	if err := requirePositive(movieID); err != nil {
		return nil, err
	}
	return c.page(ctx, "recommended movies", fmt.Sprintf("/movie/%d/recommendations", movieID), page, nil)
}

// MovieList fetches a page of one of the curated lists.
func (c *Client) MovieList(ctx context.Context, kind ListKind, page int) (*MoviePage, error) {
	if !kind.Valid() {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "movie list", fmt.Sprintf("unknown list %q", kind), nil)
	}
	return c.page(ctx, string(kind), "/movie/"+string(kind), page, nil)
}

// SearchMovies performs a TMDB movie search.
func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	return c.page(ctx, "search movies", "/search/movie", page, params)
}

func (c *Client) page(ctx context.Context, op, path string, page int, params url.Values) (*MoviePage, error) {
	if params == nil {
		params = url.Values{}
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	var payload MoviePage
	if err := c.get(ctx, op, path, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	return c.getWithLanguage(ctx, op, path, params, out, true)
}

func (c *Client) getWithLanguage(ctx context.Context, op, path string, params url.Values, out any, withLanguage bool) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if withLanguage && c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("tmdb %s: %w", op, ctxErr)
		}
		return services.Wrap(services.ErrExternal, "tmdb", op, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	c.logger.Debug("tmdb request",
		logging.String("endpoint", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency))

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Endpoint: op, StatusCode: resp.StatusCode, StatusMessage: statusMessage(resp.Body)}
		return services.Wrap(markerForStatus(resp.StatusCode), "tmdb", op, fmt.Sprintf("latency=%v", latency), apiErr)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternal, "tmdb", op, "decode response", err)
	}
	return nil
}

func (c *Client) primaryLanguage() string {
	lang, _, _ := strings.Cut(c.language, "-")
	return strings.ToLower(lang)
}

func markerForStatus(code int) error {
	switch {
	case code == http.StatusNotFound:
		return services.ErrNotFound
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return services.ErrConfiguration
	case code == http.StatusTooManyRequests || code >= 500:
		return services.ErrTransient
	default:
		return services.ErrExternal
	}
}

func statusMessage(body io.Reader) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.StatusMessage
}

func requirePositive(movieID int64) error {
	if movieID <= 0 {
		return services.Wrap(services.ErrValidation, "tmdb", "", "movie id must be positive", nil)
	}
	return nil
}
