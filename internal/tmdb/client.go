package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Ponloe/cinemesh-catalog/internal/apperr"
)

var ErrNotConfigured = errors.New("tmdb api key not configured")

type Client struct {
	config     *Config
	httpClient *http.Client
	log        *logrus.Logger
}

func NewClient(config *Config, log *logrus.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.config.APIKey == "" {
		return apperr.Dependency("tmdb request", ErrNotConfigured)
	}
	if params == nil {
		params = url.Values{}
	}
	entry := c.log.WithFields(logrus.Fields{"endpoint": endpoint, "query": params.Encode()})

	params.Set("api_key", c.config.APIKey)
	fullURL := fmt.Sprintf("%s%s?%s", c.config.BaseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		entry.WithError(err).Warn("tmdb request failed")
		return apperr.Dependency("tmdb request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Dependency("tmdb read body", err)
	}
	entry = entry.WithFields(logrus.Fields{"status": resp.StatusCode, "bytes": len(body), "latency": time.Since(start)})

	switch {
	case resp.StatusCode == http.StatusNotFound:
		entry.Debug("tmdb resource not found")
		return apperr.NotFound("tmdb resource", endpoint)
	case resp.StatusCode != http.StatusOK:
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		entry.WithField("message", e.StatusMessage).Warn("tmdb api error")
		return apperr.Dependency("tmdb request", fmt.Errorf("status %d: %s", resp.StatusCode, e.StatusMessage))
	}
	entry.Debug("tmdb response")

	if err := json.Unmarshal(body, out); err != nil {
		return apperr.Dependency("tmdb decode", err)
	}
	return nil
}

func (c *Client) SearchMovies(ctx context.Context, query string, page int) (*MovieSearchResponse, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	if page > 1 {
		params.Set("page", fmt.Sprint(page))
	}

	var result MovieSearchResponse
	if err := c.get(ctx, "/search/movie", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetMovieDetails(ctx context.Context, tmdbID int) (*MovieDetails, error) {
	params := url.Values{}
	params.Set("append_to_response", "videos")

	var details MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", tmdbID), params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) GetGenres(ctx context.Context) ([]Genre, error) {
	var result GenreListResponse
	if err := c.get(ctx, "/genre/movie/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Genres, nil
}
