package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/msomdec/marquee/internal/domain"
)

const (
	// DefaultBaseURL is the TMDB v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"

	maxImageBytes = 8 << 20
)

// Result is a single TMDB movie record as returned by search and details.
type Result struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey      string
	bearerToken string
	baseURL     string
	language    string
	httpClient  *http.Client
}

var _ domain.MetadataProvider = (*Client)(nil)

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

// WithTimeout bounds every request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

// New creates a TMDB client. baseURL may be empty to use DefaultBaseURL.
func New(credential, baseURL, language string, opts ...Option) (*Client, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, errors.New("tmdb credential required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if token, ok := strings.CutPrefix(credential, "Bearer "); ok {
		client.bearerToken = strings.TrimSpace(token)
	} else {
		client.apiKey = credential
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovie runs a TMDB movie search for the supplied title.
func (c *Client) SearchMovie(ctx context.Context, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)

	var payload Response
	if err := c.getJSON(ctx, "/search/movie", params, "tmdb search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieDetails fetches movie details by TMDB ID. An unknown id yields
// domain.ErrNotFound.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*Result, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload Result
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", movieID), url.Values{}, "tmdb movie details", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchMovies implements domain.MetadataProvider.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]domain.Candidate, error) {
	resp, err := c.SearchMovie(ctx, query)
	if err != nil {
		return nil, err
	}
	candidates := make([]domain.Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		candidates = append(candidates, domain.Candidate{
			ExternalID:  r.ID,
			Title:       r.Title,
			ReleaseDate: r.ReleaseDate,
			Overview:    r.Overview,
			PosterPath:  r.PosterPath,
		})
	}
	return candidates, nil
}

// MovieDetails implements domain.MetadataProvider.
func (c *Client) MovieDetails(ctx context.Context, externalID int64) (*domain.MovieDetails, error) {
	r, err := c.GetMovieDetails(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return &domain.MovieDetails{
		ExternalID:  r.ID,
		Title:       r.Title,
		ReleaseDate: r.ReleaseDate,
		Overview:    r.Overview,
		PosterPath:  r.PosterPath,
	}, nil
}

// DownloadImage fetches an image from the TMDB image CDN.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) (*domain.Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb image returned %d (latency=%v)", resp.StatusCode, latency)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &domain.Blob{ContentType: contentType, Data: data}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, what string, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d (latency=%v)", what, resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", what, err)
	}
	return nil
}
