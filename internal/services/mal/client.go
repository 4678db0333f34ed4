package mal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"animelists/internal/season"
	"animelists/internal/services"
	"animelists/internal/textutil"
)

const (
	// DefaultBaseURL is the public MyAnimeList v2 API root.
	DefaultBaseURL = "https://api.myanimelist.net/v2"
	// DefaultLimit is the page size requested per season.
	DefaultLimit = 100
	// MaxLimit is the largest page the seasonal endpoint accepts.
	MaxLimit = 500

	clientIDHeader = "X-MAL-CLIENT-ID"
	seasonFields   = "mean,num_scoring_users,media_type"
	defaultTimeout = 30 * time.Second
)

// Entry is a single seasonal catalog listing.
type Entry struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Mean            float64 `json:"mean"`
	NumScoringUsers int64   `json:"num_scoring_users"`
	MediaType       string  `json:"media_type"`
}

type seasonResponse struct {
	Data []struct {
		Node node `json:"node"`
	} `json:"data"`
}

type node struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Mean            *float64 `json:"mean"`
	NumScoringUsers *int64   `json:"num_scoring_users"`
	MediaType       *string  `json:"media_type"`
}

func (n node) entry() Entry {
	e := Entry{ID: n.ID, Title: textutil.NormalizeTitle(n.Title)}
	if n.Mean != nil {
		e.Mean = *n.Mean
	}
	if n.NumScoringUsers != nil {
		e.NumScoringUsers = *n.NumScoringUsers
	}
	if n.MediaType != nil {
		e.MediaType = strings.TrimSpace(*n.MediaType)
	}
	return e
}

// Fetcher defines the catalog operations used by the pipeline.
type Fetcher interface {
	FetchSeason(ctx context.Context, key season.Key, limit int) ([]Entry, error)
}

// Client provides access to the MyAnimeList seasonal endpoint.
type Client struct {
	clientID   string
	baseURL    string
	userAgent  string
	httpClient *http.Client
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

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(userAgent)
	}
}

// New creates a MyAnimeList client. A blank client id is a configuration
// error reported before any request is attempted.
func New(clientID, baseURL string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "init", "mal client id required (set mal.client_id or MAL_CLIENT_ID)", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		clientID:   clientID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchSeason returns up to limit entries for the season, highest score first.
// A response without entries yields an empty slice.
func (c *Client) FetchSeason(ctx context.Context, key season.Key, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/anime/season/%d/%s", c.baseURL, key.Year, key.Season))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "build url", c.baseURL, err)
	}
	params := url.Values{}
	params.Set("sort", "anime_score")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", seasonFields)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "catalog", "build request", key.Slug(), err)
	}
	req.Header.Set(clientIDHeader, c.clientID)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "catalog", "fetch season", fmt.Sprintf("%s (latency=%v)", key.Slug(), latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, services.Wrap(services.ErrTransport, "catalog", "fetch season", fmt.Sprintf("%s returned %d (latency=%v)", key.Slug(), resp.StatusCode, latency), nil)
	}

	var payload seasonResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrParse, "catalog", "decode season", key.Slug(), err)
	}

	entries := make([]Entry, 0, len(payload.Data))
	for _, item := range payload.Data {
		entries = append(entries, item.Node.entry())
	}
	return entries, nil
}
