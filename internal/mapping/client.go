package mapping

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"animelists/internal/services"
)

const (
	// DefaultURL is the Fribb/anime-lists full cross-reference feed.
	DefaultURL = "https://raw.githubusercontent.com/Fribb/anime-lists/master/anime-list-full.json"

	defaultTimeout = 60 * time.Second
)

// Loader builds a cross-reference table.
type Loader interface {
	Load(ctx context.Context) (*Table, error)
}

// Client loads a mapping feed from an HTTP(S) URL or a local file.
type Client struct {
	source     string
	format     Format
	userAgent  string
	httpClient *http.Client
}

var _ Loader = (*Client)(nil)

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

// WithUserAgent sets the User-Agent header for feed requests.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(userAgent)
	}
}

// New creates a feed client. A blank source falls back to DefaultURL.
func New(source string, format Format, opts ...Option) *Client {
	source = strings.TrimSpace(source)
	if source == "" {
		source = DefaultURL
	}
	client := &Client{
		source:     source,
		format:     format.Detect(source),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Source returns the configured feed location.
func (c *Client) Source() string {
	return c.source
}

// Format returns the decoder used for the feed.
func (c *Client) Format() Format {
	return c.format
}

// Load fetches and decodes the feed into a Table.
func (c *Client) Load(ctx context.Context) (*Table, error) {
	body, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	records, err := Decode(body, c.format)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, "mapping", "decode feed", fmt.Sprintf("%s (%s)", c.source, c.format), err)
	}
	return NewTable(records), nil
}

func (c *Client) open(ctx context.Context) (io.ReadCloser, error) {
	if !isRemote(c.source) {
		f, err := os.Open(c.source)
		if err != nil {
			return nil, services.Wrap(services.ErrTransport, "mapping", "open feed", c.source, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.source, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "mapping", "build request", c.source, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrTransport, "mapping", "fetch feed", fmt.Sprintf("%s (latency=%v)", c.source, latency), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, services.Wrap(services.ErrTransport, "mapping", "fetch feed", fmt.Sprintf("%s returned %d (latency=%v)", c.source, resp.StatusCode, latency), nil)
	}
	return resp.Body, nil
}

func isRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
