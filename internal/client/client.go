package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"github.com/bazarr-bulk/bb/internal/apperrors"
	"github.com/bazarr-bulk/bb/internal/cache"
	"github.com/bazarr-bulk/bb/internal/config"
	"github.com/bazarr-bulk/bb/internal/models"
)

// Client defines the interface for the remote subtitle-management API.
type Client interface {
	// CheckHealth queries the system status endpoint. A nil error with an empty
	// version means the service answered but the payload was not recognised.
	CheckHealth(ctx context.Context) (*models.SystemStatus, error)

	ListMovies(ctx context.Context, filter models.Filter) ([]models.Movie, error)
	ListSeries(ctx context.Context, filter models.Filter) ([]models.Show, error)
	ListEpisodes(ctx context.Context, seriesID int) ([]models.Episode, error)

	// ApplyAction asks the remote service to run one action on one subtitle.
	ApplyAction(ctx context.Context, req models.ActionRequest) error

	// Close releases any resources held by the client (e.g., cache connections).
	Close() error
}

// client implements the Client interface
type client struct {
	httpClient *http.Client
	baseURL    *url.URL
	retry      RetryOptions
	cache      cache.Cache
}

// Option customises a client.
type Option func(*client)

// WithCache serves list requests from the given cache. A nil cache disables caching.
func WithCache(c cache.Cache) Option {
	return func(cl *client) { cl.cache = c }
}

// WithRetry overrides the retry bounds taken from the configuration.
func WithRetry(opts RetryOptions) Option {
	return func(cl *client) { cl.retry = opts }
}

// WithHTTPClient replaces the HTTP client, e.g. in tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(cl *client) { cl.httpClient = hc }
}

// NewClient creates a new client instance with proxy configuration if provided
func NewClient(cfg *config.Config, opts ...Option) (Client, error) {
	baseURL, err := cfg.APIURL()
	if err != nil {
		return nil, err
	}

	// Clone DefaultTransport to preserve its pooling and HTTP/2 settings
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.ProxyConnectionString != "" {
		if err := applyProxy(baseTransport, cfg.ProxyConnectionString); err != nil {
			return nil, fmt.Errorf("%w: proxy_connection_string: %v", apperrors.ErrInvalidConfig, err)
		}
	}

	minDelay, maxDelay := cfg.RetryBounds()
	c := &client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: newAPITransport(baseTransport, cfg.APIKey, cfg.UserAgent),
		},
		baseURL: baseURL,
		retry: RetryOptions{
			MaxRetries: cfg.Retry.MaxRetries,
			MinDelay:   minDelay,
			MaxDelay:   maxDelay,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// endpoint builds the absolute URL of an API path.
func (c *client) endpoint(p string, query url.Values) string {
	u := *c.baseURL
	u.Path = path.Join(u.Path, p)
	u.RawQuery = query.Encode()
	return u.String()
}

// Close releases any resources held by the client, such as cache connections.
func (c *client) Close() error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close()
}
