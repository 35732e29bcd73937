package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/storeprofile/internal/model"
)

// Fetcher retrieves the body of a URL that answered with a 2xx status.
// Failures are *model.ScrapeError values.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues GET requests against a storefront.
type Client struct {
	// httpClient performs the requests. Its own timeout is left unset;
	// the per-request timeout is applied through the request context.
	httpClient *http.Client

	// timeout bounds each request including reading the body.
	timeout time.Duration

	// limiter spaces requests out.
	limiter *rate.Limiter

	// maxBodySize limits how many bytes of a body are read.
	maxBodySize int64

	userAgent string
	headers   map[string]string
	logger    *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRequestsPerSecond limits the request rate. Zero or less disables the limit.
func WithRequestsPerSecond(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client. Without options it uses a 10 second timeout,
// two requests per second and a 20MB body cap.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		timeout:     10 * time.Second,
		limiter:     rate.NewLimiter(rate.Limit(2), 1),
		maxBodySize: 20 * 1024 * 1024,
		userAgent:   "storeprofile/1.0",
		headers:     make(map[string]string),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request and reads the body. A non-2xx status is not
// an error here; transport failures, timeouts and bodies over the size
// limit are.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &model.ScrapeError{URL: rawURL, Reason: model.ErrRequestFailed, Err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &model.ScrapeError{URL: rawURL, Reason: model.ErrRequestFailed, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/xml;q=0.9, text/html;q=0.8, */*;q=0.5")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.ScrapeError{URL: rawURL, Reason: model.ErrRequestFailed, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, &model.ScrapeError{URL: rawURL, StatusCode: resp.StatusCode, Reason: model.ErrRequestFailed, Err: err}
	}
	if int64(len(body)) > c.maxBodySize {
		c.logger.Warn("response body exceeds limit", "url", rawURL, "limit", c.maxBodySize)
		return nil, &model.ScrapeError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Reason:     model.ErrTooLarge,
			Err:        fmt.Errorf("more than %d bytes", c.maxBodySize),
		}
	}

	c.logger.Debug("fetched",
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start))

	return &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Fetch performs a GET request and returns the body of a 2xx response.
// Any other status becomes a *model.ScrapeError carrying that status.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, model.NewStatusError(rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

