package padserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nao1215/padwatch/internal/model"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent identifies the watcher to pad server operators.
	DefaultUserAgent = "padwatch (+https://github.com/nao1215/padwatch)"

	// DefaultMaxBodySize caps each response body.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024

	// DefaultTimeout is the HTTP client timeout.
	DefaultTimeout = 30 * time.Second
)

// Site holds per-server request customization.
type Site struct {
	// Cookie is a raw cookie string, e.g. "connect.sid=abc".
	Cookie string
	// Headers are extra request headers.
	Headers map[string]string
}

// Client fetches pads over HTTPS.
type Client struct {
	httpClient  *http.Client
	userAgent   string
	maxBodySize int64

	// rps and burst configure one limiter per server; rps <= 0 disables them.
	rps      float64
	burst    int
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

type options struct {
	transport   http.RoundTripper
	proxy       string
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	rps         float64
	burst       int
	sites       map[string]Site
}

// Option configures a Client.
type Option func(*options)

// WithProxy routes every request through the SOCKS5 proxy at addr ("host:port").
func WithProxy(addr string) Option {
	return func(o *options) {
		o.proxy = addr
	}
}

// WithTransport sets the base transport. It is ignored when a proxy is set.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithMaxBodySize caps each response body.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		o.maxBodySize = n
	}
}

// WithRate limits requests to each server to rps per second.
func WithRate(rps float64, burst int) Option {
	return func(o *options) {
		o.rps = rps
		o.burst = burst
	}
}

// WithSites sets per-server cookies and headers, keyed by server host.
func WithSites(sites map[string]Site) Option {
	return func(o *options) {
		o.sites = sites
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) (*Client, error) {
	o := options{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		burst:       1,
	}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.transport
	if o.proxy != "" {
		t, err := socksTransport(o.proxy)
		if err != nil {
			return nil, err
		}
		transport = t
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	if len(o.sites) > 0 {
		transport = &siteTransport{base: transport, sites: o.sites}
	}

	burst := o.burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   o.timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent:   o.userAgent,
		maxBodySize: o.maxBodySize,
		rps:         o.rps,
		burst:       burst,
		limiters:    make(map[string]*rate.Limiter),
	}, nil
}

// info mirrors the JSON document served at /{name}/info.
type info struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ViewCount   uint64    `json:"viewcount"`
	CreateTime  time.Time `json:"createtime"`
	UpdateTime  time.Time `json:"updatetime"`
}

// Fetch returns the current metadata and content of the pad at link.
func (c *Client) Fetch(ctx context.Context, link model.Link) (*model.Pad, error) {
	base := link.URL()

	body, err := c.get(ctx, link.Server, base+"/info")
	if err != nil {
		return nil, err
	}
	var meta info
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedInfo, link, err)
	}

	content, err := c.get(ctx, link.Server, base+"/download")
	if err != nil {
		return nil, err
	}

	return &model.Pad{
		Link:        link,
		Title:       meta.Title,
		Description: meta.Description,
		ViewCount:   meta.ViewCount,
		Content:     string(content),
		CreateTime:  meta.CreateTime,
		UpdateTime:  meta.UpdateTime,
	}, nil
}

func (c *Client) get(ctx context.Context, server, rawURL string) ([]byte, error) {
	if err := c.wait(ctx, server); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
		return nil, fmt.Errorf("%w: GET %s: %d", ErrUnexpectedStatus, rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, fmt.Errorf("%w: GET %s exceeds %d bytes", ErrBodyTooLarge, rawURL, c.maxBodySize)
	}
	return body, nil
}

// wait blocks until the server's limiter allows another request.
func (c *Client) wait(ctx context.Context, server string) error {
	if c.rps <= 0 {
		return nil
	}

	c.mu.Lock()
	limiter, ok := c.limiters[server]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(c.rps), c.burst)
		c.limiters[server] = limiter
	}
	c.mu.Unlock()

	return limiter.Wait(ctx)
}

// socksTransport returns a transport that dials through a SOCKS5 proxy.
func socksTransport(addr string) (*http.Transport, error) {
	if !isValidProxyAddress(addr) {
		return nil, ErrInvalidProxyAddress
	}

	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, address string) (net.Conn, error) {
			return dialer.Dial(network, address)
		}
	}
	return transport, nil
}

// isValidProxyAddress checks if the address is in valid "host:port" format.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// siteTransport wraps an http.RoundTripper to inject the cookie and headers
// configured for the request's host.
type siteTransport struct {
	base  http.RoundTripper
	sites map[string]Site
}

// RoundTrip implements http.RoundTripper.
func (t *siteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	site, ok := t.sites[req.URL.Host]
	if !ok {
		return t.base.RoundTrip(req)
	}

	// Clone the request to avoid modifying the original
	clone := req.Clone(req.Context())

	if site.Cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+site.Cookie)
		} else {
			clone.Header.Set("Cookie", site.Cookie)
		}
	}

	for key, value := range site.Headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
