// ABOUTME: HTTP client for the flight-booking API
// ABOUTME: Owns the transport chain, session store wiring, and shared request helpers

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"

	"github.com/flightdesk/flightdesk/internal/session"
)

// API path prefixes
const (
	AuthPrefix   = "/api/v1.0/auth"
	FlightPrefix = "/api/v1.0/flight"
	HealthPath   = "/actuator/health"
)

// DefaultTimeout bounds every remote call
const DefaultTimeout = 30 * time.Second

// Client is the API client for the flight-booking backend
type Client struct {
	baseURL    string
	basePath   string
	httpClient *http.Client
	store      *session.Store
	navigator  Navigator
	logger     *slog.Logger

	timeout   time.Duration
	transport http.RoundTripper
	allProxy  string

	validateGroup singleflight.Group
}

// Option configures a Client
type Option func(*Client)

// WithStore sets the session store. Without one the client keeps the
// session in memory only.
func WithStore(store *session.Store) Option {
	return func(c *Client) { c.store = store }
}

// WithNavigator sets where the client sends the user after a rejected session
func WithNavigator(n Navigator) Option {
	return func(c *Client) { c.navigator = n }
}

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithTransport sets the base transport beneath the interceptor
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithProxy routes connections through an SSH+SOCKS5 proxy.
// Format: ssh+socks5://user@host:port?private-key=/path/to/key
func WithProxy(allProxy string) Option {
	return func(c *Client) { c.allProxy = allProxy }
}

// WithLogger sets the logger for request and session events
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q", baseURL)
	}
	c.basePath = strings.TrimRight(u.Path, "/")

	if c.store == nil {
		c.store = session.New(session.NewMemoryStorage(), session.WithLogger(c.logger))
	}
	if c.navigator == nil {
		c.navigator = &staticNavigator{}
	}

	base := c.transport
	if base == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.allProxy != "" {
			dial, err := createSOCKS5DialContextFunc(c.allProxy, c.logger)
			if err != nil {
				return nil, err
			}
			transport.DialContext = dial
		}
		base = transport
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c.httpClient = &http.Client{
		Timeout:   c.timeout,
		Jar:       jar,
		Transport: Chain(base, c.Intercept, c.LogRequests),
	}
	return c, nil
}

// Store returns the session store the client writes to
func (c *Client) Store() *session.Store {
	return c.store
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthResponse represents the actuator health endpoint response
type HealthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]HealthComponent `json:"components,omitempty"`
}

// HealthComponent is one entry of the health response
type HealthComponent struct {
	Status string `json:"status"`
}

// Ack is the generic {"message", "status"} acknowledgement
type Ack struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// Health calls GET /actuator/health
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, HealthPath, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := c.doJSON(ctx, req, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// newRequest builds a request for path relative to the base URL, encoding
// payload as JSON when non-nil
func (c *Client) newRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// withCredential attaches the stored bearer credential. Used on the auth
// endpoints that act on the current identity, which the interceptor treats
// as public.
func (c *Client) withCredential(req *http.Request) {
	if h := c.store.Current().AuthorizationHeader(); h != "" {
		req.Header.Set("Authorization", h)
	}
}

// send performs req and converts transport failures and non-2xx statuses
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, handleErrorResponse(resp)
	}
	return resp, nil
}

// doJSON performs req and decodes the response into out. An empty body
// leaves out untouched.
func (c *Client) doJSON(ctx context.Context, req *http.Request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// doText performs req and returns the body as text
func (c *Client) doText(ctx context.Context, req *http.Request) (string, error) {
	req.Header.Set("Accept", "text/plain, application/json")
	resp, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.handleRequestError(ctx, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ackOrDefault returns ack, filling in a message when the server sent none
func ackOrDefault(ack Ack, fallback string) *Ack {
	if ack.Message == "" {
		ack.Message = fallback
	}
	return &ack
}
