// ABOUTME: Request interceptor attaching credentials and reacting to rejected sessions
// ABOUTME: Composes http.RoundTripper middleware in declaration order

package client

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flightdesk/flightdesk/internal/guard"
	"github.com/flightdesk/flightdesk/internal/session"
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// Navigator is where the interceptor sends the user after a 401
type Navigator interface {
	Location() string
	Redirect(target string)
}

// staticNavigator records redirects when no router is attached
type staticNavigator struct {
	mu       sync.Mutex
	location string
}

func (n *staticNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *staticNavigator) Redirect(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = target
}

// RoundTripperFunc adapts a function to http.RoundTripper
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps a RoundTripper
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain applies middleware to a transport in order.
// The first middleware in the list is the outermost (executes first).
// Example: Chain(base, intercept, logging) applies as: intercept(logging(base))
func Chain(rt http.RoundTripper, middlewares ...Middleware) http.RoundTripper {
	for i := len(middlewares) - 1; i >= 0; i-- {
		rt = middlewares[i](rt)
	}
	return rt
}

// isPublic reports whether path needs no bearer credential from the
// interceptor and is exempt from 401 handling
func (c *Client) isPublic(path string) bool {
	rel := strings.TrimPrefix(path, c.basePath)
	return rel == AuthPrefix || strings.HasPrefix(rel, AuthPrefix+"/") || rel == HealthPath
}

// Intercept attaches the stored credential to protected requests and, when
// the server rejects one with 401, invalidates the session and sends the
// user to sign-in. The response is passed through unchanged.
func (c *Client) Intercept(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req = req.Clone(req.Context())
		if req.Header.Get(RequestIDHeader) == "" {
			req.Header.Set(RequestIDHeader, uuid.NewString())
		}

		public := c.isPublic(req.URL.Path)
		if !public && req.Header.Get("Authorization") == "" {
			if h := c.store.Current().AuthorizationHeader(); h != "" {
				req.Header.Set("Authorization", h)
			}
		}

		resp, err := next.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized && !public {
			c.handleUnauthorized(req)
		}
		return resp, nil
	})
}

func (c *Client) handleUnauthorized(req *http.Request) {
	c.logger.Info("Protected request rejected, invalidating session",
		"request_id", req.Header.Get(RequestIDHeader),
		"method", req.Method,
		"path", req.URL.Path,
	)

	if err := c.store.ClearIf(sentCredential(req)); err != nil {
		if errors.Is(err, session.ErrStaleWrite) {
			// A newer sign-in landed while this request was in flight
			return
		}
		c.logger.Warn("Failed to clear rejected session", "error", err)
	}

	location := c.navigator.Location()
	if guard.PathOf(location) == guard.LoginPath {
		return
	}
	c.navigator.Redirect(guard.LoginRedirect(location))
}

// sentCredential returns the bearer token req carried, or ""
func sentCredential(req *http.Request) string {
	_, token, ok := strings.Cut(req.Header.Get("Authorization"), " ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// LogRequests logs each outgoing request with timing and correlation ID
func (c *Client) LogRequests(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		requestID := req.Header.Get(RequestIDHeader)

		c.logger.Debug("Request started",
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.Path,
		)

		resp, err := next.RoundTrip(req)
		if err != nil {
			c.logger.Debug("Request failed",
				"request_id", requestID,
				"method", req.Method,
				"path", req.URL.Path,
				"error", err,
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return nil, err
		}

		c.logger.Debug("Request completed",
			"request_id", requestID,
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		return resp, nil
	})
}
