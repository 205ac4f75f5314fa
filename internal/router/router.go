// ABOUTME: Route table and navigation for CLI commands and TUI screens
// ABOUTME: Runs route guards in order and follows their redirects

package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/flightdesk/flightdesk/internal/guard"
)

// maxRedirects bounds guard redirect chains
const maxRedirects = 5

var (
	// ErrNotFound is returned when no route matches the target path
	ErrNotFound = errors.New("no route matches path")
	// ErrRedirectLoop is returned when guards keep redirecting
	ErrRedirectLoop = errors.New("too many guard redirects")
)

// Route is one navigable location. Path segments starting with ':' are
// parameters.
type Route struct {
	Path   string
	Title  string
	Guards []guard.Func
}

// Location is where a navigation ended up
type Location struct {
	Route  *Route
	Path   string
	Query  url.Values
	Params map[string]string

	// Redirected is true when a guard sent the navigation elsewhere
	Redirected bool
	// Requested is the original target before any redirect
	Requested string
	// Reason is the last guard's denial reason
	Reason string
}

// String returns the location as path plus encoded query
func (l Location) String() string {
	return guard.Request{Path: l.Path, Query: l.Query}.URL()
}

// Param returns a path parameter
func (l Location) Param(name string) string {
	return l.Params[name]
}

// Router holds the route table and the current location
type Router struct {
	routes []*Route

	mu       sync.RWMutex
	location string
	onChange []func(string)
}

// New creates a router with the given routes
func New(routes ...Route) *Router {
	r := &Router{}
	for i := range routes {
		r.Add(routes[i])
	}
	return r
}

// Add registers a route. Earlier routes win on ambiguous matches.
func (r *Router) Add(route Route) {
	rt := route
	r.routes = append(r.routes, &rt)
}

// Routes returns the registered routes
func (r *Router) Routes() []*Route {
	return r.routes
}

// Match finds the route for path and extracts its parameters
func (r *Router) Match(path string) (*Route, map[string]string, bool) {
	segments := splitPath(path)
	for _, rt := range r.routes {
		if params, ok := matchSegments(splitPath(rt.Path), segments); ok {
			return rt, params, true
		}
	}
	return nil, nil, false
}

// Navigate resolves target, runs the matching route's guards in order and
// follows any redirect. The first denying guard wins.
func (r *Router) Navigate(ctx context.Context, target string) (Location, error) {
	requested := target
	redirected := false
	reason := ""

	for hop := 0; hop <= maxRedirects; hop++ {
		u, err := url.Parse(target)
		if err != nil {
			return Location{}, fmt.Errorf("invalid navigation target %q: %w", target, err)
		}
		path := u.Path
		if path == "" {
			path = "/"
		}

		rt, params, ok := r.Match(path)
		if !ok {
			return Location{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		req := guard.Request{Path: path, Query: u.Query()}
		decision := runGuards(ctx, rt.Guards, req)
		if !decision.Allow {
			if decision.Redirect == "" {
				// Stay where we are
				return Location{Requested: requested, Reason: decision.Reason, Redirected: true}, nil
			}
			slog.Debug("Navigation redirected", "from", req.URL(), "to", decision.Redirect, "reason", decision.Reason)
			target = decision.Redirect
			redirected = true
			reason = decision.Reason
			continue
		}

		loc := Location{
			Route:      rt,
			Path:       path,
			Query:      req.Query,
			Params:     params,
			Redirected: redirected,
			Requested:  requested,
			Reason:     reason,
		}
		r.setLocation(loc.String())
		return loc, nil
	}

	return Location{}, fmt.Errorf("%w: %s", ErrRedirectLoop, requested)
}

func runGuards(ctx context.Context, guards []guard.Func, req guard.Request) guard.Decision {
	for _, g := range guards {
		if d := g(ctx, req); !d.Allow {
			return d
		}
	}
	return guard.Allowed()
}

// Location returns the current location
func (r *Router) Location() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.location
}

// Redirect moves the current location without running guards. It is used
// by the request interceptor after invalidating a session; the login route
// has no guards anyway.
func (r *Router) Redirect(target string) {
	slog.Debug("Redirect requested", "to", target)
	r.setLocation(target)
}

// OnChange registers a callback for location changes
func (r *Router) OnChange(fn func(location string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

func (r *Router) setLocation(location string) {
	r.mu.Lock()
	r.location = location
	callbacks := make([]func(string), len(r.onChange))
	copy(callbacks, r.onChange)
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn(location)
	}
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segments[i] == "" {
				return nil, false
			}
			params[p[1:]] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}
