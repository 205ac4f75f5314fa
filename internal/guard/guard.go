// ABOUTME: Navigation guards deciding whether a route may be activated
// ABOUTME: Authentication guard redirects to sign-in, role guard to the landing page

package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/flightdesk/flightdesk/internal/session"
)

// Well-known routes used by the guards
const (
	LoginPath      = "/login"
	HomePath       = "/home"
	ReturnURLParam = "returnUrl"
)

// Request is a navigation attempt
type Request struct {
	Path  string
	Query url.Values
}

// URL returns the path with its encoded query, as used for return targets
func (r Request) URL() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// Decision is the outcome of a guard. Redirect is only meaningful when Allow
// is false; an empty Redirect means "stay where you are".
type Decision struct {
	Allow    bool
	Redirect string
	Reason   string
}

// Allowed returns an allow decision
func Allowed() Decision {
	return Decision{Allow: true}
}

// Denied returns a deny decision with a redirect target
func Denied(redirect, reason string) Decision {
	return Decision{Redirect: redirect, Reason: reason}
}

// Func is a navigation-time predicate. Guards never fail: every problem
// becomes a deny decision.
type Func func(ctx context.Context, req Request) Decision

// Store is the part of the session store the guards need
type Store interface {
	Current() *session.Session
	IsAuthenticated() bool
	ClearIf(token string) error
}

// Validator confirms a cached session with the server
type Validator interface {
	ValidateSession(ctx context.Context) bool
}

// Authenticated allows navigation only for a session the server still accepts.
// Without a cached session it denies immediately, without a network call.
func Authenticated(store Store, validator Validator) Func {
	return func(ctx context.Context, req Request) Decision {
		if !store.IsAuthenticated() {
			slog.Debug("Guard denied: not signed in", "path", req.Path)
			return Denied(LoginRedirect(req.URL()), "not signed in")
		}

		observed := store.Current().Credential()
		if validator.ValidateSession(ctx) {
			return Allowed()
		}

		if err := store.ClearIf(observed); err != nil && !errors.Is(err, session.ErrStaleWrite) {
			slog.Warn("Failed to clear rejected session", "error", err)
		}
		slog.Info("Guard denied: session rejected by server", "path", req.Path)
		return Denied(LoginRedirect(req.URL()), "session expired")
	}
}

// RequireRoles allows navigation when the cached session holds any of roles.
// Denials go to the neutral landing page, not sign-in: the user may well be
// signed in, just not allowed.
func RequireRoles(store Store, roles ...string) Func {
	return func(ctx context.Context, req Request) Decision {
		current := store.Current()
		if current.HasAnyRole(roles...) {
			return Allowed()
		}

		username := ""
		if current != nil {
			username = current.Username
		}
		slog.Warn("Guard denied: missing role",
			"path", req.Path,
			"required_roles", roles,
			"username", username,
		)
		return Denied(HomePath, "insufficient permissions")
	}
}

// LoginRedirect builds the sign-in location carrying returnURL.
// Slashes are left readable: /login?returnUrl=/profile
func LoginRedirect(returnURL string) string {
	if returnURL == "" || returnURL == LoginPath {
		return LoginPath
	}
	escaped := strings.ReplaceAll(url.QueryEscape(returnURL), "%2F", "/")
	return LoginPath + "?" + ReturnURLParam + "=" + escaped
}

// ReturnURL extracts a safe local return target from a sign-in location.
// Anything that is not a local absolute path falls back to the landing page.
func ReturnURL(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return HomePath
	}
	target := u.Query().Get(ReturnURLParam)
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, LoginPath) {
		return HomePath
	}
	return target
}

// PathOf strips the query from a location
func PathOf(location string) string {
	if i := strings.IndexByte(location, '?'); i >= 0 {
		return location[:i]
	}
	return location
}
