// ABOUTME: Tests for the navigation guards
// ABOUTME: Verifies fast-path denial, server validation, and role-based redirects

package guard

import (
	"context"
	"net/url"
	"testing"

	"github.com/flightdesk/flightdesk/internal/session"
)

type stubValidator struct {
	valid bool
	calls int
}

func (v *stubValidator) ValidateSession(ctx context.Context) bool {
	v.calls++
	return v.valid
}

func storeWith(sess *session.Session) *session.Store {
	s := session.New(session.NewMemoryStorage())
	if sess != nil {
		s.Save(sess)
	}
	return s
}

func TestAuthenticated_NoSessionFastPath(t *testing.T) {
	store := storeWith(nil)
	validator := &stubValidator{valid: true}

	d := Authenticated(store, validator)(context.Background(), Request{Path: "/bookings"})

	if d.Allow {
		t.Error("expected deny without a session")
	}
	if d.Redirect != "/login?returnUrl=/bookings" {
		t.Errorf("unexpected redirect %q", d.Redirect)
	}
	if validator.calls != 0 {
		t.Errorf("expected zero validation calls, got %d", validator.calls)
	}
}

func TestAuthenticated_ValidSession(t *testing.T) {
	store := storeWith(&session.Session{Username: "alice", Roles: []string{session.RoleUser}})
	validator := &stubValidator{valid: true}

	d := Authenticated(store, validator)(context.Background(), Request{Path: "/profile"})

	if !d.Allow {
		t.Errorf("expected allow, got %+v", d)
	}
	if validator.calls != 1 {
		t.Errorf("expected one validation call, got %d", validator.calls)
	}
}

func TestAuthenticated_RejectedSessionClearsStore(t *testing.T) {
	store := storeWith(&session.Session{Username: "alice"})
	validator := &stubValidator{valid: false}

	d := Authenticated(store, validator)(context.Background(), Request{Path: "/profile"})

	if d.Allow {
		t.Error("expected deny for rejected session")
	}
	if d.Redirect != "/login?returnUrl=/profile" {
		t.Errorf("unexpected redirect %q", d.Redirect)
	}
	if store.IsAuthenticated() {
		t.Error("expected store to be cleared")
	}
}

// signInDuringValidation rejects the observed session but saves a new one
// before answering, as a sign-in finishing mid-validation would
type signInDuringValidation struct {
	store *session.Store
}

func (v *signInDuringValidation) ValidateSession(ctx context.Context) bool {
	v.store.Save(&session.Session{Username: "alice", Token: "new-token"})
	return false
}

func TestAuthenticated_RejectionKeepsNewerSignIn(t *testing.T) {
	store := storeWith(&session.Session{Username: "alice", Token: "old-token"})

	d := Authenticated(store, &signInDuringValidation{store: store})(context.Background(), Request{Path: "/profile"})

	if d.Allow {
		t.Error("expected deny for the rejected navigation")
	}
	if got := store.Current().Credential(); got != "new-token" {
		t.Errorf("expected the newer sign-in to survive, got token %q", got)
	}
}

func TestAuthenticated_KeepsQueryInReturnTarget(t *testing.T) {
	store := storeWith(nil)
	req := Request{Path: "/search", Query: url.Values{"from": {"DEL"}}}

	d := Authenticated(store, &stubValidator{})(context.Background(), req)

	if got := ReturnURL(d.Redirect); got != "/search?from=DEL" {
		t.Errorf("expected return target /search?from=DEL, got %q", got)
	}
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name    string
		session *session.Session
		allowed []string
		want    bool
	}{
		{"admin allowed", &session.Session{Username: "root", Roles: []string{session.RoleAdmin}}, []string{session.RoleAdmin}, true},
		{"user denied admin", &session.Session{Username: "alice", Roles: []string{session.RoleUser}}, []string{session.RoleAdmin}, false},
		{"any of many", &session.Session{Username: "alice", Roles: []string{session.RoleUser}}, []string{session.RoleAdmin, session.RoleUser}, true},
		{"signed out", nil, []string{session.RoleUser}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := storeWith(tc.session)
			d := RequireRoles(store, tc.allowed...)(context.Background(), Request{Path: "/admin"})

			if d.Allow != tc.want {
				t.Errorf("Allow = %v, want %v", d.Allow, tc.want)
			}
			if !tc.want && d.Redirect != HomePath {
				t.Errorf("expected redirect to %s, got %q", HomePath, d.Redirect)
			}
		})
	}
}

func TestLoginRedirect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/profile", "/login?returnUrl=/profile"},
		{"/ticket/T-1", "/login?returnUrl=/ticket/T-1"},
		{"", "/login"},
		{"/login", "/login"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := LoginRedirect(tc.in); got != tc.want {
				t.Errorf("LoginRedirect(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestReturnURL(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"/login?returnUrl=/profile", "/profile"},
		{"/login", HomePath},
		{"/login?returnUrl=https://evil.example.com", HomePath},
		{"/login?returnUrl=//evil.example.com", HomePath},
		{"/login?returnUrl=/login", HomePath},
	}

	for _, tc := range tests {
		t.Run(tc.location, func(t *testing.T) {
			if got := ReturnURL(tc.location); got != tc.want {
				t.Errorf("ReturnURL(%q) = %q, want %q", tc.location, got, tc.want)
			}
		})
	}
}

func TestPathOf(t *testing.T) {
	if got := PathOf("/login?returnUrl=/x"); got != "/login" {
		t.Errorf("expected /login, got %q", got)
	}
	if got := PathOf("/home"); got != "/home" {
		t.Errorf("expected /home, got %q", got)
	}
}
