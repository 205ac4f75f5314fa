// ABOUTME: Tests for route matching and guarded navigation
// ABOUTME: Covers parameters, guard ordering, redirects, and loop detection

package router

import (
	"context"
	"errors"
	"testing"

	"github.com/flightdesk/flightdesk/internal/guard"
	"github.com/flightdesk/flightdesk/internal/session"
)

type countingValidator struct {
	valid bool
	calls int
}

func (v *countingValidator) ValidateSession(ctx context.Context) bool {
	v.calls++
	return v.valid
}

func testRouter(store *session.Store, validator guard.Validator) *Router {
	auth := guard.Authenticated(store, validator)
	return New(
		Route{Path: "/home", Title: "Home"},
		Route{Path: "/login", Title: "Sign in"},
		Route{Path: "/profile", Title: "Profile", Guards: []guard.Func{auth}},
		Route{Path: "/ticket/:ticketId", Title: "Ticket", Guards: []guard.Func{auth}},
		Route{Path: "/admin", Title: "Admin", Guards: []guard.Func{auth, guard.RequireRoles(store, session.RoleAdmin)}},
	)
}

func TestMatch(t *testing.T) {
	r := New(
		Route{Path: "/"},
		Route{Path: "/booking/:scheduleId"},
		Route{Path: "/admin/flights"},
	)

	tests := []struct {
		path   string
		want   string
		params map[string]string
		ok     bool
	}{
		{"/", "/", map[string]string{}, true},
		{"/booking/42", "/booking/:scheduleId", map[string]string{"scheduleId": "42"}, true},
		{"/booking/42/", "/booking/:scheduleId", map[string]string{"scheduleId": "42"}, true},
		{"/admin/flights", "/admin/flights", map[string]string{}, true},
		{"/booking", "", nil, false},
		{"/nope", "", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rt, params, ok := r.Match(tc.path)
			if ok != tc.ok {
				t.Fatalf("Match(%q) ok = %v, want %v", tc.path, ok, tc.ok)
			}
			if !ok {
				return
			}
			if rt.Path != tc.want {
				t.Errorf("matched %q, want %q", rt.Path, tc.want)
			}
			for k, v := range tc.params {
				if params[k] != v {
					t.Errorf("param %s = %q, want %q", k, params[k], v)
				}
			}
		})
	}
}

func TestNavigate_UnguardedRoute(t *testing.T) {
	r := testRouter(session.New(session.NewMemoryStorage()), &countingValidator{})

	loc, err := r.Navigate(context.Background(), "/home")
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if loc.Redirected || loc.Path != "/home" {
		t.Errorf("unexpected location %+v", loc)
	}
	if r.Location() != "/home" {
		t.Errorf("expected current location /home, got %q", r.Location())
	}
}

func TestNavigate_SignedOutRedirectsToLogin(t *testing.T) {
	validator := &countingValidator{valid: true}
	r := testRouter(session.New(session.NewMemoryStorage()), validator)

	loc, err := r.Navigate(context.Background(), "/profile")
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if !loc.Redirected {
		t.Error("expected redirect")
	}
	if loc.Path != "/login" {
		t.Errorf("expected /login, got %q", loc.Path)
	}
	if got := loc.Query.Get(guard.ReturnURLParam); got != "/profile" {
		t.Errorf("expected returnUrl=/profile, got %q", got)
	}
	if validator.calls != 0 {
		t.Errorf("expected no validation call, got %d", validator.calls)
	}
}

func TestNavigate_RoleDeniedGoesHome(t *testing.T) {
	store := session.New(session.NewMemoryStorage())
	store.Save(&session.Session{Username: "alice", Roles: []string{session.RoleUser}})
	r := testRouter(store, &countingValidator{valid: true})

	loc, err := r.Navigate(context.Background(), "/admin")
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if loc.Path != "/home" || !loc.Redirected {
		t.Errorf("expected redirect to /home, got %+v", loc)
	}
	if !store.IsAuthenticated() {
		t.Error("role denial must not sign the user out")
	}
}

func TestNavigate_GuardsRunInOrder(t *testing.T) {
	store := session.New(session.NewMemoryStorage())
	store.Save(&session.Session{Username: "root", Roles: []string{session.RoleAdmin}})
	validator := &countingValidator{valid: false}
	r := testRouter(store, validator)

	loc, err := r.Navigate(context.Background(), "/admin")
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	// The authentication guard fails first, so the role guard never sees the session
	if loc.Path != "/login" {
		t.Errorf("expected /login, got %q", loc.Path)
	}
	if validator.calls != 1 {
		t.Errorf("expected one validation call, got %d", validator.calls)
	}
}

func TestNavigate_Params(t *testing.T) {
	store := session.New(session.NewMemoryStorage())
	store.Save(&session.Session{Username: "alice"})
	r := testRouter(store, &countingValidator{valid: true})

	loc, err := r.Navigate(context.Background(), "/ticket/T-100")
	if err != nil {
		t.Fatalf("Navigate() error: %v", err)
	}
	if loc.Param("ticketId") != "T-100" {
		t.Errorf("expected ticketId T-100, got %q", loc.Param("ticketId"))
	}
}

func TestNavigate_NotFound(t *testing.T) {
	r := New(Route{Path: "/home"})

	_, err := r.Navigate(context.Background(), "/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNavigate_RedirectLoop(t *testing.T) {
	bounce := func(to string) guard.Func {
		return func(ctx context.Context, req guard.Request) guard.Decision {
			return guard.Denied(to, "bounce")
		}
	}
	r := New(
		Route{Path: "/a", Guards: []guard.Func{bounce("/b")}},
		Route{Path: "/b", Guards: []guard.Func{bounce("/a")}},
	)

	_, err := r.Navigate(context.Background(), "/a")
	if !errors.Is(err, ErrRedirectLoop) {
		t.Errorf("expected ErrRedirectLoop, got %v", err)
	}
}

func TestRedirectNotifiesListeners(t *testing.T) {
	r := New(Route{Path: "/login"})

	var seen []string
	r.OnChange(func(loc string) { seen = append(seen, loc) })
	r.Redirect("/login?returnUrl=/profile")

	if r.Location() != "/login?returnUrl=/profile" {
		t.Errorf("unexpected location %q", r.Location())
	}
	if len(seen) != 1 || seen[0] != "/login?returnUrl=/profile" {
		t.Errorf("unexpected notifications %v", seen)
	}
}

func TestRoutesTable(t *testing.T) {
	store := session.New(session.NewMemoryStorage())
	store.Save(&session.Session{Username: "alice", Roles: []string{session.RoleUser}})
	r := New(Routes(store, &countingValidator{valid: true})...)

	tests := []struct {
		target string
		want   string
	}{
		{"/", PathHome},
		{"/search", PathSearch},
		{"/bookings", PathBookings},
		{"/ticket/T-1", "/ticket/T-1"},
		{"/admin/flights", PathHome},
		{"/admin/schedules/new", PathHome},
	}

	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			loc, err := r.Navigate(context.Background(), tc.target)
			if err != nil {
				t.Fatalf("Navigate() error: %v", err)
			}
			if loc.Path != tc.want {
				t.Errorf("Navigate(%q) ended at %q, want %q", tc.target, loc.Path, tc.want)
			}
		})
	}
}
