// ABOUTME: Integration tests for the TUI app
// ABOUTME: Drives navigation, sign-in, and data loading against a test server

package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/guard"
	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/session"
	"github.com/flightdesk/flightdesk/internal/tui/forms"
	"github.com/flightdesk/flightdesk/internal/tui/recent"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// newTestApp wires an app to a test server the way the ui command does
func newTestApp(t *testing.T, handler http.HandlerFunc) (*App, *session.Store) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := session.New(session.NewMemoryStorage())
	r := router.New()
	c, err := client.New(server.URL, client.WithStore(store), client.WithNavigator(r))
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	for _, rt := range router.Routes(store, c) {
		r.Add(rt)
	}

	app := New(context.Background(), c, r)
	app.width = 100
	app.height = 30
	app.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return app, store
}

// visit navigates synchronously and returns the command the screen started
func visit(t *testing.T, app *App, target string) tea.Cmd {
	t.Helper()
	msg := app.navigate(target)()
	_, cmd := app.Update(msg)
	return cmd
}

func alice() *session.Session {
	return &session.Session{ID: 1, Username: "alice", Email: "alice@example.com", Roles: []string{session.RoleUser}, Token: "tok-alice", TokenType: "Bearer"}
}

func TestAppStartsHome(t *testing.T) {
	app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	visit(t, app, router.PathRoot)

	if app.screen != ScreenHome {
		t.Errorf("expected home screen, got %d", app.screen)
	}
	if app.location.Path != router.PathHome {
		t.Errorf("expected / to land on /home, got %s", app.location.Path)
	}
	if app.menu == nil {
		t.Error("expected menu to be initialized")
	}
}

func TestProtectedScreenRedirectsToLogin(t *testing.T) {
	app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("signed-out guard must not call the server, got %s", r.URL.Path)
	})

	visit(t, app, router.PathBookings)

	if app.screen != ScreenLogin {
		t.Fatalf("expected login screen, got %d", app.screen)
	}
	if got := app.location.Query.Get(guard.ReturnURLParam); got != router.PathBookings {
		t.Errorf("expected returnUrl=/bookings, got %q", got)
	}
	if app.form == nil {
		t.Error("expected sign-in form")
	}
	if !strings.Contains(app.notice, "sign in") {
		t.Errorf("expected sign-in notice, got %q", app.notice)
	}
}

func TestSignInReturnsToRequestedScreen(t *testing.T) {
	app, store := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1.0/auth/signin":
			writeJSON(w, http.StatusOK, client.JwtResponse{ID: 1, Username: "alice", Email: "alice@example.com", Roles: []string{session.RoleUser}, Token: "tok-alice", Type: "Bearer"})
		case "/api/v1.0/auth/validate":
			writeJSON(w, http.StatusOK, client.Ack{Message: "valid"})
		case "/api/v1.0/flight/booking/history":
			if r.Header.Get("Authorization") != "Bearer tok-alice" {
				t.Errorf("expected bearer on history call, got %q", r.Header.Get("Authorization"))
			}
			writeJSON(w, http.StatusOK, []client.Booking{{
				BookingID: "B-1", PNR: "PNR123", FlightNumber: "AI101", Status: "CONFIRMED", TotalFare: 4500,
				Tickets: []client.Ticket{{TicketID: "T-1"}},
			}})
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	})

	visit(t, app, router.PathBookings)
	app.credentials = forms.Credentials{Username: "alice", Password: "Secret123!"}

	_, cmd := app.Update(app.signIn()())
	if !store.IsAuthenticated() {
		t.Fatal("expected session after sign-in")
	}
	if cmd == nil {
		t.Fatal("expected navigation after sign-in")
	}

	_, load := app.Update(cmd())
	if app.screen != ScreenBookings {
		t.Fatalf("expected bookings screen, got %d", app.screen)
	}
	app.Update(load())

	if len(app.bookings) != 1 || app.bookings[0].PNR != "PNR123" {
		t.Errorf("unexpected bookings %+v", app.bookings)
	}
	if app.credentials.Password != "" {
		t.Error("expected password to be cleared after sign-in")
	}
	if !strings.Contains(app.View(), "PNR123") {
		t.Error("expected booking in view")
	}
}

func TestSignInFailureReopensForm(t *testing.T) {
	app, store := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, client.ErrorResponse{Message: "Bad credentials"})
	})

	visit(t, app, router.PathLogin)
	app.credentials = forms.Credentials{Username: "alice", Password: "wrong"}
	app.Update(app.signIn()())

	if store.IsAuthenticated() {
		t.Error("expected no session")
	}
	if app.screen != ScreenLogin || app.form == nil {
		t.Error("expected the sign-in form again")
	}
	if app.credentials.Username != "alice" || app.credentials.Password != "" {
		t.Errorf("expected username kept and password cleared, got %+v", app.credentials)
	}
	if !strings.Contains(client.Message(app.err), "Bad credentials") {
		t.Errorf("expected server message, got %v", app.err)
	}
}

func TestSessionEndMovesGuardedScreenToLogin(t *testing.T) {
	app, store := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1.0/auth/validate":
			writeJSON(w, http.StatusOK, client.Ack{Message: "valid"})
		case "/api/v1.0/flight/booking/history":
			writeJSON(w, http.StatusOK, []client.Booking{})
		}
	})
	store.Save(alice())

	load := visit(t, app, router.PathBookings)
	app.Update(load())
	if app.screen != ScreenBookings {
		t.Fatalf("expected bookings screen, got %d", app.screen)
	}

	// Another terminal signs out
	store.Clear()
	_, cmd := app.Update(sessionChangedMsg{session: nil})
	if cmd == nil {
		t.Fatal("expected re-navigation")
	}
	app.Update(cmd())

	if app.screen != ScreenLogin {
		t.Errorf("expected login screen, got %d", app.screen)
	}
	if got := app.location.Query.Get(guard.ReturnURLParam); got != router.PathBookings {
		t.Errorf("expected returnUrl=/bookings, got %q", got)
	}
}

func TestLocationChangeFollowsOutsideRedirects(t *testing.T) {
	app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {})
	visit(t, app, router.PathHome)

	_, cmd := app.Update(locationChangedMsg{location: "/login?returnUrl=/bookings"})
	if cmd == nil {
		t.Fatal("expected navigation to follow the redirect")
	}
	app.Update(cmd())
	if app.screen != ScreenLogin {
		t.Errorf("expected login screen, got %d", app.screen)
	}

	// Changes reported during our own navigation are ignored
	app.navigating = true
	if _, cmd := app.Update(locationChangedMsg{location: "/search"}); cmd != nil {
		t.Error("expected no navigation while one is in flight")
	}
}

func TestAdminScreenDeniedForUser(t *testing.T) {
	app, store := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1.0/auth/validate" {
			writeJSON(w, http.StatusOK, client.Ack{Message: "valid"})
			return
		}
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	store.Save(alice())

	visit(t, app, router.PathAdminFlights)

	if app.screen != ScreenHome {
		t.Errorf("expected home screen, got %d", app.screen)
	}
	if !strings.Contains(app.notice, "permission") {
		t.Errorf("expected permission notice, got %q", app.notice)
	}
	if !store.IsAuthenticated() {
		t.Error("role denial must keep the session")
	}
}

func TestTicketScheduleFailureDoesNotBlock(t *testing.T) {
	app, store := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1.0/auth/validate":
			writeJSON(w, http.StatusOK, client.Ack{Message: "valid"})
		case "/api/v1.0/flight/booking/ticket/T-1":
			writeJSON(w, http.StatusOK, client.Ticket{TicketID: "T-1", PNR: "PNR123", ScheduleID: "S-1", PassengerName: "Alice", SeatNumber: "12A", Status: "CONFIRMED"})
		case "/api/v1.0/flight/admin/internal/schedules/S-1":
			writeJSON(w, http.StatusInternalServerError, client.ErrorResponse{Message: "boom"})
		}
	})
	store.Save(alice())

	load := visit(t, app, "/ticket/T-1")
	app.Update(load())

	if app.err != nil {
		t.Errorf("expected no error, got %v", app.err)
	}
	if app.ticket == nil || app.ticket.PNR != "PNR123" {
		t.Fatalf("expected ticket, got %+v", app.ticket)
	}
	view := app.View()
	if !strings.Contains(view, "PNR123") || !strings.Contains(view, "Flight details unavailable") {
		t.Errorf("unexpected ticket view:\n%s", view)
	}
}

func TestSearchFromQuery(t *testing.T) {
	app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []client.FlightSchedule{
			{ScheduleID: "S-1", FlightNumber: "AI101", Airline: "AIR_INDIA", OriginAirport: "DEL", DestinationAirport: "BOM", Fare: 4500, AvailableSeats: 12},
		})
	})

	search := visit(t, app, "/search?from=DEL&to=BOM&date=2026-10-20")
	app.Update(search())

	if len(app.results) != 1 {
		t.Fatalf("expected one result, got %d", len(app.results))
	}

	// Enter books the highlighted flight
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected navigation to booking")
	}
	app.Update(cmd())
	if app.location.Path != router.PathLogin || app.location.Query.Get(guard.ReturnURLParam) != "/booking/S-1" {
		t.Errorf("expected sign-in before booking, got %s", app.location.String())
	}
}

func TestSearchRemembersRecent(t *testing.T) {
	app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []client.FlightSchedule{})
	})
	searches := recent.New(t.TempDir())
	app.recent = searches

	search := visit(t, app, "/search?from=GOI&to=BLR&date=2099-01-15")
	app.Update(search())

	last, ok := searches.Latest()
	if !ok || last.From != "GOI" || last.To != "BLR" || last.Date != "2099-01-15" {
		t.Fatalf("expected search remembered, got %+v", last)
	}

	// A fresh search form starts from the remembered search
	app.search = forms.Search{}
	visit(t, app, router.PathSearch)
	if app.search.From != "GOI" || app.search.To != "BLR" {
		t.Errorf("expected form prefilled from recent search, got %+v", app.search)
	}
}

func TestFrameAlignment(t *testing.T) {
	for _, targetWidth := range []int{80, 100, 120} {
		app, _ := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {})
		model, _ := app.Update(tea.WindowSizeMsg{Width: targetWidth, Height: 30})
		app = model.(*App)

		expected := max(targetWidth-1, 80)
		lines := strings.Split(app.View(), "\n")
		header, footer := lines[0], lines[len(lines)-1]

		if !strings.HasPrefix(header, "╭") {
			t.Fatalf("expected header first, got %q", header)
		}
		if w := lipgloss.Width(header); w != expected {
			t.Errorf("header width at %d: expected %d, got %d", targetWidth, expected, w)
		}
		if w := lipgloss.Width(footer); w != expected {
			t.Errorf("footer width at %d: expected %d, got %d", targetWidth, expected, w)
		}
	}
}

func TestFormatTimeSince(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{2 * time.Second, "just now"},
		{30 * time.Second, "30s ago"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
	}
	for _, tc := range tests {
		if got := formatTimeSince(tc.d); got != tc.want {
			t.Errorf("formatTimeSince(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
