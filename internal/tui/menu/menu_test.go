// ABOUTME: Tests for the home screen menu
// ABOUTME: Validates entries per role and keyboard selection

package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/session"
)

func routes(items []Item) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it.Route] = true
	}
	return m
}

func TestItemsSignedOut(t *testing.T) {
	got := routes(Items(nil))

	if !got[router.PathLogin] || !got[router.PathRegister] || !got[router.PathSearch] {
		t.Errorf("expected sign-in, register and search entries, got %v", got)
	}
	if got[router.PathBookings] || got[router.PathLogout] {
		t.Error("signed-out menu must not offer protected entries")
	}
}

func TestItemsUserAndAdmin(t *testing.T) {
	user := routes(Items(&session.Session{Username: "alice", Roles: []string{session.RoleUser}}))
	if !user[router.PathBookings] || !user[router.PathLogout] {
		t.Errorf("expected bookings and sign-out for a user, got %v", user)
	}
	if user[router.PathAdminFlights] || user[router.PathLogin] {
		t.Error("user menu must not offer admin or sign-in entries")
	}

	admin := routes(Items(&session.Session{Username: "root", Roles: []string{session.RoleAdmin}}))
	if !admin[router.PathAdminFlights] || !admin[router.PathAdminSchedule] {
		t.Errorf("expected admin entries, got %v", admin)
	}
}

func TestMenuNavigation(t *testing.T) {
	m := New(nil)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if m.Selected().Route != router.PathLogin {
		t.Errorf("expected sign-in highlighted, got %s", m.Selected().Route)
	}

	// Wraps to the last entry
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.Selected().Route != router.PathHealth {
		t.Errorf("expected wrap to health, got %s", m.Selected().Route)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command on enter")
	}
	msg, ok := cmd().(SelectedMsg)
	if !ok || msg.Route != router.PathHealth {
		t.Errorf("unexpected message %#v", msg)
	}
}
