// ABOUTME: Home screen menu listing the routes available to the current user
// ABOUTME: Signed-out, signed-in, and admin users see different entries

package menu

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/session"
	"github.com/flightdesk/flightdesk/internal/tui/icons"
	"github.com/flightdesk/flightdesk/internal/tui/styles"
)

// SelectedMsg is sent when an entry is chosen
type SelectedMsg struct {
	Route string
}

// Item is one menu entry
type Item struct {
	Label string
	Route string
	Icon  icons.Icon
}

var (
	keyUp     = key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up"))
	keyDown   = key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down"))
	keySelect = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))
)

// Items returns the entries for the given session
func Items(s *session.Session) []Item {
	items := []Item{
		{Label: "Search flights", Route: router.PathSearch, Icon: icons.Search},
	}

	if s == nil {
		return append(items,
			Item{Label: "Sign in", Route: router.PathLogin, Icon: icons.SignIn},
			Item{Label: "Create account", Route: router.PathRegister, Icon: icons.User},
			Item{Label: "Forgot password", Route: router.PathForgotPassword, Icon: icons.Lock},
			Item{Label: "Reset password", Route: router.PathResetPassword, Icon: icons.Lock},
			Item{Label: "Service health", Route: router.PathHealth, Icon: icons.Info},
		)
	}

	items = append(items,
		Item{Label: "My bookings", Route: router.PathBookings, Icon: icons.Booking},
		Item{Label: "Profile", Route: router.PathProfile, Icon: icons.User},
		Item{Label: "Change password", Route: router.PathChangePassword, Icon: icons.Lock},
	)
	if s.IsAdmin() {
		items = append(items,
			Item{Label: "Manage flights", Route: router.PathAdminFlights, Icon: icons.Admin},
			Item{Label: "Create flight", Route: router.PathAdminNewFlight, Icon: icons.Plane},
			Item{Label: "Create schedule", Route: router.PathAdminSchedule, Icon: icons.Booking},
		)
	}
	return append(items,
		Item{Label: "Service health", Route: router.PathHealth, Icon: icons.Info},
		Item{Label: "Sign out", Route: router.PathLogout, Icon: icons.Quit},
	)
}

// Menu is the home screen selection list
type Menu struct {
	items  []Item
	cursor int
}

// New creates a menu for the given session
func New(s *session.Session) *Menu {
	return &Menu{items: Items(s)}
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.items) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keyUp):
		m.cursor = (m.cursor - 1 + len(m.items)) % len(m.items)
	case key.Matches(keyMsg, keyDown):
		m.cursor = (m.cursor + 1) % len(m.items)
	case key.Matches(keyMsg, keySelect):
		route := m.items[m.cursor].Route
		return m, func() tea.Msg { return SelectedMsg{Route: route} }
	}
	return m, nil
}

// Selected returns the highlighted entry
func (m *Menu) Selected() Item {
	return m.items[m.cursor]
}

// View implements tea.Model
func (m *Menu) View() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Plane.String() + " Where to?"))
	sb.WriteString("\n")

	labelStyle := lipgloss.NewStyle().Foreground(styles.Text)
	for i, item := range m.items {
		line := item.Icon.String() + "  " + item.Label
		if i == m.cursor {
			sb.WriteString(styles.KeyStyle.Render("> ") + styles.SelectedRow.Render(line))
		} else {
			sb.WriteString("  " + labelStyle.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
