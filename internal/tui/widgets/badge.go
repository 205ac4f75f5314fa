// ABOUTME: Status badge widgets for bookings, tickets, flights, and roles
// ABOUTME: Maps API status strings to colored inline badges and icons

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flightdesk/flightdesk/internal/session"
	"github.com/flightdesk/flightdesk/internal/tui/icons"
)

// StatusLevel represents the severity of a status
type StatusLevel int

const (
	StatusOK StatusLevel = iota
	StatusWarning
	StatusCritical
	StatusInfo
	StatusNeutral
)

// Badge colors
var (
	BadgeOKBg      = lipgloss.Color("#10B981")
	BadgeOKFg      = lipgloss.Color("#FFFFFF")
	BadgeWarnBg    = lipgloss.Color("#F59E0B")
	BadgeWarnFg    = lipgloss.Color("#000000")
	BadgeCritBg    = lipgloss.Color("#EF4444")
	BadgeCritFg    = lipgloss.Color("#FFFFFF")
	BadgeInfoBg    = lipgloss.Color("#3B82F6")
	BadgeInfoFg    = lipgloss.Color("#FFFFFF")
	BadgeNeutralBg = lipgloss.Color("#6B7280")
	BadgeNeutralFg = lipgloss.Color("#FFFFFF")
)

func colors(level StatusLevel) (bg, fg lipgloss.Color) {
	switch level {
	case StatusOK:
		return BadgeOKBg, BadgeOKFg
	case StatusWarning:
		return BadgeWarnBg, BadgeWarnFg
	case StatusCritical:
		return BadgeCritBg, BadgeCritFg
	case StatusInfo:
		return BadgeInfoBg, BadgeInfoFg
	default:
		return BadgeNeutralBg, BadgeNeutralFg
	}
}

// Badge renders a colored status badge
func Badge(text string, level StatusLevel) string {
	bg, fg := colors(level)
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(fg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// LevelForStatus classifies a booking, ticket, schedule, or health status
func LevelForStatus(status string) StatusLevel {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "CONFIRMED", "ACTIVE", "SCHEDULED", "BOOKED", "ISSUED", "UP":
		return StatusOK
	case "PENDING", "DELAYED", "WAITLISTED":
		return StatusWarning
	case "CANCELLED", "CANCELED", "FAILED", "DOWN", "OUT_OF_SERVICE":
		return StatusCritical
	case "COMPLETED", "DEPARTED":
		return StatusInfo
	default:
		return StatusNeutral
	}
}

// StatusBadge renders status with the color of its level
func StatusBadge(status string) string {
	if status == "" {
		return Badge("--", StatusNeutral)
	}
	return Badge(strings.ToUpper(status), LevelForStatus(status))
}

// SeatsLevel grades remaining availability: critical when sold out, warning
// at or below 10% of capacity
func SeatsLevel(available, total int) StatusLevel {
	if available <= 0 {
		return StatusCritical
	}
	if total > 0 && available*10 <= total {
		return StatusWarning
	}
	return StatusOK
}

// RoleBadge renders the highest role a session holds
func RoleBadge(s *session.Session) string {
	switch {
	case s == nil:
		return Badge("GUEST", StatusNeutral)
	case s.IsAdmin():
		return Badge("ADMIN", StatusWarning)
	default:
		return Badge("USER", StatusInfo)
	}
}

// StatusIcon returns the appropriate icon for a status level
func StatusIcon(level StatusLevel) string {
	bg, _ := colors(level)
	style := lipgloss.NewStyle().Foreground(bg)
	switch level {
	case StatusOK:
		return style.Render(icons.CheckOK.String())
	case StatusWarning:
		return style.Render(icons.Warning.String())
	case StatusCritical:
		return style.Render(icons.Critical.String())
	case StatusInfo:
		return style.Render(icons.Info.String())
	default:
		return style.Render("•")
	}
}

// StatusText returns styled status text with icon
func StatusText(text string, level StatusLevel) string {
	bg, _ := colors(level)
	return fmt.Sprintf("%s %s", StatusIcon(level), lipgloss.NewStyle().Foreground(bg).Render(text))
}
