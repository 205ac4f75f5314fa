// ABOUTME: Seat load bar with visual threshold zones
// ABOUTME: Shows how full a flight is in green, amber, and red regions

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LoadBarConfig holds configuration for the load bar
type LoadBarConfig struct {
	Width         int
	WarnThreshold float64 // Percent booked where the warning zone starts
	CritThreshold float64 // Percent booked where the critical zone starts
	OKColor       lipgloss.Color
	WarnColor     lipgloss.Color
	CritColor     lipgloss.Color
	EmptyColor    lipgloss.Color
}

// DefaultLoadBarConfig matches SeatsLevel: warning once 90% of seats are gone
func DefaultLoadBarConfig() LoadBarConfig {
	return LoadBarConfig{
		Width:         20,
		WarnThreshold: 75,
		CritThreshold: 90,
		OKColor:       BadgeOKBg,
		WarnColor:     BadgeWarnBg,
		CritColor:     BadgeCritBg,
		EmptyColor:    lipgloss.Color("#374151"),
	}
}

// LoadFactor returns the percentage of seats already booked
func LoadFactor(available, total int) float64 {
	if total <= 0 {
		return 0
	}
	booked := min(max(total-available, 0), total)
	return float64(booked) * 100 / float64(total)
}

// LoadBar renders how full a flight is. Positions past a threshold take the
// zone's color.
func LoadBar(percent float64, config LoadBarConfig) string {
	if config.Width <= 0 {
		config.Width = 20
	}
	percent = min(max(percent, 0), 100)

	filled := min(int(percent/100.0*float64(config.Width)), config.Width)
	warnPos := int(config.WarnThreshold / 100.0 * float64(config.Width))
	critPos := int(config.CritThreshold / 100.0 * float64(config.Width))

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < config.Width; i++ {
		char, color := "░", config.EmptyColor
		if i < filled {
			char = "█"
			switch {
			case i >= critPos:
				color = config.CritColor
			case i >= warnPos:
				color = config.WarnColor
			default:
				color = config.OKColor
			}
		}
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(char))
	}
	bar.WriteString("]")
	return bar.String()
}

// SeatsBar renders the load bar followed by the seats left
func SeatsBar(available, total, width int) string {
	config := DefaultLoadBarConfig()
	config.Width = width
	label := StatusText(fmt.Sprintf("%d of %d seats left", max(available, 0), total), SeatsLevel(available, total))
	return LoadBar(LoadFactor(available, total), config) + " " + label
}
