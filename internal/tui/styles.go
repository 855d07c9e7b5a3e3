// Package tui implements the interactive fight browser (SPEC_FULL.md
// §4.10's `esoctl browse <fightId>`): a fight list pane plus a
// per-second damage/heal chart for the selected fight.
//
// Grounded on the teacher's internal/replay rendering trio
// (replayer.go/styles.go/format.go, plus src/internal/replay/pager.go's
// viewport-based Bubble Tea model for the scrolling/search shell) —
// adapted from a flat session-event timeline to a two-pane fight
// browser, since a combat log has no analogue to a sub-agent/security
// event stream.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	damageBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	healBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	divider = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(strings.Repeat("━", 60))
)
