package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/esolog/logpipeline/internal/index"
	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/query"
)

// browserModel is the Bubble Tea model backing `esoctl browse`: a fight
// list table on the left, a detail viewport (aggregates + series chart)
// on the right. Grounded on src/internal/replay/pager.go's
// viewport.Model-plus-WindowSizeMsg-resize shape, replacing its single
// scrolling pane with a two-pane list/detail layout since a fight
// browser needs to switch between many fights, not scroll one document.
type browserModel struct {
	ix *index.Index

	fights []logmodel.FightSummary
	table  table.Model

	detail   viewport.Model
	ready    bool
	selected string // fight id currently shown in the detail pane

	heals bool // toggles damage vs heal aggregates/series
	err   error
}

// NewBrowser builds a browser model listing every fight known to ix.
// When initialFightID is non-empty, the table cursor starts on that
// fight (spec §4.10's `esoctl browse <fightId>` form); an empty or
// unknown id leaves the cursor on the first row.
func NewBrowser(ix *index.Index, initialFightID string) *browserModel {
	columns := []table.Column{
		{Title: "Fight", Width: 28},
		{Title: "Zone", Width: 20},
		{Title: "Dur(s)", Width: 7},
	}

	var fights []logmodel.FightSummary
	for _, sess := range ix.Sessions() {
		fights = append(fights, ix.FightsForSession(sess.ID)...)
	}

	rows := make([]table.Row, 0, len(fights))
	for _, f := range fights {
		durSec := (f.EndRelMs - f.StartRelMs) / 1000
		rows = append(rows, table.Row{f.Title, f.ZoneName, strconv.FormatInt(durSec, 10)})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+1),
	)
	style := table.DefaultStyles()
	style.Header = style.Header.Bold(true).Foreground(lipgloss.Color("15"))
	style.Selected = style.Selected.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("62"))
	t.SetStyles(style)

	if initialFightID != "" {
		for row, f := range fights {
			if f.ID == initialFightID {
				t.SetCursor(row)
				break
			}
		}
	}

	return &browserModel{ix: ix, fights: fights, table: t}
}

func (m *browserModel) Init() tea.Cmd { return nil }

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		listWidth := msg.Width / 3
		detailWidth := msg.Width - listWidth - 3
		m.table.SetWidth(listWidth)
		if !m.ready {
			m.detail = viewport.New(detailWidth, msg.Height-2)
			m.ready = true
		} else {
			m.detail.Width = detailWidth
			m.detail.Height = msg.Height - 2
		}
		m.refreshDetail()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "h":
			m.heals = !m.heals
			m.selected = "" // force a re-render of the same fight in the new mode
			m.refreshDetail()
			return m, nil
		case "enter":
			m.refreshDetail()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.refreshDetail()

	var vpCmd tea.Cmd
	m.detail, vpCmd = m.detail.Update(msg)
	return m, tea.Batch(cmd, vpCmd)
}

func (m *browserModel) refreshDetail() {
	if !m.ready {
		return
	}
	row := m.table.Cursor()
	if row < 0 || row >= len(m.fights) {
		return
	}
	f := m.fights[row]
	if f.ID == m.selected {
		return
	}
	m.selected = f.ID

	detail, ok := m.ix.FightDetail(f.ID)
	if !ok {
		m.detail.SetContent(errorStyle.Render("fight detail unavailable"))
		return
	}
	series, _ := m.ix.Series(f.ID)

	filter := query.Filter{Heals: m.heals}
	rows := query.Aggregates(detail, filter)
	seriesRows := query.Series(detail, series, filter)

	content := FormatFightTitle(f) + "\n" + divider + "\n\n"
	content += FormatAggregateTable(rows, func(id int) string { return fmt.Sprintf("ability %d", id) })
	content += "\n" + divider + "\n\n"
	content += RenderSeriesChart(seriesRows)
	m.detail.SetContent(content)
}

func (m *browserModel) View() string {
	if !m.ready {
		return "\n  loading..."
	}
	mode := "damage"
	if m.heals {
		mode = "heals"
	}
	help := helpStyle.Render(fmt.Sprintf(" q: quit │ enter: select │ h: toggle damage/heals (%s) ", mode))
	left := m.table.View()
	right := m.detail.View()
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right)
	return body + "\n" + help
}

// Run launches the fight browser as a full-screen program, optionally
// starting on initialFightID.
func Run(ix *index.Index, initialFightID string) error {
	m := NewBrowser(ix, initialFightID)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
