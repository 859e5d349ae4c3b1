package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/myway/internal/nav"
)

// handleListKey processes keyboard input for the location list.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Markers)
	if count == 0 {
		return m, nil
	}

	switch {
	case matches(msg, m.keys.Down):
		if m.listRow < count-1 {
			m.listRow++
		}
	case matches(msg, m.keys.Up):
		if m.listRow > 0 {
			m.listRow--
		}
	case msg.String() == "g" || msg.String() == "home":
		m.listRow = 0
	case msg.String() == "G" || msg.String() == "end":
		m.listRow = count - 1
	case matches(msg, m.keys.Open):
		if id, ok := m.listSelection(); ok {
			m.openMarker(id)
		}
	case matches(msg, m.keys.Delete):
		id, ok := m.listSelection()
		if !ok || m.deleting || m.markers == nil {
			return m, nil
		}
		m.deleting = true
		m.flash = ""
		return m, deleteCmd(m.ctx, m.markers, id)
	}
	return m, nil
}

func (m *Model) clampListRow() {
	count := len(m.snapshot.Markers)
	switch {
	case count == 0:
		m.listRow = 0
	case m.listRow >= count:
		m.listRow = count - 1
	}
}

// renderList renders every saved location, one per row.
func (m Model) renderList() string {
	styles := m.theme.Styles()
	contentHeight := maxInt(m.height-chromeHeight, 1)
	markers := m.snapshot.Markers

	if len(markers) == 0 {
		msg := styles.MutedText.Render("No saved locations")
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, msg)
	}

	wide := m.width >= LayoutListDetailWidth
	nameWidth := maxInt(minInt(m.width/3, 40), 10)
	coordWidth := 26

	var b strings.Builder
	header := "  " + padRight("Name", nameWidth) + " " + padRight("Coordinates", coordWidth)
	if wide {
		header += " " + padRight("Country", 20) + " Currency"
	}
	b.WriteString(styles.FaintText.Render(header))
	b.WriteString("\n")

	// Keep the selected row inside the visible window.
	rows := maxInt(contentHeight-1, 1)
	start := 0
	if m.listRow >= rows {
		start = m.listRow - rows + 1
	}
	end := minInt(start+rows, len(markers))

	for i := start; i < end; i++ {
		mk := markers[i]
		swatch := styles.MarkerStyle(mk.MarkerColor).Render("■")
		line := padRight(truncate(mk.Name, nameWidth), nameWidth) + " " +
			padRight(truncate(mk.Latitude+", "+mk.Longitude, coordWidth), coordWidth)
		if wide {
			line += " " + padRight(truncate(orDash(mk.Country), 20), 20) + " " + orDash(mk.Currency)
		}

		if i == m.listRow {
			line = styles.Selected.Width(maxInt(m.width-2, 0)).Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(swatch + " " + line)
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// listSelection returns the id under the list cursor.
func (m Model) listSelection() (string, bool) {
	if m.screen != nav.LocationList || len(m.snapshot.Markers) == 0 {
		return "", false
	}
	return m.snapshot.Markers[m.listRow].ID, true
}
