package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/myway/internal/form"
	"github.com/five82/myway/internal/nav"
)

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{
		bg.Render("myway", styles.Logo),
		bg.Render(m.screenTitle(), styles.Text.Bold(true)),
	}

	if m.backend != "" && !compact {
		parts = append(parts, bg.Render(m.backend, styles.FaintText))
	}

	count := "…"
	if m.snapshot.Loaded {
		count = fmt.Sprintf("%d", len(m.snapshot.Markers))
	}
	parts = append(parts,
		bg.Render("Locations:", styles.MutedText)+bg.Space()+bg.Render(count, styles.Text))

	parts = append(parts, m.renderLocationStatus(styles, bg))

	// Load failures stay quiet until they repeat.
	if m.snapshot.IsOffline() {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText.Bold(true)))
	}

	if m.flash != "" {
		style := styles.SuccessText
		if m.flashError {
			style = styles.DangerText
		}
		limit := 60
		if compact {
			limit = 30
		}
		parts = append(parts, bg.Render(truncate(m.flash, limit), style))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(bg.Join(parts, "  "))
}

func (m Model) screenTitle() string {
	if m.screen == nav.NewLocation && m.form.ctl != nil {
		return m.form.ctl.Title()
	}
	return m.screen.Title()
}

// renderLocationStatus shows the device fix, the locate error, or progress.
func (m Model) renderLocationStatus(styles Styles, bg BgStyle) string {
	switch {
	case m.fix.HasFix:
		return bg.Render("◎", styles.You) + bg.Space() + bg.Render(m.fix.Coordinate.String(), styles.InfoText)
	case m.fix.ErrorMsg != "":
		return bg.Render(m.fix.ErrorMsg, styles.WarningText)
	case m.locator != nil:
		return bg.Render("Locating…", styles.MutedText)
	default:
		return bg.Render("No location", styles.FaintText)
	}
}

// renderCommandBar renders the key hints for the current screen.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.screen {
	case nav.NewLocation:
		commands = []cmd{
			{"tab", "Next"},
			{"ctrl+s", "Save"},
		}
		if m.form.ctl != nil && m.form.ctl.LookupAvailable() {
			commands = append(commands, cmd{"ctrl+f", "Currency"})
		}
		if m.form.ctl != nil && m.form.ctl.Mode() == form.ModeEdit {
			commands = append(commands, cmd{"ctrl+d", "Delete"}, cmd{"ctrl+g", "Map"})
		}
		commands = append(commands, cmd{"esc", "Back"})
	case nav.LocationList:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Edit"},
			{"x", "Delete"},
			{"n", "New"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"←/→", "Select"},
			{"enter", "Edit"},
			{"n", "New"},
			{"l", "List"},
			{"+/-", "Zoom"},
			{"c", "Centre"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.screen != nav.NewLocation {
		segments = append(segments,
			bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
