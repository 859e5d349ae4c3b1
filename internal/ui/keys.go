package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Back       key.Binding
	New        key.Binding

	// Map
	Prev     key.Binding
	Next     key.Binding
	Open     key.Binding
	Center   key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	List     key.Binding
	Relocate key.Binding

	// List
	Up     key.Binding
	Down   key.Binding
	Delete key.Binding

	// Form
	NextField  key.Binding
	PrevField  key.Binding
	Save       key.Binding
	Lookup     key.Binding
	FormDelete key.Binding
	ShowOnMap  key.Binding
	Cancel     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New location"),
		),

		// Map
		Prev: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "Previous marker"),
		),
		Next: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "Next marker"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Edit location"),
		),
		Center: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Centre on marker"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "Zoom out"),
		),
		List: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "All locations"),
		),
		Relocate: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Locate me"),
		),

		// List
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "Delete"),
		),

		// Form
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s", "enter"),
			key.WithHelp("ctrl+s", "Save"),
		),
		Lookup: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "Find currency"),
		),
		FormDelete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Delete"),
		),
		ShowOnMap: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "Show on map"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Open, k.Center, k.ZoomIn, k.ZoomOut, k.List, k.Relocate},
		{k.Up, k.Down, k.Open, k.Delete},
		{k.NextField, k.PrevField, k.Save, k.Lookup, k.FormDelete, k.ShowOnMap, k.Cancel},
		{k.New, k.Back, k.CycleTheme, k.Help, k.Quit},
	}
}

func matches(msg tea.KeyMsg, b key.Binding) bool {
	return key.Matches(msg, b)
}
