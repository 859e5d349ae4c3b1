package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/myway/internal/form"
	"github.com/five82/myway/internal/geo"
	"github.com/five82/myway/internal/marker"
	"github.com/five82/myway/internal/nav"
	"github.com/five82/myway/internal/prefs"
	"github.com/five82/myway/internal/state"
)

// Options configures the UI.
type Options struct {
	Context        context.Context
	Logger         zerolog.Logger
	Markers        *state.Markers
	Location       *state.Location
	Locator        geo.Locator
	Lookup         form.CurrencyLookup
	Nav            *nav.Stack
	RequireCountry bool
	Backend        string
	ThemeName      string
	MapDelta       float64
	PrefsPath      string
}

// mapState is the view state of the Home screen.
type mapState struct {
	region    geo.Region
	hasRegion bool
	delta     float64
	selected  int
	centered  bool // centred on the last marker after the first load
	locating  bool
}

// formState holds the open form and its inputs.
type formState struct {
	ctl      *form.Controller
	param    *marker.Marker
	inputs   []textinput.Model
	fields   []form.Field
	focus    int
	busy     bool
	looking  bool
	message  string
	msgError bool
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx            context.Context
	logger         zerolog.Logger
	markers        *state.Markers
	location       *state.Location
	locator        geo.Locator
	lookup         form.CurrencyLookup
	nav            *nav.Stack
	requireCountry bool
	backend        string
	prefsPath      string

	// UI state
	theme      Theme
	keys       keyMap
	width      int
	height     int
	ready      bool
	showHelp   bool
	screen     nav.Screen
	navVersion uint64
	flash      string
	flashError bool

	// Data state
	snapshot state.Snapshot
	fix      state.LocationSnapshot
	changes  <-chan struct{}

	mapView  mapState
	listRow  int
	deleting bool
	form     formState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Nightfox"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	delta := opts.MapDelta
	if delta <= 0 {
		delta = geo.DefaultDelta
	}

	location := opts.Location
	if location == nil {
		location = &state.Location{}
	}
	stack := opts.Nav
	if stack == nil {
		stack = nav.NewStack(nav.Map)
	}

	m := Model{
		ctx:            ctx,
		logger:         opts.Logger.With().Str("component", "ui").Logger(),
		markers:        opts.Markers,
		location:       location,
		locator:        opts.Locator,
		lookup:         opts.Lookup,
		nav:            stack,
		requireCountry: opts.RequireCountry,
		backend:        opts.Backend,
		prefsPath:      prefsPath,
		theme:          GetTheme(themeName),
		keys:           defaultKeyMap(),
		mapView:        mapState{delta: delta},
	}
	if m.markers != nil {
		m.snapshot = m.markers.Snapshot()
		// The program lives as long as the markers; nothing to unsubscribe.
		m.changes, _ = m.markers.Subscribe()
	}
	m.syncScreen()
	m.centerOnLastMarker()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen}
	if m.changes != nil {
		cmds = append(cmds, waitForChangeCmd(m.ctx, m.changes))
	}
	if m.locator != nil {
		cmds = append(cmds, locateCmd(m.ctx, m.locator))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		model, cmd := m.handleKey(msg)
		next := model.(Model)
		next.syncScreen()
		return next, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeInputs()
		return m, nil

	case markersChangedMsg:
		m.refreshSnapshot()
		return m, waitForChangeCmd(m.ctx, m.changes)

	case locationMsg:
		m.applyLocation(msg)
		return m, nil

	case submitDoneMsg:
		m.handleSubmitDone(msg)
		m.syncScreen()
		return m, nil

	case lookupDoneMsg:
		m.handleLookupDone(msg)
		return m, nil

	case deleteDoneMsg:
		m.deleting = false
		if msg.err != nil {
			m.setFlash(form.UserMessage(msg.err), true)
		} else {
			m.setFlash(form.Submission{Action: form.ActionDelete}.SuccessMessage(), false)
		}
		return m, nil
	}

	if m.screen == nav.NewLocation {
		return m.updateFocusedInput(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// The form owns every printable key.
	if m.screen == nav.NewLocation {
		return m.handleFormKey(msg)
	}

	switch {
	case matches(msg, m.keys.Quit):
		return m, tea.Quit
	case matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil
	case matches(msg, m.keys.Back):
		m.flash = ""
		m.nav.Back()
		return m, nil
	case matches(msg, m.keys.New):
		m.flash = ""
		m.nav.Navigate(nav.NewLocation, nav.Params{})
		return m, nil
	}

	switch m.screen {
	case nav.LocationList:
		return m.handleListKey(msg)
	default:
		return m.handleMapKey(msg)
	}
}

// syncScreen follows the navigation stack after anything may have moved it.
func (m *Model) syncScreen() {
	version := m.nav.Version()
	if version == m.navVersion && m.screen != "" {
		return
	}
	m.navVersion = version
	route := m.nav.Current()
	m.screen = route.Screen

	switch route.Screen {
	case nav.Map:
		m.form = formState{}
		if region := route.Params.MapRegion; region != nil {
			m.mapView.region = *region
			m.mapView.hasRegion = true
			m.mapView.centered = true
			m.selectNearest(region.Center())
		}
	case nav.NewLocation:
		if m.form.ctl == nil || m.form.param != route.Params.Location {
			m.openForm(route.Params.Location)
		}
	case nav.LocationList:
		m.clampListRow()
	}
}

// refreshSnapshot copies the latest marker state into the model.
func (m *Model) refreshSnapshot() {
	if m.markers == nil {
		return
	}
	m.snapshot = m.markers.Snapshot()
	m.clampListRow()
	if m.mapView.selected >= len(m.snapshot.Markers) {
		m.mapView.selected = maxInt(len(m.snapshot.Markers)-1, 0)
	}
	m.centerOnLastMarker()
}

// centerOnLastMarker moves the map to the most recently added marker once,
// after the first successful load.
func (m *Model) centerOnLastMarker() {
	if m.mapView.centered || !m.snapshot.Loaded || len(m.snapshot.Markers) == 0 {
		return
	}
	last := len(m.snapshot.Markers) - 1
	coord, err := m.snapshot.Markers[last].Coordinate()
	if err != nil {
		return
	}
	m.mapView.region = geo.RegionAround(coord, m.mapView.delta)
	m.mapView.hasRegion = true
	m.mapView.centered = true
	m.mapView.selected = last
}

func (m *Model) applyLocation(msg locationMsg) {
	m.mapView.locating = false
	if msg.err != nil {
		m.location.Clear()
		m.location.SetError(locationErrorMessage(msg.err))
		m.logger.Warn().Err(msg.err).Msg("location fix")
	} else {
		m.location.Set(msg.coord)
		m.location.ClearError()
		if !m.mapView.hasRegion {
			m.mapView.region = geo.RegionAround(msg.coord, m.mapView.delta)
			m.mapView.hasRegion = true
		}
	}
	m.fix = m.location.Snapshot()
}

func (m *Model) setFlash(text string, isError bool) {
	m.flash = text
	m.flashError = isError
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{Theme: m.theme.Name, MapDelta: m.mapView.delta}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn().Err(err).Str("path", m.prefsPath).Msg("save prefs")
	}
}

// renderContent renders the main content area for the current screen.
func (m Model) renderContent() string {
	switch m.screen {
	case nav.LocationList:
		return m.renderList()
	case nav.NewLocation:
		return m.renderForm()
	default:
		return m.renderMap()
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}
