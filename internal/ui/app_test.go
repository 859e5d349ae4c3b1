package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/myway/internal/country"
	"github.com/five82/myway/internal/form"
	"github.com/five82/myway/internal/geo"
	"github.com/five82/myway/internal/marker"
	"github.com/five82/myway/internal/nav"
	"github.com/five82/myway/internal/prefs"
	"github.com/five82/myway/internal/state"
)

type memAdapter struct {
	records   []marker.Marker
	nextID    int
	createErr error
}

func (a *memAdapter) List(context.Context) ([]marker.Marker, error) {
	return marker.Clone(a.records), nil
}

func (a *memAdapter) Create(_ context.Context, f marker.Fields) (string, error) {
	if a.createErr != nil {
		return "", a.createErr
	}
	a.nextID++
	id := "id-" + string(rune('0'+a.nextID))
	a.records = append(a.records, f.WithID(id))
	return id, nil
}

func (a *memAdapter) Update(_ context.Context, id string, f marker.Fields) error {
	for i := range a.records {
		if a.records[i].ID == id {
			a.records[i] = f.WithID(id)
		}
	}
	return nil
}

func (a *memAdapter) Delete(_ context.Context, id string) error {
	for i := range a.records {
		if a.records[i].ID == id {
			a.records = append(a.records[:i], a.records[i+1:]...)
			break
		}
	}
	return nil
}

type stubLookup struct {
	results []country.Result
	err     error
}

func (s stubLookup) Lookup(context.Context, string) ([]country.Result, error) {
	return s.results, s.err
}

type harness struct {
	t       *testing.T
	model   Model
	adapter *memAdapter
	markers *state.Markers
	stack   *nav.Stack
}

func newHarness(t *testing.T, records []marker.Marker, mutate func(*Options)) *harness {
	t.Helper()
	adapter := &memAdapter{records: records}
	markers := state.NewMarkers(adapter, zerolog.Nop())
	if err := markers.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	stack := nav.NewStack(nav.Map)
	opts := Options{
		Logger:    zerolog.Nop(),
		Markers:   markers,
		Nav:       stack,
		Locator:   geo.StaticLocator{Fix: geo.Coordinate{Latitude: -23.5505, Longitude: -46.6333}},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	if mutate != nil {
		mutate(&opts)
	}
	h := &harness{t: t, model: New(opts), adapter: adapter, markers: markers, stack: stack}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// send delivers msg and returns the command Update produced.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) key(k tea.KeyType) tea.Cmd {
	return h.send(tea.KeyMsg{Type: k})
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// run executes cmd synchronously and feeds its message back.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		h.t.Fatalf("expected a command")
	}
	h.send(cmd())
}

func (h *harness) sync() {
	h.send(markersChangedMsg{})
}

var office = marker.Marker{ID: "office", Name: "Office", Latitude: "-23.55", Longitude: "-46.63", MarkerColor: "#FF0000"}

func TestNew_CentresOnLastMarker(t *testing.T) {
	beach := marker.Marker{ID: "beach", Name: "Copacabana", Latitude: "-22.90", Longitude: "-43.17", MarkerColor: "#00F"}
	h := newHarness(t, []marker.Marker{office, beach}, nil)

	if h.model.screen != nav.Map {
		t.Fatalf("screen = %q, want %q", h.model.screen, nav.Map)
	}
	if !h.model.mapView.hasRegion {
		t.Fatalf("map should have a region after the first load")
	}
	if c := h.model.mapView.region.Center(); c.Latitude != -22.90 || c.Longitude != -43.17 {
		t.Fatalf("region centre = %v, want last marker", c)
	}
	if h.model.mapView.selected != 1 {
		t.Fatalf("selected = %d, want 1", h.model.mapView.selected)
	}
	view := h.model.View()
	if !strings.Contains(view, "Copacabana") || !strings.Contains(view, "2/2") {
		t.Fatalf("map footer does not describe the selected marker:\n%s", view)
	}
}

func TestLocationFix(t *testing.T) {
	h := newHarness(t, nil, nil)
	if h.model.mapView.hasRegion {
		t.Fatalf("empty map should wait for a fix")
	}

	h.run(locateCmd(context.Background(), h.model.locator))

	if !h.model.fix.HasFix {
		t.Fatalf("expected a location fix")
	}
	if c := h.model.mapView.region.Center(); c.Latitude != -23.5505 {
		t.Fatalf("region centre = %v, want the fix", c)
	}
}

func TestLocationDenied(t *testing.T) {
	h := newHarness(t, nil, func(o *Options) { o.Locator = geo.DeniedLocator{} })

	h.run(locateCmd(context.Background(), h.model.locator))

	if h.model.fix.HasFix {
		t.Fatalf("denied locator should not produce a fix")
	}
	if h.model.fix.ErrorMsg != "Location permission was denied." {
		t.Fatalf("ErrorMsg = %q", h.model.fix.ErrorMsg)
	}
	if view := h.model.View(); !strings.Contains(view, "Location permission was denied.") {
		t.Fatalf("view does not show the denial:\n%s", view)
	}
}

func TestCreateLocation(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.typeText("n")
	if h.model.screen != nav.NewLocation || h.model.form.ctl.Mode() != form.ModeCreate {
		t.Fatalf("expected create form, got screen %q", h.model.screen)
	}

	for i, value := range []string{"Park", "-23.58", "-46.65", "#00FF00"} {
		if i > 0 {
			h.key(tea.KeyTab)
		}
		h.typeText(value)
	}

	h.run(h.key(tea.KeyCtrlS))
	h.sync()

	if h.model.screen != nav.LocationList {
		t.Fatalf("screen = %q, want %q", h.model.screen, nav.LocationList)
	}
	if h.model.flash != "Location saved!" {
		t.Fatalf("flash = %q", h.model.flash)
	}
	if len(h.model.snapshot.Markers) != 1 || h.model.snapshot.Markers[0].Name != "Park" {
		t.Fatalf("markers = %#v", h.model.snapshot.Markers)
	}
	if got := h.model.form.ctl.Fields(); got != (marker.Fields{}) {
		t.Fatalf("form fields not cleared: %#v", got)
	}
}

func TestCreateLocation_ValidationKeepsForm(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.typeText("n")
	h.typeText("Park")
	if cmd := h.key(tea.KeyCtrlS); cmd != nil {
		t.Fatalf("invalid form should not start a store call")
	}

	if h.model.screen != nav.NewLocation {
		t.Fatalf("screen = %q, want form", h.model.screen)
	}
	if !h.model.form.msgError || h.model.form.message == "" {
		t.Fatalf("expected a validation message, got %q", h.model.form.message)
	}
	if h.model.form.inputs[0].Value() != "Park" {
		t.Fatalf("name input = %q, want Park", h.model.form.inputs[0].Value())
	}
}

func TestCreateLocation_StoreFailure(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.adapter.createErr = errors.New("disk full")

	h.typeText("n")
	for i, value := range []string{"Park", "-23.58", "-46.65", "#00FF00"} {
		if i > 0 {
			h.key(tea.KeyTab)
		}
		h.typeText(value)
	}
	h.run(h.key(tea.KeyCtrlS))

	if h.model.screen != nav.NewLocation {
		t.Fatalf("screen = %q, want form", h.model.screen)
	}
	if h.model.form.message != "Failed to save the location. Please try again." {
		t.Fatalf("message = %q", h.model.form.message)
	}
	if h.model.form.ctl.Fields().Name != "Park" {
		t.Fatalf("fields lost after failure: %#v", h.model.form.ctl.Fields())
	}
	if h.model.form.busy {
		t.Fatalf("form still busy after failure")
	}
}

func TestEditFromList(t *testing.T) {
	h := newHarness(t, []marker.Marker{office}, nil)

	h.typeText("l")
	if h.model.screen != nav.LocationList {
		t.Fatalf("screen = %q, want list", h.model.screen)
	}
	h.key(tea.KeyEnter)
	if h.model.screen != nav.NewLocation || h.model.form.ctl.Mode() != form.ModeEdit {
		t.Fatalf("expected edit form, got screen %q", h.model.screen)
	}
	if got := h.model.form.inputs[0].Value(); got != "Office" {
		t.Fatalf("name input = %q, want Office", got)
	}

	h.typeText(" HQ")
	h.run(h.key(tea.KeyCtrlS))

	if h.model.flash != "Location updated!" {
		t.Fatalf("flash = %q", h.model.flash)
	}
	got, ok := h.markers.Find("office")
	if !ok || got.Name != "Office HQ" {
		t.Fatalf("Find(office) = %#v, %v", got, ok)
	}
}

func TestEditForm_ShowOnMap(t *testing.T) {
	h := newHarness(t, []marker.Marker{office}, nil)

	h.typeText("l")
	h.key(tea.KeyEnter)
	h.key(tea.KeyCtrlG)

	if h.model.screen != nav.Map {
		t.Fatalf("screen = %q, want map", h.model.screen)
	}
	if h.stack.Depth() != 1 {
		t.Fatalf("stack depth = %d, want 1", h.stack.Depth())
	}
	region := h.model.mapView.region
	if region.Latitude != -23.55 || region.Longitude != -46.63 || region.LatitudeDelta != geo.DefaultDelta {
		t.Fatalf("region = %+v", region)
	}
}

func TestDeleteFromList(t *testing.T) {
	h := newHarness(t, []marker.Marker{office}, nil)

	h.typeText("l")
	h.run(h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}))
	h.sync()

	if h.model.flash != "Location removed!" {
		t.Fatalf("flash = %q", h.model.flash)
	}
	if len(h.model.snapshot.Markers) != 0 {
		t.Fatalf("markers = %#v, want none", h.model.snapshot.Markers)
	}
	if view := h.model.View(); !strings.Contains(view, "No saved locations") {
		t.Fatalf("list view should be empty:\n%s", view)
	}
}

func TestEscReturnsToPreviousScreen(t *testing.T) {
	h := newHarness(t, []marker.Marker{office}, nil)

	h.typeText("l")
	h.key(tea.KeyEnter)
	h.key(tea.KeyEsc)
	if h.model.screen != nav.LocationList {
		t.Fatalf("screen = %q, want list", h.model.screen)
	}
	h.key(tea.KeyEsc)
	if h.model.screen != nav.Map {
		t.Fatalf("screen = %q, want map", h.model.screen)
	}
	h.key(tea.KeyEsc)
	if h.model.screen != nav.Map {
		t.Fatalf("back at the root moved to %q", h.model.screen)
	}
}

func TestCurrencyLookup(t *testing.T) {
	h := newHarness(t, nil, func(o *Options) {
		o.RequireCountry = true
		o.Lookup = stubLookup{results: []country.Result{{Name: "Brazil", Currency: "BRL"}}}
	})

	h.typeText("n")
	if len(h.model.form.inputs) != 6 {
		t.Fatalf("form has %d inputs, want 6", len(h.model.form.inputs))
	}
	for i := 0; i < 4; i++ {
		h.key(tea.KeyTab)
	}
	h.typeText("Brazil")
	h.run(h.key(tea.KeyCtrlF))

	if got := h.model.form.ctl.Field(form.FieldCurrency); got != "BRL" {
		t.Fatalf("currency = %q, want BRL", got)
	}
	if got := h.model.form.inputs[5].Value(); got != "BRL" {
		t.Fatalf("currency input = %q, want BRL", got)
	}
}

func TestCurrencyLookup_FailureIsNotFatal(t *testing.T) {
	h := newHarness(t, nil, func(o *Options) {
		o.Lookup = stubLookup{err: errors.New("countries api returned status 502")}
	})

	h.typeText("n")
	for i := 0; i < 4; i++ {
		h.key(tea.KeyTab)
	}
	h.typeText("Brazil")
	h.run(h.key(tea.KeyCtrlF))

	if h.model.screen != nav.NewLocation {
		t.Fatalf("screen = %q, want form", h.model.screen)
	}
	if !h.model.form.msgError || h.model.form.looking {
		t.Fatalf("unexpected form state: message %q looking %v", h.model.form.message, h.model.form.looking)
	}
	if got := h.model.form.ctl.Field(form.FieldCurrency); got != "" {
		t.Fatalf("currency = %q, want unchanged", got)
	}
}

func TestCurrencyLookup_ResultAfterSaveIsDropped(t *testing.T) {
	h := newHarness(t, nil, func(o *Options) {
		o.Lookup = stubLookup{results: []country.Result{{Name: "Brazil", Currency: "BRL"}}}
	})

	h.typeText("n")
	for i, value := range []string{"Park", "-23.58", "-46.65", "#00FF00", "Brazil"} {
		if i > 0 {
			h.key(tea.KeyTab)
		}
		h.typeText(value)
	}
	pending := h.key(tea.KeyCtrlF)
	if pending == nil {
		t.Fatalf("expected a lookup command")
	}
	ctl := h.model.form.ctl

	h.run(h.key(tea.KeyCtrlS))
	if h.model.screen != nav.LocationList {
		t.Fatalf("screen = %q, want list after save", h.model.screen)
	}
	h.send(pending())

	if got := ctl.Field(form.FieldCurrency); got != "" {
		t.Fatalf("currency = %q, want the cleared form to stay empty", got)
	}
	if h.model.form.looking {
		t.Fatalf("lookup should no longer be pending")
	}
	if got := h.adapter.records[0].Currency; got != "" {
		t.Fatalf("saved currency = %q, want empty", got)
	}
}

func TestZoomPersistsPrefs(t *testing.T) {
	h := newHarness(t, []marker.Marker{office}, nil)

	h.typeText("+")
	if h.model.mapView.delta != geo.DefaultDelta*zoomInFactor {
		t.Fatalf("delta = %v, want %v", h.model.mapView.delta, geo.DefaultDelta*zoomInFactor)
	}

	saved, err := prefs.Load(h.model.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	if saved.MapDelta != h.model.mapView.delta {
		t.Fatalf("saved MapDelta = %v, want %v", saved.MapDelta, h.model.mapView.delta)
	}
}

func TestCycleThemePersistsPrefs(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.typeText("T")
	if h.model.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", h.model.theme.Name)
	}
	saved, err := prefs.Load(h.model.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	if saved.Theme != "Kanagawa" {
		t.Fatalf("saved theme = %q, want Kanagawa", saved.Theme)
	}
}

func TestHelpOverlay(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.typeText("?")
	if !h.model.showHelp {
		t.Fatalf("help should be visible")
	}
	if view := h.model.View(); !strings.Contains(view, "Keyboard Shortcuts") {
		t.Fatalf("help view missing title:\n%s", view)
	}
	h.typeText("x")
	if h.model.showHelp {
		t.Fatalf("any key should close help")
	}
}
