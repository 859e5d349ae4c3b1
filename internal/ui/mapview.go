package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/myway/internal/geo"
	"github.com/five82/myway/internal/marker"
	"github.com/five82/myway/internal/nav"
)

const (
	glyphGraticule = '·'
	glyphYou       = '◎'
	glyphMarker    = '●'
	glyphSelected  = '◉'

	graticuleCols = 6
	graticuleRows = 3
)

// placement is a marker drawn on the map grid.
type placement struct {
	index    int
	col, row int
}

// placeMarkers projects markers onto a width x height grid of region. Markers
// with unparsable coordinates or outside the region are skipped.
func placeMarkers(region geo.Region, width, height int, markers []marker.Marker) []placement {
	grid := geo.NewGrid(region, width, height)
	out := make([]placement, 0, len(markers))
	for i, mk := range markers {
		coord, err := mk.Coordinate()
		if err != nil {
			continue
		}
		col, row, ok := grid.Cell(coord)
		if !ok {
			continue
		}
		out = append(out, placement{index: i, col: col, row: row})
	}
	return out
}

// handleMapKey processes keyboard input for the Home screen.
func (m Model) handleMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Markers)

	switch {
	case matches(msg, m.keys.Prev):
		if count > 0 {
			m.mapView.selected = (m.mapView.selected - 1 + count) % count
		}
	case matches(msg, m.keys.Next):
		if count > 0 {
			m.mapView.selected = (m.mapView.selected + 1) % count
		}
	case matches(msg, m.keys.Open):
		// Opening by id mirrors a tap on the pin.
		if mk, ok := m.selectedMarker(); ok {
			m.openMarker(mk.ID)
		}
	case matches(msg, m.keys.Center):
		if mk, ok := m.selectedMarker(); ok {
			if coord, err := mk.Coordinate(); err == nil {
				m.mapView.region = geo.RegionAround(coord, m.mapView.delta)
				m.mapView.hasRegion = true
			}
		}
	case matches(msg, m.keys.ZoomIn):
		m.zoom(zoomInFactor)
	case matches(msg, m.keys.ZoomOut):
		m.zoom(zoomOutFactor)
	case matches(msg, m.keys.List):
		m.flash = ""
		m.nav.Navigate(nav.LocationList, nav.Params{})
	case matches(msg, m.keys.Relocate):
		if m.locator != nil && !m.mapView.locating {
			m.mapView.locating = true
			m.mapView.hasRegion = false
			return m, locateCmd(m.ctx, m.locator)
		}
	}
	return m, nil
}

// openMarker opens the form in edit-mode for the marker with id.
func (m *Model) openMarker(id string) {
	if m.markers == nil {
		return
	}
	mk, ok := m.markers.Find(id)
	if !ok {
		return
	}
	m.flash = ""
	m.nav.Navigate(nav.NewLocation, nav.Params{Location: &mk})
}

func (m *Model) zoom(factor float64) {
	if m.mapView.hasRegion {
		m.mapView.region = m.mapView.region.Zoom(factor)
		m.mapView.delta = m.mapView.region.LatitudeDelta
	} else {
		span := geo.Region{LatitudeDelta: m.mapView.delta, LongitudeDelta: m.mapView.delta}
		m.mapView.delta = span.Zoom(factor).LatitudeDelta
	}
	m.savePrefs()
}

func (m Model) selectedMarker() (marker.Marker, bool) {
	markers := m.snapshot.Markers
	if len(markers) == 0 || m.mapView.selected < 0 || m.mapView.selected >= len(markers) {
		return marker.Marker{}, false
	}
	return markers[m.mapView.selected], true
}

// selectNearest selects the marker closest to c.
func (m *Model) selectNearest(c geo.Coordinate) {
	best, bestDist := -1, math.Inf(1)
	for i, mk := range m.snapshot.Markers {
		coord, err := mk.Coordinate()
		if err != nil {
			continue
		}
		d := math.Hypot(coord.Latitude-c.Latitude, coord.Longitude-c.Longitude)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		m.mapView.selected = best
	}
}

func (m Model) mapSize() (int, int) {
	return m.width, maxInt(m.height-chromeHeight-mapFooterHeight, 1)
}

// renderMap renders the Home screen.
func (m Model) renderMap() string {
	styles := m.theme.Styles()
	width, height := m.mapSize()

	if !m.mapView.hasRegion {
		msg := styles.MutedText.Render("Loading map...")
		if m.fix.ErrorMsg != "" {
			msg = styles.WarningText.Render(m.fix.ErrorMsg) + "\n" +
				styles.FaintText.Render("Press n to add a location or r to retry.")
		}
		return lipgloss.Place(m.width, height+mapFooterHeight, lipgloss.Center, lipgloss.Center, msg)
	}

	return m.renderGrid(width, height) + "\n" + m.renderMapFooter()
}

func (m Model) renderGrid(width, height int) string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Background)
	region := m.mapView.region

	cells := make([][]string, height)
	for row := range cells {
		cells[row] = make([]string, width)
		for col := range cells[row] {
			if row%graticuleRows == 0 && col%graticuleCols == 0 {
				cells[row][col] = bg.Cell(glyphGraticule, styles.Graticule)
			} else {
				cells[row][col] = bg.Space()
			}
		}
	}

	grid := geo.NewGrid(region, width, height)
	if m.fix.HasFix {
		if col, row, ok := grid.Cell(m.fix.Coordinate); ok {
			cells[row][col] = bg.Cell(glyphYou, styles.You)
		}
	}

	var selected *placement
	for _, p := range placeMarkers(region, width, height, m.snapshot.Markers) {
		if p.index == m.mapView.selected {
			sel := p
			selected = &sel
			continue
		}
		color := m.snapshot.Markers[p.index].MarkerColor
		cells[p.row][p.col] = bg.Cell(glyphMarker, styles.MarkerStyle(color))
	}
	if selected != nil {
		color := m.snapshot.Markers[selected.index].MarkerColor
		cells[selected.row][selected.col] = bg.Cell(glyphSelected, styles.MarkerStyle(color).Underline(true))
	}

	lines := make([]string, height)
	for row := range cells {
		lines[row] = strings.Join(cells[row], "")
	}
	return strings.Join(lines, "\n")
}

// renderMapFooter describes the selected marker.
func (m Model) renderMapFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	footer := styles.Footer.Width(m.width).MaxHeight(mapFooterHeight)

	mk, ok := m.selectedMarker()
	if !ok {
		return footer.Render(bg.Render("No locations yet. Press n to add one.", styles.MutedText))
	}

	parts := []string{
		bg.Render(string(glyphMarker), styles.MarkerStyle(mk.MarkerColor)) + bg.Space() +
			bg.Render(truncate(mk.Name, 40), styles.Text.Bold(true)),
		bg.Render(mk.Latitude+", "+mk.Longitude, styles.MutedText),
	}
	if mk.Country != "" || mk.Currency != "" {
		parts = append(parts, bg.Render(orDash(mk.Country)+" "+orDash(mk.Currency), styles.InfoText))
	}

	width, height := m.mapSize()
	visible := false
	for _, p := range placeMarkers(m.mapView.region, width, height, m.snapshot.Markers) {
		if p.index == m.mapView.selected {
			visible = true
			break
		}
	}
	if !visible {
		parts = append(parts, bg.Render("off map, press c to centre", styles.WarningText))
	}

	parts = append(parts, bg.Render(positionLabel(m.mapView.selected, len(m.snapshot.Markers)), styles.FaintText))
	return footer.Render(bg.Join(parts, "  "))
}

func positionLabel(index, count int) string {
	if count == 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d", index+1, count)
}
