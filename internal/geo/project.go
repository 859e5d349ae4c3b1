package geo

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

var toWebMercator = wgs84.EPSG().Transform(4326, 3857)

// Project converts c to an EPSG:3857 point.
func Project(c Coordinate) (geom.Point, error) {
	x, y, _ := toWebMercator(c.Longitude, clampLatitude(c.Latitude), 0)
	pt, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: x, Y: y}, Type: geom.DimXY})
	if err != nil {
		return geom.Point{}, fmt.Errorf("project %s: %w", c, err)
	}
	return pt, nil
}

func projectXY(c Coordinate) (geom.XY, bool) {
	pt, err := Project(c)
	if err != nil {
		return geom.XY{}, false
	}
	return pt.XY()
}

// Grid maps coordinates inside a Region onto a Width x Height character grid.
// Row 0 is the northern edge.
type Grid struct {
	Width  int
	Height int

	bounds geom.Envelope
}

// NewGrid prepares a grid for region. Width and height must be positive for
// any coordinate to be placed.
func NewGrid(region Region, width, height int) Grid {
	g := Grid{Width: width, Height: height}
	sw, ne := region.Bounds()
	corners := make([]geom.XY, 0, 2)
	for _, c := range []Coordinate{sw, ne} {
		xy, ok := projectXY(c)
		if !ok {
			return g
		}
		corners = append(corners, xy)
	}
	// An invalid corner leaves the envelope empty, which places nothing.
	if env, err := geom.NewEnvelope(corners); err == nil {
		g.bounds = env
	}
	return g
}

// Bounds returns the projected extent of the grid.
func (g Grid) Bounds() geom.Envelope {
	return g.bounds
}

// Cell returns the grid position of c and whether it falls inside the grid.
func (g Grid) Cell(c Coordinate) (col, row int, ok bool) {
	if g.Width <= 0 || g.Height <= 0 || g.bounds.Width() <= 0 || g.bounds.Height() <= 0 {
		return 0, 0, false
	}
	xy, ok := projectXY(c)
	if !ok || !g.bounds.Contains(xy) {
		return 0, 0, false
	}
	lo, hi, _ := g.bounds.MinMaxXYs()
	fx := (xy.X - lo.X) / g.bounds.Width()
	fy := (hi.Y - xy.Y) / g.bounds.Height()
	col = int(math.Round(fx * float64(g.Width-1)))
	row = int(math.Round(fy * float64(g.Height-1)))
	return col, row, true
}
