package geo

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionAround_DefaultsDelta(t *testing.T) {
	r := RegionAround(Coordinate{Latitude: 1, Longitude: 2}, 0)
	assert.Equal(t, DefaultDelta, r.LatitudeDelta)
	assert.Equal(t, DefaultDelta, r.LongitudeDelta)
	assert.Equal(t, Coordinate{Latitude: 1, Longitude: 2}, r.Center())
}

func TestRegion_ZoomClamps(t *testing.T) {
	r := RegionAround(Coordinate{}, 0.001)
	assert.Equal(t, minDelta, r.Zoom(0.01).LatitudeDelta)
	assert.Equal(t, maxDelta, RegionAround(Coordinate{}, 100).Zoom(10).LongitudeDelta)
	assert.Equal(t, r, r.Zoom(0), "non-positive factor leaves region untouched")
}

func TestProject_Origin(t *testing.T) {
	origin, err := Project(Coordinate{})
	require.NoError(t, err)
	xy, ok := origin.XY()
	require.True(t, ok)
	assert.InDelta(t, 0, xy.X, 1e-6)
	assert.InDelta(t, 0, xy.Y, 1e-6)

	east, err := Project(Coordinate{Longitude: 180})
	require.NoError(t, err)
	xy, ok = east.XY()
	require.True(t, ok)
	assert.InDelta(t, 20037508.34, xy.X, 1)
}

func TestProject_RejectsNaN(t *testing.T) {
	_, err := Project(Coordinate{Latitude: math.NaN(), Longitude: 1})
	assert.Error(t, err)
}

func TestGrid_BoundsCoverRegion(t *testing.T) {
	region := RegionAround(Coordinate{Latitude: 48.85, Longitude: 2.35}, 0.2)
	g := NewGrid(region, 10, 10)

	bounds := g.Bounds()
	require.False(t, bounds.IsEmpty())
	centre, err := Project(region.Center())
	require.NoError(t, err)
	xy, _ := centre.XY()
	assert.True(t, bounds.Contains(xy))

	bad := NewGrid(Region{Latitude: math.NaN(), LatitudeDelta: 1, LongitudeDelta: 1}, 10, 10)
	assert.True(t, bad.Bounds().IsEmpty())
	_, _, ok := bad.Cell(Coordinate{})
	assert.False(t, ok, "a grid without bounds places nothing")
}

func TestGrid_PlacesCentreAndCorners(t *testing.T) {
	region := RegionAround(Coordinate{Latitude: -23.55, Longitude: -46.63}, 0.1)
	g := NewGrid(region, 21, 11)

	col, row, ok := g.Cell(region.Center())
	require.True(t, ok)
	assert.Equal(t, 10, col)
	assert.Equal(t, 5, row)

	sw, ne := region.Bounds()
	col, row, ok = g.Cell(sw)
	require.True(t, ok)
	assert.Equal(t, 0, col)
	assert.Equal(t, 10, row)

	col, row, ok = g.Cell(ne)
	require.True(t, ok)
	assert.Equal(t, 20, col)
	assert.Equal(t, 0, row)

	_, _, ok = g.Cell(Coordinate{Latitude: 10, Longitude: 10})
	assert.False(t, ok, "coordinate outside region")
}

func TestGrid_EmptyGrid(t *testing.T) {
	g := NewGrid(RegionAround(Coordinate{}, 1), 0, 0)
	_, _, ok := g.Cell(Coordinate{})
	assert.False(t, ok)
}

func TestStaticAndDeniedLocators(t *testing.T) {
	fix := Coordinate{Latitude: 1, Longitude: 2}
	got, err := StaticLocator{Fix: fix}.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fix, got)

	_, err = DeniedLocator{}.CurrentPosition(context.Background())
	assert.True(t, errors.Is(err, ErrPermissionDenied))
}

func TestIPLocator(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "latitude": -23.5, "longitude": -46.6})
		case "/fail":
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "reserved range"})
		default:
			http.Error(w, "nope", http.StatusBadGateway)
		}
	}))
	t.Cleanup(server.Close)

	got, err := NewIPLocator(server.URL + "/ok").CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Latitude: -23.5, Longitude: -46.6}, got)

	_, err = NewIPLocator(server.URL + "/fail").CurrentPosition(context.Background())
	assert.ErrorContains(t, err, "reserved range")

	_, err = NewIPLocator(server.URL + "/down").CurrentPosition(context.Background())
	assert.ErrorContains(t, err, "status 502")
}
