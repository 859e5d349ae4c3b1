// Package geo holds coordinates, map regions, the one-shot device location
// query and the projection used to draw markers on a character grid.
package geo

import "fmt"

// DefaultDelta is the latitude/longitude span shown around a focused point.
const DefaultDelta = 0.05

const (
	minDelta = 0.0005
	maxDelta = 120.0
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.5f, %.5f", c.Latitude, c.Longitude)
}

// Region is the visible map area: a centre plus the span in each direction.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

// RegionAround centres a square region of the given span on c. A
// non-positive delta uses DefaultDelta.
func RegionAround(c Coordinate, delta float64) Region {
	if delta <= 0 {
		delta = DefaultDelta
	}
	return Region{
		Latitude:       c.Latitude,
		Longitude:      c.Longitude,
		LatitudeDelta:  delta,
		LongitudeDelta: delta,
	}
}

// Center returns the region centre.
func (r Region) Center() Coordinate {
	return Coordinate{Latitude: r.Latitude, Longitude: r.Longitude}
}

// Zoom scales both spans by factor, clamped to a sane range. Factors below
// one zoom in.
func (r Region) Zoom(factor float64) Region {
	if factor <= 0 {
		return r
	}
	r.LatitudeDelta = clampDelta(r.LatitudeDelta * factor)
	r.LongitudeDelta = clampDelta(r.LongitudeDelta * factor)
	return r
}

// Bounds returns the south-west and north-east corners, with latitude clamped
// to the range Web Mercator can represent.
func (r Region) Bounds() (sw, ne Coordinate) {
	sw = Coordinate{
		Latitude:  clampLatitude(r.Latitude - r.LatitudeDelta/2),
		Longitude: r.Longitude - r.LongitudeDelta/2,
	}
	ne = Coordinate{
		Latitude:  clampLatitude(r.Latitude + r.LatitudeDelta/2),
		Longitude: r.Longitude + r.LongitudeDelta/2,
	}
	return sw, ne
}

func clampDelta(d float64) float64 {
	switch {
	case d < minDelta:
		return minDelta
	case d > maxDelta:
		return maxDelta
	default:
		return d
	}
}

func clampLatitude(lat float64) float64 {
	const limit = 85.05112878
	switch {
	case lat < -limit:
		return -limit
	case lat > limit:
		return limit
	default:
		return lat
	}
}
