// Package marker defines the bookmarked map location and the rules a marker
// must satisfy before it is persisted.
package marker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/myway/internal/geo"
)

// Marker is a named, colored map location. A Marker with an empty ID is a
// draft that has not been persisted yet.
type Marker struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	MarkerColor string `json:"markerColor"`
	Country     string `json:"country,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

// Fields is the user-editable payload of a marker, without identity.
type Fields struct {
	Name        string `json:"name"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
	MarkerColor string `json:"markerColor"`
	Country     string `json:"country,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

// IsDraft reports whether the marker has not been assigned an id yet.
func (m Marker) IsDraft() bool {
	return strings.TrimSpace(m.ID) == ""
}

// Fields strips the identity from m.
func (m Marker) Fields() Fields {
	return Fields{
		Name:        m.Name,
		Latitude:    m.Latitude,
		Longitude:   m.Longitude,
		MarkerColor: m.MarkerColor,
		Country:     m.Country,
		Currency:    m.Currency,
	}
}

// WithID builds a full record from f and an assigned id.
func (f Fields) WithID(id string) Marker {
	return Marker{
		ID:          id,
		Name:        f.Name,
		Latitude:    f.Latitude,
		Longitude:   f.Longitude,
		MarkerColor: f.MarkerColor,
		Country:     f.Country,
		Currency:    f.Currency,
	}
}

// Trimmed returns f with surrounding whitespace removed from every field.
func (f Fields) Trimmed() Fields {
	return Fields{
		Name:        strings.TrimSpace(f.Name),
		Latitude:    strings.TrimSpace(f.Latitude),
		Longitude:   strings.TrimSpace(f.Longitude),
		MarkerColor: strings.TrimSpace(f.MarkerColor),
		Country:     strings.TrimSpace(f.Country),
		Currency:    strings.TrimSpace(f.Currency),
	}
}

// Coordinate parses the textual latitude and longitude of m.
func (m Marker) Coordinate() (geo.Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(m.Latitude), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parse latitude %q: %w", m.Latitude, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(m.Longitude), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parse longitude %q: %w", m.Longitude, err)
	}
	return geo.Coordinate{Latitude: lat, Longitude: lon}, nil
}

// Clone returns a copy of markers that shares no backing array with the input.
func Clone(markers []Marker) []Marker {
	if len(markers) == 0 {
		return nil
	}
	dup := make([]Marker, len(markers))
	copy(dup, markers)
	return dup
}
