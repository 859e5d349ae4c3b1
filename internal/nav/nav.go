// Package nav is a screen stack addressed by screen name.
package nav

import (
	"sync"

	"github.com/five82/myway/internal/geo"
	"github.com/five82/myway/internal/marker"
)

// Screen names a route.
type Screen string

const (
	Map          Screen = "Home"
	NewLocation  Screen = "NewLocation"
	LocationList Screen = "LocationList"
)

// Title is the header text for the screen.
func (s Screen) Title() string {
	switch s {
	case Map:
		return "Home"
	case NewLocation:
		return "New location"
	case LocationList:
		return "All locations"
	default:
		return string(s)
	}
}

// Params are the optional typed parameters of a route. Location selects
// edit-mode on the form screen; MapRegion centres the map screen.
type Params struct {
	Location  *marker.Marker
	MapRegion *geo.Region
}

// Route is one entry of the stack.
type Route struct {
	Screen Screen
	Params Params
}

// Navigator moves between screens.
type Navigator interface {
	Navigate(screen Screen, params Params)
	Back()
}

var _ Navigator = (*Stack)(nil)

// Stack is a Navigator backed by a route stack. Navigating to a screen that
// is already on the stack pops back to it and replaces its params.
type Stack struct {
	mu      sync.Mutex
	routes  []Route
	version uint64
}

// NewStack returns a stack rooted at root.
func NewStack(root Screen) *Stack {
	return &Stack{routes: []Route{{Screen: root}}}
}

// Navigate pushes screen, or pops back to it when it is already present.
func (s *Stack) Navigate(screen Screen, params Params) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.routes) - 1; i >= 0; i-- {
		if s.routes[i].Screen == screen {
			s.routes = s.routes[:i+1]
			s.routes[i].Params = params
			s.version++
			return
		}
	}
	s.routes = append(s.routes, Route{Screen: screen, Params: params})
	s.version++
}

// Back pops the current screen. At the root it does nothing.
func (s *Stack) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.routes) <= 1 {
		return
	}
	s.routes = s.routes[:len(s.routes)-1]
	s.version++
}

// Current returns the top route.
func (s *Stack) Current() Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.routes) == 0 {
		return Route{}
	}
	return s.routes[len(s.routes)-1]
}

// Depth returns the number of routes on the stack.
func (s *Stack) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.routes)
}

// Version increases on every change; callers compare it to detect one.
func (s *Stack) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}
