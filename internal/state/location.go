package state

import (
	"sync"

	"github.com/five82/myway/internal/geo"
)

// LocationSnapshot is a copy of the user location state.
type LocationSnapshot struct {
	Coordinate geo.Coordinate
	HasFix     bool
	ErrorMsg   string
}

// Location holds the latest device fix and an error message. The two are
// set independently. The zero value is ready to use.
type Location struct {
	mu   sync.RWMutex
	snap LocationSnapshot
}

// Set records a fix.
func (l *Location) Set(c geo.Coordinate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.Coordinate = c
	l.snap.HasFix = true
}

// Clear forgets the fix.
func (l *Location) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.Coordinate = geo.Coordinate{}
	l.snap.HasFix = false
}

// SetError records a message such as a permission denial.
func (l *Location) SetError(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.ErrorMsg = msg
}

// ClearError drops the message.
func (l *Location) ClearError() {
	l.SetError("")
}

// Snapshot returns the current state.
func (l *Location) Snapshot() LocationSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}
