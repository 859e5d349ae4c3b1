package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/five82/myway/internal/marker"
	"github.com/five82/myway/internal/store"
)

// ErrDraftHasID is returned by Add when the draft already carries an id.
var ErrDraftHasID = errors.New("draft marker already has an id")

// Snapshot is a copy of the marker collection as the screens see it.
type Snapshot struct {
	Markers             []marker.Marker
	Loaded              bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // store calls that failed in a row
}

// IsOffline reports whether the store has failed repeatedly.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Option configures Markers.
type Option func(*Markers)

// WithClock sets the clock used for LastUpdated.
func WithClock(c clockwork.Clock) Option {
	return func(m *Markers) {
		if c != nil {
			m.clock = c
		}
	}
}

// Markers is the in-memory authority for the marker collection. Every
// mutation goes to the store first and the cache is derived from the result.
type Markers struct {
	adapter store.Adapter
	logger  zerolog.Logger
	clock   clockwork.Clock

	writeMu sync.Mutex // held across store calls; orders mutations

	mu       sync.RWMutex
	snapshot Snapshot
	subs     map[int]chan struct{}
	nextSub  int
}

// NewMarkers builds a Markers backed by adapter.
func NewMarkers(adapter store.Adapter, logger zerolog.Logger, opts ...Option) *Markers {
	m := &Markers{
		adapter: adapter,
		logger:  logger.With().Str("component", "markers").Logger(),
		clock:   clockwork.NewRealClock(),
		subs:    make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the collection with the store's contents. On failure the
// previous collection is kept and the error recorded.
func (m *Markers) Load(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	list, err := m.adapter.List(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("load markers")
		m.fail(fmt.Errorf("load markers: %w", err))
		return err
	}
	m.commit(func(s *Snapshot) {
		s.Markers = marker.Clone(list)
		s.Loaded = true
	})
	m.logger.Debug().Int("count", len(list)).Msg("markers loaded")
	return nil
}

// Add creates draft in the store and appends the stored marker.
func (m *Markers) Add(ctx context.Context, draft marker.Marker) (marker.Marker, error) {
	if !draft.IsDraft() {
		return marker.Marker{}, ErrDraftHasID
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	fields := draft.Fields()
	id, err := m.adapter.Create(ctx, fields)
	if err != nil {
		m.logger.Error().Err(err).Str("name", fields.Name).Msg("create marker")
		m.fail(fmt.Errorf("create marker: %w", err))
		return marker.Marker{}, err
	}
	created := fields.WithID(id)
	m.commit(func(s *Snapshot) {
		s.Markers = append(s.Markers, created)
	})
	return created, nil
}

// Update replaces the stored record with updated. A marker without an id is
// ignored.
func (m *Markers) Update(ctx context.Context, updated marker.Marker) error {
	if updated.IsDraft() {
		return nil
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.adapter.Update(ctx, updated.ID, updated.Fields()); err != nil {
		m.logger.Error().Err(err).Str("id", updated.ID).Msg("update marker")
		m.fail(fmt.Errorf("update marker %s: %w", updated.ID, err))
		return err
	}
	m.commit(func(s *Snapshot) {
		for i := range s.Markers {
			if s.Markers[i].ID == updated.ID {
				s.Markers[i] = updated
			}
		}
	})
	return nil
}

// Delete removes the record with id. A record the store no longer has is
// treated as deleted.
func (m *Markers) Delete(ctx context.Context, id string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if err := m.adapter.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		m.logger.Error().Err(err).Str("id", id).Msg("delete marker")
		m.fail(fmt.Errorf("delete marker %s: %w", id, err))
		return err
	}
	m.commit(func(s *Snapshot) {
		kept := s.Markers[:0]
		for _, mk := range s.Markers {
			if mk.ID != id {
				kept = append(kept, mk)
			}
		}
		s.Markers = kept
	})
	return nil
}

// Snapshot returns a copy of the current collection.
func (m *Markers) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.Markers = marker.Clone(m.snapshot.Markers)
	if m.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", m.snapshot.LastError)
	}
	return snap
}

// Find returns the marker with id.
func (m *Markers) Find(id string) (marker.Marker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mk := range m.snapshot.Markers {
		if mk.ID == id {
			return mk, true
		}
	}
	return marker.Marker{}, false
}

// Subscribe returns a channel that receives a value after each change.
// Notifications coalesce: a slow reader sees at most one pending signal.
// Call the returned func to unsubscribe.
func (m *Markers) Subscribe() (<-chan struct{}, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan struct{}, 1)
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
		})
	}
}

func (m *Markers) commit(apply func(*Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Work on a private copy so earlier snapshots never alias the new slice.
	m.snapshot.Markers = marker.Clone(m.snapshot.Markers)
	apply(&m.snapshot)
	m.snapshot.LastError = nil
	m.snapshot.LastUpdated = m.clock.Now()
	m.snapshot.ConsecutiveFailures = 0
	m.notifyLocked()
}

func (m *Markers) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot.LastError = err
	m.snapshot.LastUpdated = m.clock.Now()
	m.snapshot.ConsecutiveFailures++
	m.notifyLocked()
}

func (m *Markers) notifyLocked() {
	for _, ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
