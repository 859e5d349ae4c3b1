// Package local implements store.Adapter on device-local storage: a single
// named slot holding the JSON-encoded array of all markers. Every mutation
// reads the whole array, changes it in memory and writes it back.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/five82/myway/internal/marker"
	"github.com/five82/myway/internal/store"
)

// DefaultSlot is the slot name the markers array is stored under.
const DefaultSlot = "locations"

// Slots is the key-value storage the adapter persists into.
type Slots interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

var _ store.Adapter = (*Adapter)(nil)

// Adapter stores markers as one JSON blob. Ids are assigned client-side from
// the clock in milliseconds.
type Adapter struct {
	slots Slots
	slot  string
	clock clockwork.Clock

	mu sync.Mutex // serializes read-modify-write cycles
}

// New builds an Adapter. An empty slot uses DefaultSlot; a nil clock uses
// the real clock.
func New(slots Slots, slot string, clock clockwork.Clock) *Adapter {
	if strings.TrimSpace(slot) == "" {
		slot = DefaultSlot
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Adapter{slots: slots, slot: slot, clock: clock}
}

// List returns the stored array. A slot that was never written is empty.
func (a *Adapter) List(ctx context.Context) ([]marker.Marker, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.read(ctx)
}

// Create appends fields under a fresh timestamp id.
func (a *Adapter) Create(ctx context.Context, fields marker.Fields) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	markers, err := a.read(ctx)
	if err != nil {
		return "", err
	}
	id := a.nextID(markers)
	markers = append(markers, fields.WithID(id))
	if err := a.write(ctx, markers); err != nil {
		return "", err
	}
	return id, nil
}

// Update replaces the record stored under id.
func (a *Adapter) Update(ctx context.Context, id string, fields marker.Fields) error {
	if strings.TrimSpace(id) == "" {
		return store.ErrInvalidID
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	markers, err := a.read(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(markers, id)
	if idx < 0 {
		return fmt.Errorf("update %s: %w", id, store.ErrNotFound)
	}
	markers[idx] = fields.WithID(id)
	return a.write(ctx, markers)
}

// Delete removes the record stored under id.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return store.ErrInvalidID
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	markers, err := a.read(ctx)
	if err != nil {
		return err
	}
	idx := indexOf(markers, id)
	if idx < 0 {
		return fmt.Errorf("delete %s: %w", id, store.ErrNotFound)
	}
	markers = append(markers[:idx], markers[idx+1:]...)
	return a.write(ctx, markers)
}

func (a *Adapter) read(ctx context.Context) ([]marker.Marker, error) {
	raw, ok, err := a.slots.Get(ctx, a.slot)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", a.slot, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var markers []marker.Marker
	if err := json.Unmarshal([]byte(raw), &markers); err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.slot, err)
	}
	return markers, nil
}

func (a *Adapter) write(ctx context.Context, markers []marker.Marker) error {
	if markers == nil {
		markers = []marker.Marker{}
	}
	data, err := json.Marshal(markers)
	if err != nil {
		return fmt.Errorf("encode %s: %w", a.slot, err)
	}
	if err := a.slots.Set(ctx, a.slot, string(data)); err != nil {
		return fmt.Errorf("write %s: %w", a.slot, err)
	}
	return nil
}

// nextID returns the current time in milliseconds, bumped past any id
// already in use.
func (a *Adapter) nextID(markers []marker.Marker) string {
	n := a.clock.Now().UnixMilli()
	for indexOf(markers, strconv.FormatInt(n, 10)) >= 0 {
		n++
	}
	return strconv.FormatInt(n, 10)
}

func indexOf(markers []marker.Marker, id string) int {
	for i, m := range markers {
		if m.ID == id {
			return i
		}
	}
	return -1
}
