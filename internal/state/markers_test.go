package state

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/myway/internal/marker"
	"github.com/five82/myway/internal/store"
)

// fakeAdapter records calls and can be told to fail.
type fakeAdapter struct {
	mu        sync.Mutex
	records   []marker.Marker
	nextID    int
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	calls     []string
}

func (f *fakeAdapter) List(context.Context) ([]marker.Marker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return marker.Clone(f.records), nil
}

func (f *fakeAdapter) Create(_ context.Context, fields marker.Fields) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create")
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := "id-" + string(rune('0'+f.nextID))
	f.records = append(f.records, fields.WithID(id))
	return id, nil
}

func (f *fakeAdapter) Update(_ context.Context, id string, fields marker.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update")
	return f.updateErr
}

func (f *fakeAdapter) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete")
	return f.deleteErr
}

func (f *fakeAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var (
	park  = marker.Marker{Name: "Park", Latitude: "-23.55", Longitude: "-46.63", MarkerColor: "#00FF00"}
	beach = marker.Marker{ID: "b", Name: "Beach", Latitude: "1", Longitude: "2", MarkerColor: "#00F"}
)

func newTestMarkers(a store.Adapter) (*Markers, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	return NewMarkers(a, logger, WithClock(clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))), &buf
}

func TestMarkers_LoadReplacesCollection(t *testing.T) {
	a := &fakeAdapter{records: []marker.Marker{beach}}
	m, _ := newTestMarkers(a)

	require.NoError(t, m.Load(context.Background()))
	snap := m.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, []marker.Marker{beach}, snap.Markers)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), snap.LastUpdated)
}

func TestMarkers_LoadFailureKeepsPrevious(t *testing.T) {
	a := &fakeAdapter{records: []marker.Marker{beach}}
	m, logs := newTestMarkers(a)
	require.NoError(t, m.Load(context.Background()))

	a.listErr = errors.New("offline")
	err := m.Load(context.Background())
	require.Error(t, err)

	snap := m.Snapshot()
	assert.Equal(t, []marker.Marker{beach}, snap.Markers)
	assert.ErrorContains(t, snap.LastError, "offline")
	assert.Equal(t, 1, snap.ConsecutiveFailures)
	assert.Contains(t, logs.String(), "load markers")
}

func TestMarkers_FirstLoadFailureLeavesEmpty(t *testing.T) {
	m, _ := newTestMarkers(&fakeAdapter{listErr: errors.New("offline")})
	require.Error(t, m.Load(context.Background()))
	snap := m.Snapshot()
	assert.Empty(t, snap.Markers)
	assert.False(t, snap.Loaded)
}

func TestMarkers_AddAppendsStoredMarker(t *testing.T) {
	a := &fakeAdapter{}
	m, _ := newTestMarkers(a)

	created, err := m.Add(context.Background(), park)
	require.NoError(t, err)
	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, park.Name, created.Name)

	snap := m.Snapshot()
	require.Len(t, snap.Markers, 1)
	assert.Equal(t, created, snap.Markers[0])

	found, ok := m.Find("id-1")
	assert.True(t, ok)
	assert.Equal(t, created, found)
}

func TestMarkers_AddFailureLeavesCollectionUnchanged(t *testing.T) {
	a := &fakeAdapter{records: []marker.Marker{beach}}
	m, logs := newTestMarkers(a)
	require.NoError(t, m.Load(context.Background()))

	a.createErr = errors.New("permission denied")
	_, err := m.Add(context.Background(), park)
	require.Error(t, err)

	assert.Equal(t, []marker.Marker{beach}, m.Snapshot().Markers)
	assert.Contains(t, logs.String(), "create marker")
	assert.Contains(t, logs.String(), "permission denied")
}

func TestMarkers_AddRejectsDraftWithID(t *testing.T) {
	a := &fakeAdapter{}
	m, _ := newTestMarkers(a)

	_, err := m.Add(context.Background(), beach)
	assert.ErrorIs(t, err, ErrDraftHasID)
	assert.Zero(t, a.callCount())
}

func TestMarkers_UpdateReplacesByID(t *testing.T) {
	a := &fakeAdapter{records: []marker.Marker{beach}}
	m, _ := newTestMarkers(a)
	require.NoError(t, m.Load(context.Background()))

	changed := beach
	changed.MarkerColor = "#FF0000"
	require.NoError(t, m.Update(context.Background(), changed))
	assert.Equal(t, []marker.Marker{changed}, m.Snapshot().Markers)
}

func TestMarkers_UpdateWithoutIDIsNoop(t *testing.T) {
	a := &fakeAdapter{}
	m, _ := newTestMarkers(a)

	require.NoError(t, m.Update(context.Background(), park))
	assert.Zero(t, a.callCount())
	assert.Empty(t, m.Snapshot().Markers)
}

func TestMarkers_UpdateFailureLeavesCollectionUnchanged(t *testing.T) {
	a := &fakeAdapter{records: []marker.Marker{beach}}
	m, _ := newTestMarkers(a)
	require.NoError(t, m.Load(context.Background()))

	a.updateErr = errors.New("boom")
	changed := beach
	changed.Name = "Other"
	require.Error(t, m.Update(context.Background(), changed))
	assert.Equal(t, []marker.Marker{beach}, m.Snapshot().Markers)
}

func TestMarkers_DeleteRemovesAndIsIdempotent(t *testing.T) {
	a := &fakeAdapter{records: []marker.Marker{beach}}
	m, _ := newTestMarkers(a)
	require.NoError(t, m.Load(context.Background()))

	require.NoError(t, m.Delete(context.Background(), beach.ID))
	assert.Empty(t, m.Snapshot().Markers)

	a.deleteErr = store.ErrNotFound
	require.NoError(t, m.Delete(context.Background(), beach.ID))
}

func TestMarkers_DeleteFailureLeavesCollectionUnchanged(t *testing.T) {
	a := &fakeAdapter{records: []marker.Marker{beach}}
	m, _ := newTestMarkers(a)
	require.NoError(t, m.Load(context.Background()))

	a.deleteErr = errors.New("boom")
	require.Error(t, m.Delete(context.Background(), beach.ID))
	assert.Equal(t, []marker.Marker{beach}, m.Snapshot().Markers)
}

func TestMarkers_SnapshotIsACopy(t *testing.T) {
	a := &fakeAdapter{records: []marker.Marker{beach}}
	m, _ := newTestMarkers(a)
	require.NoError(t, m.Load(context.Background()))

	snap := m.Snapshot()
	snap.Markers[0].Name = "mutated"
	assert.Equal(t, "Beach", m.Snapshot().Markers[0].Name)
}

func TestMarkers_SubscribeCoalescesAndUnsubscribes(t *testing.T) {
	m, _ := newTestMarkers(&fakeAdapter{})
	ch, cancel := m.Subscribe()

	_, err := m.Add(context.Background(), park)
	require.NoError(t, err)
	_, err = m.Add(context.Background(), park)
	require.NoError(t, err)

	select {
	case <-ch:
	default:
		t.Fatal("expected a change notification")
	}
	select {
	case <-ch:
		t.Fatal("notifications should coalesce")
	default:
	}

	cancel()
	cancel()
	_, err = m.Add(context.Background(), park)
	require.NoError(t, err)
	select {
	case <-ch:
		t.Fatal("unsubscribed channel received a notification")
	default:
	}
}

func TestMarkers_ConcurrentAddsAllVisible(t *testing.T) {
	m, _ := newTestMarkers(&fakeAdapter{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Add(context.Background(), park)
		}()
	}
	wg.Wait()
	assert.Len(t, m.Snapshot().Markers, 5)
}

func TestSnapshot_IsOffline(t *testing.T) {
	assert.False(t, Snapshot{ConsecutiveFailures: 1}.IsOffline())
	assert.True(t, Snapshot{ConsecutiveFailures: 2}.IsOffline())
}
