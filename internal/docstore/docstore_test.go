package docstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "docs.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func TestStore_CreateListInCreationOrder(t *testing.T) {
	s, clock := openTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, "locations", json.RawMessage(`{"name":"Park"}`))
	require.NoError(t, err)
	clock.Advance(time.Second)
	second, err := s.Create(ctx, "locations", json.RawMessage(`{"name":"Beach"}`))
	require.NoError(t, err)
	_, err = s.Create(ctx, "other", json.RawMessage(`{"name":"Elsewhere"}`))
	require.NoError(t, err)

	assert.Len(t, first.ID, 36)
	assert.NotEqual(t, first.ID, second.ID)

	docs, err := s.List(ctx, "locations")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, first.ID, docs[0].ID)
	assert.Equal(t, second.ID, docs[1].ID)
	assert.JSONEq(t, `{"name":"Beach"}`, string(docs[1].Fields))

	n, err := s.Count(ctx, "locations")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	s, clock := openTestStore(t)
	ctx := context.Background()

	doc, err := s.Create(ctx, "locations", json.RawMessage(`{"name":"Park"}`))
	require.NoError(t, err)

	clock.Advance(time.Minute)
	updated, err := s.Update(ctx, "locations", doc.ID, json.RawMessage(`{"name":"Central Park"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Central Park"}`, string(updated.Fields))

	_, err = s.Update(ctx, "other", doc.ID, json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "locations", doc.ID))
	assert.ErrorIs(t, s.Delete(ctx, "locations", doc.ID), ErrNotFound)
	_, err = s.Get(ctx, "locations", doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsNonObjectFields(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for _, raw := range []string{``, `[]`, `"x"`, `{"broken"`} {
		_, err := s.Create(ctx, "locations", json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrInvalidFields, "fields %q", raw)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "dsn", nil)
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestStore_Ping(t *testing.T) {
	s, _ := openTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
