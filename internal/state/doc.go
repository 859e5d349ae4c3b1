// Package state holds the application state shared by every screen.
//
// # Overview
//
// Two containers live here:
//
//   - Markers: the in-memory marker collection, backed by a store.Adapter
//   - Location: the latest device fix and an optional error message
//
// Screens never talk to the store directly. They call Markers, which talks
// to the store and then updates its cache from the result:
//
//	Screen                 Markers                     store.Adapter
//	┌──────────┐          ┌─────────────────┐         ┌─────────────┐
//	│ Add()    │─────────→│ writeMu.Lock()  │────────→│ Create()    │
//	│          │          │      ↓          │←────────│  id / err   │
//	│          │          │ commit or fail  │         └─────────────┘
//	│ Snapshot │←─────────│ notify subs     │
//	└──────────┘          └─────────────────┘
//
// # Mutation Semantics
//
// The store call happens first. The cache changes only after it succeeds:
//
//	Add(draft)    → Create(fields) → append {id, fields}
//	Update(m)     → Update(id, fields) → replace by id
//	Delete(id)    → Delete(id) → remove by id
//	Load()        → List() → replace collection
//
// On failure the collection is left untouched, the error is logged and
// recorded in Snapshot.LastError, and the error is returned to the caller.
// Update with an empty id does nothing. Delete treats store.ErrNotFound as
// success, so deleting twice is harmless.
//
// # Concurrency Model
//
// Mutations are serialized by a write mutex held across the store call, so
// the order of store calls is the order the cache is changed in. Snapshot
// and Find take only the read lock and never wait for network I/O.
//
// Subscribe hands out a buffered channel of size one; every change does a
// non-blocking send, so a screen that is slow to redraw sees one pending
// signal rather than a backlog.
//
// # Location
//
// Location has no validation and no persistence. The fix and the error are
// independent: a screen may show both a stale fix and a fresh error.
package state
