// Package app is the composition root for the myway TUI.
//
// # Startup
//
//  1. Load ~/.config/myway/config.toml (defaults when missing) and apply flag overrides
//  2. Open the log file and the selected storage backend
//  3. Build the shared state.Markers and state.Location containers
//  4. Load the saved markers once, bounded by a short timeout
//  5. Start the Bubble Tea program on the Home screen and block until exit
//
// # Backends
//
// The local backend keeps every marker in one JSON slot of an on-disk SQLite
// database. The remote backend talks to a mywayd document server and also
// enables the country currency lookup in the location form.
//
//	┌──────────┐   Build   ┌──────────────┐
//	│  Run()   │ ────────► │ Deps         │
//	└────┬─────┘           │  Markers     │
//	     │                 │  Location    │
//	     │                 │  Locator     │
//	     ▼                 │  Nav         │
//	┌──────────┐           └──────────────┘
//	│  ui.Run  │ ◄─────────────── shared
//	└──────────┘
//
// Initial load failures do not stop startup. They are recorded on the markers
// snapshot and surface in the UI header.
package app
