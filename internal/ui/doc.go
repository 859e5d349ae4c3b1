// Package ui provides the Bubble Tea terminal interface for myway.
//
// # Screens
//
// The current screen is whatever route sits on top of the shared nav.Stack:
//
//   - Home (map): markers drawn in their own colors on a projected character
//     grid around the device position, a MapRegion parameter, or the last
//     saved marker
//   - New/Edit location: the form.Controller behind a set of text inputs
//   - All locations: one row per marker with edit and delete
//
// # Package Structure
//
//   - app.go: Model, Options, Update/View and screen syncing with the stack
//   - commands.go: messages and the commands that run store, lookup and
//     geolocation I/O off the UI goroutine
//   - mapview.go, list.go, formview.go: one file per screen
//   - header.go: status bar and per-screen command hints
//   - help.go, keys.go: help overlay built from the key map
//   - theme.go, style_helpers.go: palettes and background-safe rendering
//
// # Data Flow
//
// The model subscribes to state.Markers and re-reads its snapshot on every
// change notification, so mutations started from any screen show up on all
// of them. Form actions use the Prepare/Submit/Complete split of package
// form: validation and navigation happen in Update, the store call in a
// command.
//
// # Keyboard
//
// Press ? on the map or list for the full key reference. Inside the form
// every printable key goes to the focused input; ctrl chords drive actions.
package ui
