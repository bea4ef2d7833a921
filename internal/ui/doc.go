// Package ui provides the terminal console built on Bubble Tea.
//
// # Layout
//
//	┌──────────────────────────────────────────────────────────┐
//	│ datamate ● ON  Cleansing: 12  Running: 2 • Failed: 1 ... │ header (board)
//	│ [Datasets] Annotation  Cleansing  Operators  Knowledge   │ tabs
//	│ / to search   status: Active   type: all                 │ filters
//	│ ┌ Name ─────────── Type ── Status ── Files ── Size ────┐ │
//	│ │ street scenes    Image   Active    12       3.00 MiB │ │ table
//	│ └──────────────────────────────────────────────────────┘ │
//	│ page 1/3 · 24 items · 10 per page   / search • f filter  │ footer
//	└──────────────────────────────────────────────────────────┘
//
// # Data Flow
//
// Two sources feed the screen:
//
//   - The header reads the cleansing board from state.Store on every tick.
//     The board poller writes the store from its own goroutine.
//   - Each tab owns a query controller, opened on first view. Key presses
//     change its params, the controller debounces and fetches, and its
//     callbacks reach the model as messages through Program.Send. Failures
//     show up in the footer for a few seconds.
//
// Pagination is shown one-indexed; the controller converts to the API's
// zero-indexed pages when it builds the request.
//
// # Keys
//
// tab/shift+tab switch resources, / edits keywords live, f cycles the value
// of the underlined facet and F moves to the next facet, n/p page, +/- step
// the page size, r refreshes the board and the current page, space pauses
// board polling, T cycles the theme (saved to prefs), h or ? shows help and
// e or ctrl+c quits.
package ui
