// Package state provides thread-safe state for the cleansing task board.
//
// # Overview
//
// The board poller and the terminal UI run on different goroutines. The
// Store sits between them: the poller records each completed fetch and its
// activity flags, and the UI reads a Snapshot on every tick.
//
//	Producer (board poller):          Consumer (UI):
//	┌──────────────────────┐        ┌──────────────────┐
//	│ ListCleansingTasks() │        │                  │
//	│        ↓             │        │                  │
//	│ store.Update()       │───────→│ store.Snapshot() │
//	│ store.SetActivity()  │ (lock) │        ↓         │
//	│        ↓             │        │   render header  │
//	│ next poll armed      │        │                  │
//	└──────────────────────┘        └──────────────────┘
//
// # Update Semantics
//
//	// Success: replace the board
//	store.Update(&page, nil)
//	→ Tasks, Total, Counts replaced
//	→ LastError = nil, ConsecutiveFailures = 0
//
//	// Failure: keep the board, record the error
//	store.Update(nil, err)
//	→ Tasks, Total, Counts unchanged
//	→ LastError = err, ConsecutiveFailures++
//
// LastUpdated is set in both cases. IsOffline reports two or more failures
// in a row, which the header renders as an offline badge while the last
// good board stays visible.
//
// # Defensive Copying
//
// Snapshot copies the task slice, each task's operator list and the counts
// map, and wraps LastError in a fresh value, so the UI can never mutate
// what the poller stored.
//
// # Testing Considerations
//
// The zero Store is ready to use. Set Store.Now to pin LastUpdated.
package state
