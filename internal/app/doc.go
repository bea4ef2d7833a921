// Package app wires configuration, logging, the API client, the cleansing
// board poller and the UI into the datamate console.
//
// # Startup
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()         ~/.config/datamate/config.toml
//	       ├─────> prefs.Load()          theme and last resource tab
//	       ├─────> logging.New()         JSON log under log_dir
//	       ├─────> datamate.NewClient()  HTTP client for the pipeline API
//	       ├─────> NewBoardPoller()      cleansing board into state.Store
//	       └─────> ui.Run()              blocks until quit or ctx done
//
// # Board Polling
//
// The board poller is a poll.Controller over the first page of cleansing
// tasks. It fetches once at start, then every poll_interval after the
// previous fetch completes, so a slow API never stacks requests. Every
// outcome lands in the store: successes replace the tasks, failures keep
// the last tasks and bump the failure count the header uses to show
// OFFLINE. The UI pauses, resumes and refreshes it through ui.BoardControl.
//
// # Errors
//
// Run fails fast on a broken config file, an unusable api_url, an unknown
// explicit resource or a log directory that cannot be created. Failures
// after startup are logged and surfaced in the UI; polling keeps going.
package app
