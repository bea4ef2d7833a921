package state

import (
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/five82/datamate/internal/datamate"
	"github.com/five82/datamate/internal/query"
)

// Snapshot represents the latest cleansing board data available to the UI.
type Snapshot struct {
	Tasks               []datamate.CleansingTask
	Total               int
	Counts              map[string]int // tasks on the current page per upper-case status
	HasData             bool
	Loading             bool
	Paused              bool
	Interval            time.Duration
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Count returns the number of tasks with status, ignoring case.
func (s Snapshot) Count(status string) int {
	return s.Counts[strings.ToUpper(status)]
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot

	// Now defaults to time.Now.
	Now func() time.Time
}

// Update records a completed board fetch. When err is non-nil the previous
// data is kept but the error is recorded for visibility.
func (s *Store) Update(page *query.Page[datamate.CleansingTask], err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = s.now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	var tasks []datamate.CleansingTask
	total := 0
	if page != nil {
		tasks = page.Content
		total = max(page.TotalElements, 0)
	}
	s.snapshot.Tasks = cloneTasks(tasks)
	s.snapshot.Total = total
	s.snapshot.Counts = countStatuses(tasks)
	s.snapshot.HasData = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetActivity mirrors the poller's loading flag, enabled flag and interval.
func (s *Store) SetActivity(loading, enabled bool, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Loading = loading
	s.snapshot.Paused = !enabled
	s.snapshot.Interval = interval
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Tasks = cloneTasks(s.snapshot.Tasks)
	snap.Counts = maps.Clone(s.snapshot.Counts)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func countStatuses(tasks []datamate.CleansingTask) map[string]int {
	counts := make(map[string]int)
	for _, t := range tasks {
		counts[strings.ToUpper(strings.TrimSpace(t.Status))]++
	}
	return counts
}

func cloneTasks(items []datamate.CleansingTask) []datamate.CleansingTask {
	if len(items) == 0 {
		return nil
	}
	dup := make([]datamate.CleansingTask, len(items))
	for i, item := range items {
		item.Operators = append([]string(nil), item.Operators...)
		dup[i] = item
	}
	return dup
}
