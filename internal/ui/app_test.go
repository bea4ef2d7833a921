package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	"github.com/five82/datamate/internal/config"
	"github.com/five82/datamate/internal/datamate"
	"github.com/five82/datamate/internal/prefs"
	"github.com/five82/datamate/internal/query"
	"github.com/five82/datamate/internal/state"
)

type fakeLister struct {
	mu       sync.Mutex
	reqs     []query.Request
	datasets []datamate.Dataset
	total    int
	err      error
}

func (f *fakeLister) ListDatasets(_ context.Context, req query.Request) (query.Page[datamate.Dataset], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return query.Page[datamate.Dataset]{Content: f.datasets, TotalElements: f.total}, f.err
}

func (f *fakeLister) ListAnnotationTasks(context.Context, query.Request) (query.Page[datamate.AnnotationTask], error) {
	return query.Page[datamate.AnnotationTask]{}, nil
}

func (f *fakeLister) ListCleansingTasks(context.Context, query.Request) (query.Page[datamate.CleansingTask], error) {
	return query.Page[datamate.CleansingTask]{}, nil
}

func (f *fakeLister) ListOperators(context.Context, query.Request) (query.Page[datamate.Operator], error) {
	return query.Page[datamate.Operator]{}, nil
}

func (f *fakeLister) ListKnowledgeBases(context.Context, query.Request) (query.Page[datamate.KnowledgeBase], error) {
	return query.Page[datamate.KnowledgeBase]{}, nil
}

func (f *fakeLister) lastRequest() query.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

type fakeBoard struct {
	mu        sync.Mutex
	enabled   []bool
	intervals []time.Duration
	calls     int
}

func (b *fakeBoard) Refresh(context.Context) (query.Page[datamate.CleansingTask], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return query.Page[datamate.CleansingTask]{}, nil
}

func (b *fakeBoard) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = append(b.enabled, enabled)
}

func (b *fakeBoard) SetInterval(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.intervals = append(b.intervals, d)
}

func newTestModel(t *testing.T, lister *fakeLister, board BoardControl) Model {
	t.Helper()
	m := New(Options{
		Lister:    lister,
		Board:     board,
		Store:     &state.Store{},
		Config:    config.Config{PageSize: 10, Debounce: 500 * time.Millisecond},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Resource:  "datasets",
		Clock:     testclock.NewFakeClock(time.Now()),
	})
	t.Cleanup(m.stopSources)
	m.source()
	return step(t, m, tea.WindowSizeMsg{Width: 200, Height: 30})
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	switch keys {
	case " ":
		return step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	case "enter":
		return step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	case "tab":
		return step(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	return step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func datasets(n int) []datamate.Dataset {
	out := make([]datamate.Dataset, n)
	for i := range out {
		out[i] = datamate.Dataset{ID: string(rune('a' + i)), Name: "set", Status: "ACTIVE"}
	}
	return out
}

func TestModel_NextPageStopsOnLastPage(t *testing.T) {
	lister := &fakeLister{datasets: datasets(5), total: 15}
	m := newTestModel(t, lister, nil)
	src := m.source()

	_, err := src.FetchData(context.Background())
	require.NoError(t, err)

	m = press(t, m, "n")
	assert.Equal(t, 2, src.Params().Page)

	_, err = src.FetchData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, lister.lastRequest().Page, "display page 2 is request page 1")

	m = press(t, m, "n")
	assert.Equal(t, 2, src.Params().Page, "n on the last page does not advance")
	assert.Contains(t, m.View(), "page 2/2")

	m = press(t, m, "p")
	m = press(t, m, "p")
	assert.Equal(t, 1, src.Params().Page, "p on the first page stays put")
	assert.Contains(t, m.View(), "page 1/2")
}

func TestModel_PageSizeSteps(t *testing.T) {
	m := newTestModel(t, &fakeLister{}, nil)
	src := m.source()

	m = press(t, m, "n")
	m = press(t, m, "+")
	assert.Equal(t, query.Params{Page: 1, PageSize: 20}, src.Params())

	saved, err := prefs.Load(m.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, 20, saved.PageSize("datasets"))

	m = press(t, m, "-")
	m = press(t, m, "-")
	assert.Equal(t, 10, src.Params().PageSize, "smallest size is kept")
	_ = m
}

func TestModel_SavedPageSizeUsedOnOpen(t *testing.T) {
	m := New(Options{
		Lister:    &fakeLister{},
		Config:    config.Config{PageSize: 10},
		PageSizes: map[string]int{"annotation": 50},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Clock:     testclock.NewFakeClock(time.Now()),
	})
	t.Cleanup(m.stopSources)

	assert.Equal(t, 10, m.source().Params().PageSize)
	m = press(t, m, "tab")
	assert.Equal(t, 50, m.source().Params().PageSize)
}

func TestModel_ViewNeverOpensSources(t *testing.T) {
	lister := &fakeLister{}
	m := New(Options{
		Lister:    lister,
		Config:    config.Config{PageSize: 10},
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Clock:     testclock.NewFakeClock(time.Now()),
	})
	t.Cleanup(m.stopSources)
	m = step(t, m, tea.WindowSizeMsg{Width: 200, Height: 30})

	assert.Contains(t, m.View(), "Opening Datasets...")
	assert.Empty(t, m.sources)

	m.Init()
	assert.Len(t, m.sources, 1)
	assert.Contains(t, m.View(), "page 1/")
}

func TestModel_QueryErrorShowsInFooter(t *testing.T) {
	m := newTestModel(t, &fakeLister{}, nil)

	m = step(t, m, queryErrorMsg{resource: "datasets", err: errors.New("api /x returned status 502")})
	assert.Contains(t, m.View(), "datasets: api /x returned status 502")

	m = step(t, m, queryErrorMsg{resource: "datasets", err: context.Canceled})
	assert.NotContains(t, m.toast, "canceled")
}

func TestModel_FacetCycling(t *testing.T) {
	m := newTestModel(t, &fakeLister{}, nil)
	src := m.source()

	m = press(t, m, "n")
	m = press(t, m, "f")
	assert.Equal(t, map[string][]string{"status": {"ACTIVE"}}, src.Params().Filters)
	assert.Equal(t, 1, src.Params().Page)

	m = press(t, m, "F")
	m = press(t, m, "f")
	assert.Equal(t, []string{"IMAGE"}, src.Params().Filters["type"])
	assert.Contains(t, m.View(), "type: Image")

	m = press(t, m, "x")
	assert.Empty(t, src.Params().Filters)
}

func TestModel_LiveSearchUpdatesKeywords(t *testing.T) {
	lister := &fakeLister{}
	m := newTestModel(t, lister, nil)
	src := m.source()

	m = press(t, m, "/")
	require.True(t, m.searching)
	m = press(t, m, "c")
	m = press(t, m, "a")
	m = press(t, m, "t")
	assert.Equal(t, "cat", src.Params().Keywords)

	m = press(t, m, "enter")
	assert.False(t, m.searching)
	assert.Contains(t, m.View(), "search: cat")

	_, err := src.FetchData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"keywords": "cat", "page": 0, "size": 10}, lister.lastRequest().Fields())

	m = press(t, m, "/")
	m = press(t, m, "esc")
	assert.Equal(t, "", src.Params().Keywords)
}

func TestModel_PauseAndRefreshDriveBoard(t *testing.T) {
	board := &fakeBoard{}
	m := newTestModel(t, &fakeLister{}, board)

	m = press(t, m, " ")
	assert.True(t, m.snapshot.Paused)
	m = press(t, m, " ")
	assert.False(t, m.snapshot.Paused)
	assert.Equal(t, []bool{false, true}, board.enabled)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c != nil {
			c()
		}
	}
	assert.Equal(t, 1, board.calls)
}

func TestModel_IntervalKeyCyclesBoardInterval(t *testing.T) {
	board := &fakeBoard{}
	m := newTestModel(t, &fakeLister{}, board)

	store := &state.Store{}
	store.Update(&query.Page[datamate.CleansingTask]{}, nil)
	store.SetActivity(false, true, 5*time.Second)
	m = step(t, m, snapshotMsg(store.Snapshot()))
	assert.Contains(t, m.View(), "every 5s")

	m = press(t, m, "i")
	m = press(t, m, "i")
	m = press(t, m, "i")
	assert.Equal(t, []time.Duration{10 * time.Second, 30 * time.Second, 2 * time.Second}, board.intervals)
	assert.Contains(t, m.View(), "every 2s")
}

func TestModel_ThemeAndTabSavedToPrefs(t *testing.T) {
	m := newTestModel(t, &fakeLister{}, nil)
	start := m.theme.Name

	m = press(t, m, "T")
	assert.Equal(t, NextTheme(start), m.theme.Name)

	m = press(t, m, "tab")
	assert.Equal(t, "annotation", m.resource().Key)

	saved, err := prefs.Load(m.prefsPath)
	require.NoError(t, err)
	assert.Equal(t, prefs.Prefs{Theme: m.theme.Name, Resource: "annotation"}, saved)
}

func TestModel_HeaderShowsBoard(t *testing.T) {
	m := newTestModel(t, &fakeLister{}, nil)
	assert.Contains(t, m.View(), "Connecting...")

	store := &state.Store{}
	store.Update(&query.Page[datamate.CleansingTask]{
		Content: []datamate.CleansingTask{
			{ID: "1", Status: "RUNNING"},
			{ID: "2", Status: "FAILED"},
		},
		TotalElements: 2,
	}, nil)
	store.Update(nil, errors.New("dial tcp: connection refused"))
	store.Update(nil, errors.New("dial tcp: connection refused"))
	store.SetActivity(false, false, time.Second)

	m = step(t, m, snapshotMsg(store.Snapshot()))
	view := m.View()
	assert.Contains(t, view, "OFFLINE")
	assert.Contains(t, view, "PAUSED")
	assert.Contains(t, view, "Running: 1")
	assert.Contains(t, view, "Failed: 1")
}

func TestModel_HelpOverlay(t *testing.T) {
	m := newTestModel(t, &fakeLister{}, nil)
	m = press(t, m, "?")
	view := m.View()
	assert.Contains(t, view, "Keyboard Shortcuts")
	assert.Contains(t, view, "Next page")

	m = press(t, m, "n")
	assert.False(t, m.showHelp)
	assert.Equal(t, 1, m.source().Params().Page, "closing help swallows the key")
}

func TestClassifyConnectionError(t *testing.T) {
	cases := map[string]string{
		"dial tcp: connection refused": "OFFLINE",
		"lookup api: no such host":     "HOST NOT FOUND",
		"context deadline exceeded":    "TIMEOUT",
		"api /x returned status 500":   "HTTP ERROR",
		"something else":               "ERROR",
	}
	for in, want := range cases {
		if got := classifyConnectionError(errors.New(in)); got != want {
			t.Fatalf("classifyConnectionError(%q) = %q, want %q", in, got, want)
		}
	}
	if classifyConnectionError(nil) != "" {
		t.Fatalf("nil error should classify as empty")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  abcdef ", 4); got != "a..." {
		t.Fatalf("truncate = %q, want a...", got)
	}
	if got := truncate("abc", 2); got != "ab" {
		t.Fatalf("truncate = %q, want ab", got)
	}
	got := truncateMiddle("datasets/2025/street-scenes", 11)
	if len([]rune(got)) != 11 || !strings.HasPrefix(got, "datas") || !strings.HasSuffix(got, "cenes") {
		t.Fatalf("truncateMiddle = %q", got)
	}
}
