package ui

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"github.com/five82/datamate/internal/catalog"
	"github.com/five82/datamate/internal/config"
	"github.com/five82/datamate/internal/datamate"
	"github.com/five82/datamate/internal/prefs"
	"github.com/five82/datamate/internal/query"
	"github.com/five82/datamate/internal/state"
)

// pageSizeSteps are the sizes +/- step through.
var pageSizeSteps = []int{10, 20, 50, 100}

// boardIntervals are the board poll intervals i cycles through.
var boardIntervals = []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second, 30 * time.Second}

const toastTTL = 8 * time.Second

// BoardControl is the slice of the board poller the UI drives.
type BoardControl interface {
	Refresh(ctx context.Context) (query.Page[datamate.CleansingTask], error)
	SetEnabled(enabled bool)
	SetInterval(d time.Duration)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Lister    datamate.Lister
	Store     *state.Store
	Board     BoardControl
	Config    config.Config
	PollTick  time.Duration
	ThemeName string
	Resource  string
	PageSizes map[string]int
	PrefsPath string
	Logger    logr.Logger
	Clock     clock.Clock
}

// notifier forwards controller callbacks into the running program. Sends
// before a program is attached are dropped.
type notifier struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (n *notifier) attach(send func(tea.Msg)) {
	n.mu.Lock()
	n.send = send
	n.mu.Unlock()
}

func (n *notifier) Send(msg tea.Msg) {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	lister    datamate.Lister
	store     *state.Store
	board     BoardControl
	config    config.Config
	prefsPath string
	pollTick  time.Duration
	log       logr.Logger
	clock     clock.Clock
	notify    *notifier

	// Resources; sources are opened on first view and shared across copies
	// of the model.
	resources []catalog.Resource
	sources   map[string]catalog.Source
	pageSizes map[string]int
	active    int

	// UI state
	theme  Theme
	keys   keyMap
	help   help.Model
	width  int
	height int
	ready  bool

	// Data state
	snapshot    state.Snapshot
	selectedRow int
	facetIdx    int

	// Search input
	search    textinput.Model
	searching bool

	// Status line notification
	toast   string
	toastAt time.Time

	// Help overlay
	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	resources := catalog.All()
	active := 0
	for i, r := range resources {
		if r.Key == opts.Resource {
			active = i
		}
	}

	sizes := maps.Clone(opts.PageSizes)
	if sizes == nil {
		sizes = make(map[string]int)
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "keywords"
	search.CharLimit = 128

	return Model{
		ctx:       ctx,
		lister:    opts.Lister,
		store:     opts.Store,
		board:     opts.Board,
		config:    opts.Config,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		log:       logger,
		clock:     clk,
		notify:    &notifier{},
		resources: resources,
		sources:   make(map[string]catalog.Source, len(resources)),
		pageSizes: sizes,
		active:    active,
		theme:     GetTheme(opts.ThemeName),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		search:    search,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	m.source()
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
	}
	// Fetch snapshot immediately on start
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.search.Width = max(msg.Width/3, 10)
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case resultMsg:
		if msg.resource == m.resource().Key {
			m.clampSelection()
		}
		return m, nil

	case queryErrorMsg:
		if !errors.Is(msg.err, context.Canceled) {
			m.log.Error(msg.err, "query failed", "resource", msg.resource)
			m.setToast(msg.resource + ": " + msg.err.Error())
		}
		return m, nil

	case boardRefreshedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.setToast("refresh: " + msg.err.Error())
		}
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil
	}

	if m.searching {
		return m.updateSearch(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// Show help overlay if active
	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	src := m.source()
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.showHelp = true

	case key.Matches(msg, k.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()

	case key.Matches(msg, k.NextTab):
		m.switchTab(1)

	case key.Matches(msg, k.PrevTab):
		m.switchTab(-1)

	case key.Matches(msg, k.Refresh):
		return m, tea.Batch(m.refreshBoardCmd(), m.fetchCmd(src))

	case key.Matches(msg, k.TogglePause):
		if m.board != nil {
			paused := !m.snapshot.Paused
			m.board.SetEnabled(!paused)
			m.snapshot.Paused = paused
		}

	case key.Matches(msg, k.CycleInterval):
		if m.board != nil {
			next := nextInterval(m.snapshot.Interval)
			m.board.SetInterval(next)
			m.snapshot.Interval = next
		}

	case key.Matches(msg, k.Search):
		m.searching = true
		m.search.SetValue(src.Params().Keywords)
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, k.CycleValue):
		m.cycleFacetValue(src)

	case key.Matches(msg, k.CycleFacet):
		if n := len(src.Facets().Facets()); n > 0 {
			m.facetIdx = (m.facetIdx + 1) % n
		}

	case key.Matches(msg, k.ClearFilter):
		m.report(src.SetSearchParams(query.Patch{
			Keywords: new(string),
			Filters:  map[string][]string{},
		}))

	case key.Matches(msg, k.NextPage):
		pg := src.Pagination()
		if pg.HasNext() {
			src.OnPageChange(pg.Current+1, pg.PageSize)
			m.selectedRow = 0
		}

	case key.Matches(msg, k.PrevPage):
		pg := src.Pagination()
		if pg.Current > 1 {
			src.OnPageChange(pg.Current-1, pg.PageSize)
			m.selectedRow = 0
		}

	case key.Matches(msg, k.GrowPage):
		m.stepPageSize(src, 1)

	case key.Matches(msg, k.ShrinkPage):
		m.stepPageSize(src, -1)

	case key.Matches(msg, k.Up):
		if m.selectedRow > 0 {
			m.selectedRow--
		}

	case key.Matches(msg, k.Down):
		if m.selectedRow < len(src.Result().Rows)-1 {
			m.selectedRow++
		}

	case key.Matches(msg, k.Top):
		m.selectedRow = 0

	case key.Matches(msg, k.Bottom):
		m.selectedRow = max(len(src.Result().Rows)-1, 0)
	}

	return m, nil
}

// handleSearchKey routes keys to the search input. Every edit updates the
// keywords; the controller debounces the fetch.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.searching = false
		m.search.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.report(m.source().SetSearchParams(query.Keywords("")))
		return m, nil
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}
	return m.updateSearch(msg)
}

func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	src := m.source()
	if value := m.search.Value(); value != src.Params().Keywords {
		m.report(src.SetSearchParams(query.Keywords(value)))
		m.selectedRow = 0
	}
	return m, cmd
}

// cycleFacetValue advances the selected facet to its next value.
func (m *Model) cycleFacetValue(src catalog.Source) {
	facets := src.Facets().Facets()
	if len(facets) == 0 {
		return
	}
	facet := facets[m.facetIdx%len(facets)]
	current := query.AllValue
	if values := src.Params().Filters[facet.Key]; len(values) > 0 {
		current = values[0]
	}
	next := facet.Next(current)
	m.report(src.HandleFiltersChange(map[string][]string{facet.Key: {next}}))
	m.selectedRow = 0
}

func (m *Model) stepPageSize(src catalog.Source, dir int) {
	pg := src.Pagination()
	idx, found := slices.BinarySearch(pageSizeSteps, pg.PageSize)
	switch {
	case dir > 0 && found:
		idx++
	case dir < 0:
		idx--
	}
	if idx < 0 || idx >= len(pageSizeSteps) {
		return
	}
	src.OnPageChange(1, pageSizeSteps[idx])
	m.selectedRow = 0
	m.pageSizes[m.resource().Key] = pageSizeSteps[idx]
	m.savePrefs()
}

// nextInterval returns the first step above current, wrapping to the shortest.
func nextInterval(current time.Duration) time.Duration {
	for _, d := range boardIntervals {
		if d > current {
			return d
		}
	}
	return boardIntervals[0]
}

func (m *Model) switchTab(dir int) {
	n := len(m.resources)
	m.active = ((m.active+dir)%n + n) % n
	m.selectedRow = 0
	m.facetIdx = 0
	m.source()
	m.savePrefs()
}

func (m *Model) clampSelection() {
	rows := len(m.source().Result().Rows)
	if m.selectedRow >= rows {
		m.selectedRow = max(rows-1, 0)
	}
}

func (m *Model) report(err error) {
	if err != nil {
		m.setToast(err.Error())
	}
}

func (m *Model) setToast(text string) {
	m.toast = text
	m.toastAt = m.clock.Now()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	p := prefs.Prefs{
		Theme:     m.theme.Name,
		Resource:  m.resource().Key,
		PageSizes: maps.Clone(m.pageSizes),
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.log.Error(err, "save prefs failed", "path", m.prefsPath)
	}
}

func (m Model) resource() catalog.Resource {
	return m.resources[m.active]
}

// source returns the controller for the active tab, opening and starting it
// on first use.
func (m Model) source() catalog.Source {
	if src, ok := m.openedSource(); ok {
		return src
	}
	r := m.resource()
	name := r.Key
	notify := m.notify
	pageSize := m.config.PageSize
	if n := m.pageSizes[name]; n > 0 {
		pageSize = n
	}
	src := r.Open(m.lister, catalog.Settings{
		PageSize: pageSize,
		Debounce: m.config.Debounce,
		Clock:    m.clock,
		Logger:   m.log.WithValues("resource", name),
		OnResult: func(query.Result[catalog.Row]) { notify.Send(resultMsg{resource: name}) },
		OnError:  func(err error) { notify.Send(queryErrorMsg{resource: name, err: err}) },
	})
	if err := src.Start(m.ctx); err != nil {
		m.log.Error(err, "start query", "resource", name)
	}
	m.sources[name] = src
	return src
}

// openedSource returns the active tab's controller if it is already open.
// Rendering uses it so View never starts a fetch.
func (m Model) openedSource() (catalog.Source, bool) {
	src, ok := m.sources[m.resource().Key]
	return src, ok
}

// stopSources stops every opened controller.
func (m Model) stopSources() {
	for _, src := range m.sources {
		src.Stop()
	}
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Fetch latest snapshot
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	if m.toast != "" && m.clock.Since(m.toastAt) > toastTTL {
		m.toast = ""
	}

	// Schedule next tick
	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type resultMsg struct {
	resource string
}

type queryErrorMsg struct {
	resource string
	err      error
}

type boardRefreshedMsg struct {
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) refreshBoardCmd() tea.Cmd {
	if m.board == nil {
		return nil
	}
	board, ctx := m.board, m.ctx
	return func() tea.Msg {
		_, err := board.Refresh(ctx)
		return boardRefreshedMsg{err: err}
	}
}

// fetchCmd refetches the current page now. The result itself arrives through
// the controller's OnResult.
func (m Model) fetchCmd(src catalog.Source) tea.Cmd {
	resource, ctx := m.resource().Key, m.ctx
	return func() tea.Msg {
		if _, err := src.FetchData(ctx); err != nil && !errors.Is(err, query.ErrStopped) {
			return queryErrorMsg{resource: resource, err: err}
		}
		return nil
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	m.notify.attach(p.Send)
	defer m.stopSources()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
