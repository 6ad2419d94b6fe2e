package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/reorder"
	"github.com/five82/homedash/internal/state"
)

// Panel identifies a dashboard section.
type Panel int

const (
	PanelLinks Panel = iota
	PanelHosts
	PanelContainers
	PanelServices
	PanelTodos
	PanelWeather
)

var panelOrder = []Panel{PanelLinks, PanelHosts, PanelContainers, PanelServices, PanelTodos, PanelWeather}

func (p Panel) String() string {
	switch p {
	case PanelLinks:
		return "Links"
	case PanelHosts:
		return "Hosts"
	case PanelContainers:
		return "Containers"
	case PanelServices:
		return "Services"
	case PanelTodos:
		return "Todos"
	case PanelWeather:
		return "Weather"
	default:
		return "Unknown"
	}
}

// ParsePanel resolves a panel name case-insensitively.
func ParsePanel(name string) (Panel, bool) {
	for _, p := range panelOrder {
		if strings.EqualFold(strings.TrimSpace(name), p.String()) {
			return p, true
		}
	}
	return PanelLinks, false
}

// Options configures the UI.
type Options struct {
	Context  context.Context
	Store    *state.Store
	Actions  Actions
	PollTick time.Duration
	Panel    string // initially focused panel
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx      context.Context
	store    *state.Store
	actions  Actions
	pollTick time.Duration
	keys     keyMap

	// UI state
	theme    Theme
	focus    Panel
	width    int
	height   int
	ready    bool
	selected map[Panel]int
	showHelp bool

	// One-shot status line, cleared by the next key press.
	status    string
	statusErr bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Link reordering
	links *reorder.Coordinator[homeapi.Link]
	chips *chipLayout
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	focus, _ := ParsePanel(opts.Panel)
	chips := &chipLayout{}

	return Model{
		ctx:      ctx,
		store:    opts.Store,
		actions:  opts.Actions,
		pollTick: pollTick,
		keys:     DefaultKeyMap(),
		theme:    DefaultTheme(),
		focus:    focus,
		selected: make(map[Panel]int),
		links:    reorder.NewCoordinator[homeapi.Link](chips),
		chips:    chips,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
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

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.relayout()
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.pollTick)}
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else {
			m.setStatus(msg.label+": done", false)
		}
		return m, nil

	case orderResultMsg:
		if err := m.links.Resolved(msg.err); err != nil {
			m.setStatus(err.Error(), true)
		}
		m.relayout()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.lastUpdated = time.Now()
	if !snap.LinksStale {
		m.links.SetServerOrder(snap.Links)
	}
	for _, p := range panelOrder {
		m.clampSelection(p)
	}
	m.relayout()
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	m.status = ""
	m.statusErr = false

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		m.focus = m.cycleFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.ShiftTab):
		m.focus = m.cycleFocus(-1)
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.links.Cancel()
		m.relayout()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.actions != nil {
			m.actions.RefreshAll()
			m.setStatus("refreshing all hosts", false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Top):
		m.selected[m.focus] = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected[m.focus] = m.itemCount(m.focus) - 1
		m.clampSelection(m.focus)

	case key.Matches(msg, m.keys.Start):
		return m, m.containerAction(homeapi.ContainerStart)
	case key.Matches(msg, m.keys.Stop):
		return m, m.containerAction(homeapi.ContainerStop)
	case key.Matches(msg, m.keys.Restart):
		return m, m.containerAction(homeapi.ContainerRestart)
	case key.Matches(msg, m.keys.Pin):
		return m, m.togglePin()
	case key.Matches(msg, m.keys.Delete):
		return m, m.deleteSelected()
	}

	return m, nil
}

func (m Model) cycleFocus(step int) Panel {
	n := len(panelOrder)
	for i, p := range panelOrder {
		if p == m.focus {
			return panelOrder[((i+step)%n+n)%n]
		}
	}
	return PanelLinks
}

func (m *Model) moveSelection(step int) {
	m.selected[m.focus] += step
	m.clampSelection(m.focus)
}

func (m *Model) clampSelection(p Panel) {
	n := m.itemCount(p)
	switch {
	case n == 0 || m.selected[p] < 0:
		m.selected[p] = 0
	case m.selected[p] >= n:
		m.selected[p] = n - 1
	}
}

// itemCount returns the number of selectable rows of a panel.
func (m Model) itemCount(p Panel) int {
	switch p {
	case PanelLinks:
		return len(m.snapshot.Links)
	case PanelHosts:
		return len(m.snapshot.Hosts)
	case PanelContainers:
		return len(m.snapshot.Containers)
	case PanelServices:
		return len(m.snapshot.Services)
	case PanelTodos:
		return len(m.snapshot.Todos)
	case PanelWeather:
		return len(m.snapshot.Weather)
	default:
		return 0
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

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

// Run starts the Bubble Tea program and blocks until it exits or ctx ends.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
