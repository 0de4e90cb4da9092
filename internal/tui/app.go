package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Taishi66/kview/internal/catalog"
	"github.com/Taishi66/kview/internal/config"
	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/interaction"
	"github.com/Taishi66/kview/internal/logging"
	"github.com/Taishi66/kview/internal/registry"
	"github.com/Taishi66/kview/internal/watcher"
)

// ChangeDetector reports whether the kubeconfig changed since the last read.
// k8s.KubeconfigSource implements it.
type ChangeDetector interface {
	Changed() bool
}

// Options wires the host to the core.
type Options struct {
	Registry   *registry.Registry
	Kubeconfig ChangeDetector
	Config     *config.AppConfig
	Store      interaction.SelectionStore
	Catalog    catalog.Source
	Executor   executor.Executor
	Logger     logging.Logger
	// Window defaults to a random id.
	Window domain.WindowID
	// Fallback is selected when the store has no usable cluster.
	Fallback domain.ClusterID
}

// --- Messages ---

type registryMsg struct{ msg registry.Message }
type watcherMsg struct{ msg watcher.Message }
type updateMsg struct{ update interaction.Update }
type pollTickMsg struct{}
type reloadedMsg struct{ err error }

const eventBuffer = 64

// --- Model ---

type Model struct {
	window     domain.WindowID
	reg        *registry.Registry
	kubeconfig ChangeDetector
	cfg        *config.AppConfig
	log        logging.Logger

	state  *interaction.State
	nodes  *watcher.Watcher
	events chan tea.Msg

	search       textinput.Model
	cursor       int
	width        int
	height       int
	toast        toast
	disconnected bool
}

// NewModel builds the main window. Core notifications are forwarded to the
// bubbletea loop through an internal channel.
func NewModel(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := logging.OrNop(opts.Logger)
	exec := opts.Executor
	if exec == nil {
		exec = executor.NewGroup()
	}
	window := opts.Window
	if window == "" {
		window = domain.WindowID(uuid.NewString())
	}
	stateOpts := []interaction.Option{
		interaction.WithLogger(log),
		interaction.WithClusters(opts.Registry),
		interaction.WithFallbackCluster(opts.Fallback),
	}
	if opts.Store != nil {
		stateOpts = append(stateOpts, interaction.WithStore(opts.Store))
	}

	si := textinput.New()
	si.Placeholder = "search tabs..."
	si.CharLimit = 32
	si.Width = 22
	si.Prompt = "/"

	m := Model{
		window:     window,
		reg:        opts.Registry,
		kubeconfig: opts.Kubeconfig,
		cfg:        cfg,
		log:        log.With("window", window),
		state:      interaction.New(window, opts.Catalog, exec, stateOpts...),
		nodes:      watcher.New(window, opts.Registry, exec, watcher.WithLogger(log)),
		events:     make(chan tea.Msg, eventBuffer),
		search:     si,
	}

	m.state.AddUpdateListener(func(u interaction.Update) { m.post(updateMsg{u}) })
	m.nodes.AddCallbackListener(func(msg watcher.Message) { m.post(watcherMsg{msg}) })
	m.reg.AddCallbackListener(func(msg registry.Message) { m.post(registryMsg{msg}) })
	return m
}

// post forwards a core notification without blocking the core. When the
// buffer is full, state triggers are dropped since the model re-reads core
// state on every message. Failures carry their error and are handed to a
// goroutine instead.
func (m Model) post(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		if isFailure(msg) {
			go func() { m.events <- msg }()
			return
		}
		m.log.Debug("event buffer full, dropping", "msg", fmt.Sprintf("%T", msg))
	}
}

func isFailure(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case watcherMsg:
		return msg.msg.Kind == watcher.LoadFailed
	case registryMsg:
		return msg.msg.Kind == registry.ClientLoadFailed
	}
	return false
}

func (m Model) waitForEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		return <-ch
	}
}

func (m Model) pollTick() tea.Cmd {
	if m.kubeconfig == nil || m.cfg.KubeconfigPoll <= 0 {
		return nil
	}
	return tea.Tick(m.cfg.KubeconfigPoll, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

// Close stops the watcher and tears the window down.
func (m Model) Close() {
	m.nodes.Close()
	m.state.SetWindowClosed()
}

func (m Model) Init() tea.Cmd {
	m.syncWatch()
	return tea.Batch(m.waitForEvent(), m.pollTick())
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		model, cmd := m.handleKey(msg)
		model.syncSearchFocus()
		model.syncWatch()
		return model, cmd

	case updateMsg:
		m.syncSearchFocus()
		m.syncWatch()
		return m, m.waitForEvent()

	case watcherMsg:
		var cmd tea.Cmd
		switch msg.msg.Kind {
		case watcher.NodesLoaded:
			m.disconnected = false
			m.clampCursor()
		case watcher.NodesUpdated:
			m.clampCursor()
		case watcher.LoadFailed:
			cmd = m.handleError(msg.msg.Err)
		}
		return m, tea.Batch(cmd, m.waitForEvent())

	case registryMsg:
		var cmd tea.Cmd
		switch msg.msg.Kind {
		case registry.ClustersChanged:
			m.state.AsyncDo(nil)
		case registry.ClientLoadFailed:
			cmd = m.handleError(msg.msg.Err)
		}
		m.syncWatch()
		return m, tea.Batch(cmd, m.waitForEvent())

	case pollTickMsg:
		var reload tea.Cmd
		if m.kubeconfig.Changed() {
			reg := m.reg
			reload = func() tea.Msg {
				return reloadedMsg{err: reg.Reload(context.Background())}
			}
		}
		return m, tea.Batch(reload, m.pollTick())

	case reloadedMsg:
		if msg.err != nil {
			cmd := m.handleError(msg.err)
			return m, cmd
		}
		cmd := m.toast.show("kubeconfig reloaded", toastSuccess, false)
		return m, cmd

	case toastExpiredMsg:
		m.toast.expire(msg.seq)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	focus := m.state.CurrentFocusRegion()

	if focus.Kind == interaction.FocusSidebarSearch {
		switch {
		case msg.String() == "ctrl+c":
			return m, tea.Quit
		case key.Matches(msg, keys.Enter):
			_ = m.state.SelectFirstFilteredTab()
			_ = m.state.SetCurrentFocusRegion(interaction.Content())
			return m, nil
		case key.Matches(msg, keys.Tab), key.Matches(msg, keys.ShiftTab), key.Matches(msg, keys.Escape):
			ev, _ := keyEvent(msg)
			m.state.HandleKeyInput(ev)
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.state.TabGroupsFiltered(m.search.Value())
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Refresh):
		id, ok := m.state.SelectedCluster()
		if !ok {
			cmd := m.toast.show("no cluster selected", toastError, false)
			return m, cmd
		}
		m.nodes.RefreshNodes(id, nil)
		cmd := m.toast.show(fmt.Sprintf("refreshing %s", id), toastInfo, false)
		return m, cmd
	}

	if focus.Kind == interaction.FocusClusterSelection {
		switch {
		case key.Matches(msg, keys.Up):
			cmd := m.cycleCluster(-1)
			return m, cmd
		case key.Matches(msg, keys.Down):
			cmd := m.cycleCluster(1)
			return m, cmd
		}
	}

	if focus.Kind == interaction.FocusContent && m.state.SelectedTab() == catalog.TabNodes {
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case key.Matches(msg, keys.Down):
			if m.cursor < m.nodeCount()-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	if ev, ok := keyEvent(msg); ok {
		m.state.HandleKeyInput(ev)
	}
	return m, nil
}

func (m *Model) cycleCluster(delta int) tea.Cmd {
	clusters := m.reg.Clusters()
	if len(clusters) == 0 {
		return nil
	}
	current, _ := m.state.SelectedCluster()
	idx := -1
	for i, c := range clusters {
		if c.ID == current {
			idx = i
			break
		}
	}
	next := (idx + delta + len(clusters)) % len(clusters)
	if idx < 0 {
		next = 0
	}
	if err := m.state.SetSelectedCluster(clusters[next].ID); err != nil {
		return m.handleError(err)
	}
	return nil
}

// syncWatch points the watcher at the selected cluster. It only starts a
// session when the selection moved, so a failed session waits for refresh.
func (m Model) syncWatch() {
	id, ok := m.state.SelectedCluster()
	st := m.nodes.Status()
	if !ok {
		if st.State != watcher.Stopped && st.ClusterID != "" {
			m.nodes.StopWatcher()
		}
		return
	}
	if st.ClusterID == id && st.State != watcher.Stopped {
		return
	}
	m.log.Debug("watching cluster", "cluster", id)
	m.nodes.FetchNodes(id, nil)
}

func (m *Model) syncSearchFocus() {
	if m.state.CurrentFocusRegion().Kind == interaction.FocusSidebarSearch {
		m.search.Focus()
	} else {
		m.search.Blur()
	}
}

func (m *Model) clampCursor() {
	if n := m.nodeCount(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

func (m Model) nodeCount() int {
	id, ok := m.state.SelectedCluster()
	if !ok {
		return 0
	}
	return m.nodes.Nodes(id).Len()
}

// cause returns the innermost classified error in err's chain.
func cause(err error) *domain.APIError {
	var found *domain.APIError
	for err != nil {
		var apiErr *domain.APIError
		if !errors.As(err, &apiErr) {
			break
		}
		found = apiErr
		err = apiErr.Err
	}
	return found
}

func (m *Model) handleError(err error) tea.Cmd {
	if err == nil || domain.IsCancelled(err) {
		return nil
	}
	apiErr := cause(err)
	if apiErr == nil {
		return m.toast.show(err.Error(), toastError, false)
	}

	switch apiErr.Type {
	case domain.ErrTokenExpired:
		m.disconnected = true
		return m.toast.show(apiErr.Message, toastError, true)
	case domain.ErrUnreachable:
		m.disconnected = true
		return m.toast.show("Connection lost, showing cached nodes. Press 'r' to retry", toastError, true)
	case domain.ErrForbidden:
		return m.toast.show("Access denied: cannot list nodes on this cluster", toastError, false)
	case domain.ErrRateLimited:
		return m.toast.show("Too many requests, retry in a moment", toastError, false)
	default:
		return m.toast.show(apiErr.Message, toastError, false)
	}
}
