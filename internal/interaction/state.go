// Package interaction holds the per-window interactive state: tabs, tab
// group expansion, focus, keyboard routing and the selected cluster.
package interaction

import (
	"fmt"
	"maps"
	"sync"

	"github.com/Taishi66/kview/internal/catalog"
	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/listener"
	"github.com/Taishi66/kview/internal/logging"
)

// ClusterDirectory validates cluster selections and warms their clients.
// registry.Registry implements it.
type ClusterDirectory interface {
	HasCluster(id domain.ClusterID) bool
	Prefetch(id domain.ClusterID)
}

// SelectionStore persists the selected cluster per window.
// config.UserConfigStore implements it.
type SelectionStore interface {
	SelectedCluster(window domain.WindowID) (domain.ClusterID, bool)
	SetSelectedCluster(window domain.WindowID, id domain.ClusterID) error
	ClearWindow(window domain.WindowID) error
}

// State is the main view model of one window.
type State struct {
	window   domain.WindowID
	exec     executor.Executor
	log      logging.Logger
	clusters ClusterDirectory
	store    SelectionStore
	fallback domain.ClusterID
	groups   []catalog.TabGroup
	tabs     []catalog.Tab
	tabsByID map[catalog.TabID]catalog.Tab
	updates  *listener.Dispatcher[Update]

	mu              sync.Mutex
	expansions      map[catalog.GroupID]bool
	selectedTab     catalog.TabID
	focus           FocusRegion
	search          string
	selectedCluster domain.ClusterID
	closed          bool
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *State) { s.log = logging.OrNop(l) }
}

// WithClusters validates cluster selections against dir.
func WithClusters(dir ClusterDirectory) Option {
	return func(s *State) { s.clusters = dir }
}

// WithStore restores and persists the selected cluster through store.
func WithStore(store SelectionStore) Option {
	return func(s *State) { s.store = store }
}

// WithFallbackCluster selects id when the store has nothing usable,
// typically the kubeconfig current context.
func WithFallbackCluster(id domain.ClusterID) Option {
	return func(s *State) { s.fallback = id }
}

// New builds the state for window from the catalog in source. All groups
// start expanded, the Cluster tab is selected and Content has focus.
func New(window domain.WindowID, source catalog.Source, exec executor.Executor, opts ...Option) *State {
	if source == nil {
		source = catalog.Default()
	}
	s := &State{
		window: window,
		exec:   exec,
		log:    logging.Nop(),
		focus:  Content(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("window", window)
	s.updates = listener.New[Update](exec, s.log)

	s.groups = catalog.Clone(source.TabGroups())
	s.tabs = catalog.Tabs(s.groups)
	s.tabsByID = catalog.TabsMap(s.groups)
	s.expansions = make(map[catalog.GroupID]bool, len(s.groups))
	for _, g := range s.groups {
		s.expansions[g.ID] = true
	}
	if _, ok := s.tabsByID[catalog.TabCluster]; ok {
		s.selectedTab = catalog.TabCluster
	} else if len(s.tabs) > 0 {
		s.selectedTab = s.tabs[0].ID
	}

	if id, ok := s.initialCluster(); ok {
		s.selectedCluster = id
		if s.clusters != nil {
			s.clusters.Prefetch(id)
		}
	}
	return s
}

func (s *State) initialCluster() (domain.ClusterID, bool) {
	if s.store != nil {
		if id, ok := s.store.SelectedCluster(s.window); ok && s.knownCluster(id) {
			return id, true
		}
	}
	if s.fallback != "" && s.knownCluster(s.fallback) {
		return s.fallback, true
	}
	return "", false
}

func (s *State) knownCluster(id domain.ClusterID) bool {
	return s.clusters == nil || s.clusters.HasCluster(id)
}

// Window returns the owning window id.
func (s *State) Window() domain.WindowID { return s.window }

// AddUpdateListener installs fn as the window's single update listener,
// replacing any previous one.
func (s *State) AddUpdateListener(fn func(Update)) listener.Subscription {
	return s.updates.Set(fn)
}

// SelectedTab returns the selected tab id.
func (s *State) SelectedTab() catalog.TabID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedTab
}

// SetSelectedTab selects id and expands its group. Unknown ids are
// rejected with an InvalidSelection error and change nothing.
func (s *State) SetSelectedTab(id catalog.TabID) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrClosed
	}
	if _, ok := s.tabsByID[id]; !ok {
		s.mu.Unlock()
		return domain.InvalidSelection("tab", string(id))
	}
	updates := s.selectTabLocked(id)
	s.publish(updates)
	s.mu.Unlock()
	return nil
}

// Tabs returns every tab in canonical order.
func (s *State) Tabs() []catalog.Tab {
	return append([]catalog.Tab(nil), s.tabs...)
}

// TabsMap returns every tab keyed by id.
func (s *State) TabsMap() map[catalog.TabID]catalog.Tab {
	return maps.Clone(s.tabsByID)
}

// TabGroups returns the full catalog.
func (s *State) TabGroups() []catalog.TabGroup {
	return catalog.Clone(s.groups)
}

// TabGroupsFiltered returns the groups and tabs whose label contains search,
// ignoring case, and remembers search for keyboard navigation and
// SelectFirstFilteredTab. An empty search returns the full catalog.
func (s *State) TabGroupsFiltered(search string) []catalog.TabGroup {
	s.mu.Lock()
	if !s.closed {
		s.search = search
	}
	s.mu.Unlock()
	return catalog.Filter(s.groups, search)
}

// SelectFirstFilteredTab selects the first tab of the last filtered result.
// It does nothing when the result is empty.
func (s *State) SelectFirstFilteredTab() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrClosed
	}
	filtered := s.filteredLocked()
	if len(filtered) == 0 || len(filtered[0].Tabs) == 0 {
		s.mu.Unlock()
		return nil
	}
	updates := s.selectTabLocked(filtered[0].Tabs[0].ID)
	s.publish(updates)
	s.mu.Unlock()
	return nil
}

// TabGroupExpansions returns the expanded state of every group.
func (s *State) TabGroupExpansions() map[catalog.GroupID]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.expansions)
}

// SetTabGroupExpansions applies the entries of m for known groups. Unknown
// group ids are ignored.
func (s *State) SetTabGroupExpansions(m map[catalog.GroupID]bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrClosed
	}
	changed := s.applyExpansionsLocked(m)
	var updates []Update
	if changed {
		updates = append(updates, s.expansionsUpdateLocked())
	}
	s.publish(updates)
	s.mu.Unlock()
	return nil
}

// CurrentFocusRegion returns the region owning keyboard input.
func (s *State) CurrentFocusRegion() FocusRegion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// SetCurrentFocusRegion moves focus to r. Regions naming a group or tab
// absent from the catalog are rejected.
func (s *State) SetCurrentFocusRegion(r FocusRegion) error {
	if err := s.validateFocus(r); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrClosed
	}
	updates := s.setFocusLocked(r)
	s.publish(updates)
	s.mu.Unlock()
	return nil
}

func (s *State) validateFocus(r FocusRegion) error {
	switch r.Kind {
	case FocusContent, FocusSidebarSearch, FocusClusterSelection:
		return nil
	case FocusSidebarGroup:
		if _, ok := catalog.FindGroup(s.groups, r.GroupID); !ok {
			return domain.InvalidSelection("tab group", string(r.GroupID))
		}
		return nil
	case FocusInTabGroup:
		g, ok := catalog.FindGroup(s.groups, r.GroupID)
		if !ok {
			return domain.InvalidSelection("tab group", string(r.GroupID))
		}
		for _, t := range g.Tabs {
			if t.ID == r.TabID {
				return nil
			}
		}
		return domain.InvalidSelection("tab", string(r.TabID))
	}
	return domain.InvalidSelection("focus region", r.Kind.String())
}

// SelectedCluster returns the selected cluster, if any.
func (s *State) SelectedCluster() (domain.ClusterID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedCluster, s.selectedCluster != ""
}

// SetSelectedCluster selects id, starts loading its client and persists the
// choice. Clusters unknown to the directory are rejected.
func (s *State) SetSelectedCluster(id domain.ClusterID) error {
	if id == "" || !s.knownCluster(id) {
		return domain.InvalidSelection("cluster", string(id))
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrClosed
	}
	if s.selectedCluster != id {
		s.selectedCluster = id
		s.publish([]Update{{Field: FieldSelectedCluster, SelectedCluster: id}})
	}
	s.mu.Unlock()

	if s.clusters != nil {
		s.clusters.Prefetch(id)
	}
	if s.store != nil {
		if err := s.store.SetSelectedCluster(s.window, id); err != nil {
			s.log.Error("failed to persist selected cluster", "cluster", id, "err", err)
		}
	}
	return nil
}

// Selection returns a snapshot of the serializable state.
func (s *State) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Selection{
		SelectedCluster:    s.selectedCluster,
		SelectedTab:        s.selectedTab,
		TabGroupExpansions: maps.Clone(s.expansions),
		FocusRegion:        s.focus,
	}
}

// SetSelection applies sel as a whole. It validates the tab, the focus
// region and the cluster first; if any is invalid nothing changes. An empty
// SelectedCluster leaves the current cluster alone.
func (s *State) SetSelection(sel Selection) error {
	if _, ok := s.tabsByID[sel.SelectedTab]; !ok {
		return domain.InvalidSelection("tab", string(sel.SelectedTab))
	}
	if err := s.validateFocus(sel.FocusRegion); err != nil {
		return err
	}
	if sel.SelectedCluster != "" && !s.knownCluster(sel.SelectedCluster) {
		return domain.InvalidSelection("cluster", string(sel.SelectedCluster))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrClosed
	}
	var updates []Update
	if s.applyExpansionsLocked(sel.TabGroupExpansions) {
		updates = append(updates, s.expansionsUpdateLocked())
	}
	updates = append(updates, s.selectTabLocked(sel.SelectedTab)...)
	updates = append(updates, s.setFocusLocked(sel.FocusRegion)...)
	clusterChanged := sel.SelectedCluster != "" && sel.SelectedCluster != s.selectedCluster
	s.publish(updates)
	s.mu.Unlock()

	if clusterChanged {
		return s.SetSelectedCluster(sel.SelectedCluster)
	}
	return nil
}

// SetWindowClosed tears the window down: later mutations fail with
// domain.ErrClosed, listeners stop receiving updates and the persisted
// selection for the window is dropped. Calling it again has no effect.
func (s *State) SetWindowClosed() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.updates.Close()
	if s.store != nil {
		if err := s.store.ClearWindow(s.window); err != nil {
			s.log.Error("failed to clear window config", "err", err)
		}
	}
	s.log.Debug("window closed")
}

// Closed reports whether SetWindowClosed was called.
func (s *State) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// AsyncDo runs deferred reconciliation on the executor and then calls done
// exactly once. A selected cluster that the directory no longer knows is
// dropped. After SetWindowClosed, done receives a cancellation error.
func (s *State) AsyncDo(done func(error)) {
	s.exec.Go(func() {
		err := s.safeReconcile()
		if done != nil {
			done(err)
		}
	})
}

func (s *State) safeReconcile() (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("reconcile panicked", "panic", r)
			err = fmt.Errorf("reconcile panicked: %v", r)
		}
	}()
	return s.reconcile()
}

func (s *State) reconcile() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Cancelled("window closed")
	}
	id := s.selectedCluster
	s.mu.Unlock()

	if id == "" || s.knownCluster(id) {
		return nil
	}

	s.mu.Lock()
	if s.closed || s.selectedCluster != id {
		s.mu.Unlock()
		return nil
	}
	s.selectedCluster = ""
	s.publish([]Update{{Field: FieldSelectedCluster}})
	s.mu.Unlock()

	s.log.Info("selected cluster no longer exists", "cluster", id)
	return nil
}

func (s *State) filteredLocked() []catalog.TabGroup {
	return catalog.Filter(s.groups, s.search)
}

// selectTabLocked selects id and expands its group, returning the updates
// to publish.
func (s *State) selectTabLocked(id catalog.TabID) []Update {
	var updates []Update
	if s.selectedTab != id {
		s.selectedTab = id
		updates = append(updates, Update{Field: FieldSelectedTab, TabID: id})
	}
	if g, ok := catalog.GroupOf(s.groups, id); ok && !s.expansions[g.ID] {
		s.expansions[g.ID] = true
		updates = append(updates, s.expansionsUpdateLocked())
	}
	return updates
}

func (s *State) setFocusLocked(r FocusRegion) []Update {
	if s.focus == r {
		return nil
	}
	s.focus = r
	return []Update{{Field: FieldFocusRegion, FocusRegion: &r}}
}

func (s *State) applyExpansionsLocked(m map[catalog.GroupID]bool) bool {
	changed := false
	for id, expanded := range m {
		cur, ok := s.expansions[id]
		if !ok || cur == expanded {
			continue
		}
		s.expansions[id] = expanded
		changed = true
	}
	return changed
}

func (s *State) expansionsUpdateLocked() Update {
	return Update{Field: FieldTabGroupExpansions, Expansions: maps.Clone(s.expansions)}
}

// publish queues updates on the dispatcher. Callers hold mu so listeners
// observe updates in the order the changes were applied.
func (s *State) publish(updates []Update) {
	for _, u := range updates {
		s.log.Debug("state updated", "field", u.Field)
		s.updates.Publish(u)
	}
}
