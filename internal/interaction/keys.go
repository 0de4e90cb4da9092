package interaction

import (
	"github.com/Taishi66/kview/internal/catalog"
)

// HandleKeyInput routes key according to the current focus region and
// reports whether it was consumed. Navigation follows the groups of the
// last TabGroupsFiltered call. Unmapped keys return false.
func (s *State) HandleKeyInput(key KeyEvent) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	prev := s.focus
	handled, updates := s.routeLocked(key)
	if s.focus != prev {
		r := s.focus
		updates = append(updates, Update{Field: FieldFocusRegion, FocusRegion: &r})
	}
	s.mu.Unlock()

	s.log.Debug("key input", "key", key, "focus", prev, "handled", handled)
	s.publish(updates)
	return handled
}

func (s *State) routeLocked(key KeyEvent) (bool, []Update) {
	if key == KeyOptionF {
		s.focus = SidebarSearch()
		return true, nil
	}

	filtered := s.filteredLocked()
	switch s.focus.Kind {
	case FocusSidebarSearch:
		switch key {
		case KeyTab:
			if len(filtered) > 0 {
				s.focus = SidebarGroup(filtered[0].ID)
			} else {
				s.focus = Content()
			}
			return true, nil
		case KeyEscape:
			s.focus = Content()
			return true, nil
		}

	case FocusSidebarGroup:
		id := s.focus.GroupID
		switch key {
		case KeyTab:
			s.focus = nextGroupFocus(filtered, id)
			return true, nil
		case KeyShiftTab:
			s.focus = previousGroupFocus(filtered, id)
			return true, nil
		case KeyEscape:
			s.focus = Content()
			return true, nil
		case KeyDown, KeyUp:
			g, ok := catalog.FindGroup(filtered, id)
			if !ok || len(g.Tabs) == 0 {
				return true, nil
			}
			tab := g.Tabs[0].ID
			if key == KeyUp {
				tab = g.Tabs[len(g.Tabs)-1].ID
			}
			s.focus = InTabGroup(id, tab)
			return true, s.selectTabLocked(tab)
		case KeySpace, KeyEnter:
			return true, s.toggleLocked(id)
		}

	case FocusInTabGroup:
		id := s.focus.GroupID
		switch key {
		case KeyTab:
			s.focus = nextGroupFocus(filtered, id)
			return true, nil
		case KeyShiftTab:
			s.focus = previousGroupFocus(filtered, id)
			return true, nil
		case KeyDown, KeyUp:
			g, ok := catalog.FindGroup(filtered, id)
			if !ok || len(g.Tabs) == 0 {
				return true, nil
			}
			var tab catalog.TabID
			if key == KeyDown {
				next, ok := catalog.NextTab(g.Tabs, s.focus.TabID)
				if !ok {
					next = g.Tabs[0].ID
				}
				tab = next
			} else {
				prev, ok := catalog.PreviousTab(g.Tabs, s.focus.TabID)
				if !ok {
					prev = g.Tabs[len(g.Tabs)-1].ID
				}
				tab = prev
			}
			s.focus = InTabGroup(id, tab)
			return true, s.selectTabLocked(tab)
		case KeySpace, KeyEnter:
			return true, s.toggleLocked(id)
		}

	case FocusClusterSelection:
		switch key {
		case KeyTab:
			s.focus = Content()
			return true, nil
		case KeyShiftTab:
			if len(filtered) > 0 {
				s.focus = SidebarGroup(filtered[len(filtered)-1].ID)
			} else {
				s.focus = SidebarSearch()
			}
			return true, nil
		}

	case FocusContent:
		switch key {
		case KeyTab:
			s.focus = SidebarSearch()
			return true, nil
		case KeyShiftTab:
			s.focus = ClusterSelection()
			return true, nil
		}
	}
	return false, nil
}

func (s *State) toggleLocked(id catalog.GroupID) []Update {
	expanded, ok := s.expansions[id]
	if !ok {
		return nil
	}
	s.expansions[id] = !expanded
	return []Update{s.expansionsUpdateLocked()}
}

func nextGroupFocus(groups []catalog.TabGroup, id catalog.GroupID) FocusRegion {
	if next, ok := catalog.NextGroup(groups, id); ok {
		return SidebarGroup(next)
	}
	return ClusterSelection()
}

func previousGroupFocus(groups []catalog.TabGroup, id catalog.GroupID) FocusRegion {
	if prev, ok := catalog.PreviousGroup(groups, id); ok {
		return SidebarGroup(prev)
	}
	return SidebarSearch()
}
