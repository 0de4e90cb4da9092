package interaction

import (
	"fmt"

	"github.com/Taishi66/kview/internal/catalog"
	"github.com/Taishi66/kview/internal/hasher"
)

// FocusKind names the UI zone that owns keyboard input.
type FocusKind int

const (
	FocusContent FocusKind = iota
	FocusSidebarSearch
	FocusSidebarGroup
	FocusInTabGroup
	FocusClusterSelection
)

var focusKindNames = map[FocusKind]string{
	FocusContent:          "content",
	FocusSidebarSearch:    "sidebar_search",
	FocusSidebarGroup:     "sidebar_group",
	FocusInTabGroup:       "in_tab_group",
	FocusClusterSelection: "cluster_selection",
}

func (k FocusKind) String() string {
	if n, ok := focusKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("FocusKind(%d)", int(k))
}

func (k FocusKind) MarshalText() ([]byte, error) {
	if _, ok := focusKindNames[k]; !ok {
		return nil, fmt.Errorf("unknown focus kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *FocusKind) UnmarshalText(b []byte) error {
	for kind, n := range focusKindNames {
		if n == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown focus kind %q", b)
}

// FocusRegion identifies the region owning keyboard input. GroupID is set
// for sidebar groups and tabs inside a group; TabID only for the latter.
type FocusRegion struct {
	Kind    FocusKind       `json:"kind"`
	GroupID catalog.GroupID `json:"group_id,omitempty"`
	TabID   catalog.TabID   `json:"tab_id,omitempty"`
}

func Content() FocusRegion          { return FocusRegion{Kind: FocusContent} }
func SidebarSearch() FocusRegion    { return FocusRegion{Kind: FocusSidebarSearch} }
func ClusterSelection() FocusRegion { return FocusRegion{Kind: FocusClusterSelection} }

func SidebarGroup(id catalog.GroupID) FocusRegion {
	return FocusRegion{Kind: FocusSidebarGroup, GroupID: id}
}

func InTabGroup(group catalog.GroupID, tab catalog.TabID) FocusRegion {
	return FocusRegion{Kind: FocusInTabGroup, GroupID: group, TabID: tab}
}

func (r FocusRegion) String() string {
	switch r.Kind {
	case FocusSidebarGroup:
		return fmt.Sprintf("%s:%s", r.Kind, r.GroupID)
	case FocusInTabGroup:
		return fmt.Sprintf("%s:%s/%s", r.Kind, r.GroupID, r.TabID)
	}
	return r.Kind.String()
}

// Hash identifies the region. Equal regions hash equally across processes.
func (r FocusRegion) Hash() uint64 {
	return hasher.New().HashString(r.String())
}

// KeyEvent is a key the core knows how to route.
type KeyEvent int

const (
	KeyUp KeyEvent = iota
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	KeyEnter
	KeyTab
	KeyShiftTab
	KeyEscape
	KeyOptionF
)

var keyNames = map[KeyEvent]string{
	KeyUp:       "up",
	KeyDown:     "down",
	KeyLeft:     "left",
	KeyRight:    "right",
	KeySpace:    "space",
	KeyEnter:    "enter",
	KeyTab:      "tab",
	KeyShiftTab: "shift_tab",
	KeyEscape:   "escape",
	KeyOptionF:  "option_f",
}

func (k KeyEvent) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return fmt.Sprintf("KeyEvent(%d)", int(k))
}

func (k KeyEvent) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *KeyEvent) UnmarshalText(b []byte) error {
	for key, n := range keyNames {
		if n == string(b) {
			*k = key
			return nil
		}
	}
	return fmt.Errorf("unknown key %q", b)
}
