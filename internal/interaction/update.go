package interaction

import (
	"fmt"

	"github.com/Taishi66/kview/internal/catalog"
	"github.com/Taishi66/kview/internal/domain"
)

// Field names the piece of state an Update carries.
type Field int

const (
	FieldFocusRegion Field = iota
	FieldSelectedTab
	FieldTabGroupExpansions
	FieldSelectedCluster
)

func (f Field) String() string {
	switch f {
	case FieldFocusRegion:
		return "current_focus_region"
	case FieldSelectedTab:
		return "selected_tab"
	case FieldTabGroupExpansions:
		return "tab_group_expansions"
	case FieldSelectedCluster:
		return "selected_cluster"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Update is delivered to the window's update listener after a change.
// Only the member matching Field is set.
type Update struct {
	Field           Field                    `json:"field"`
	FocusRegion     *FocusRegion             `json:"focus_region,omitempty"`
	TabID           catalog.TabID            `json:"tab_id,omitempty"`
	Expansions      map[catalog.GroupID]bool `json:"expansions,omitempty"`
	SelectedCluster domain.ClusterID         `json:"selected_cluster,omitempty"`
}

// Selection is the serializable snapshot of a window's interaction state.
type Selection struct {
	SelectedCluster    domain.ClusterID         `json:"selected_cluster,omitempty"`
	SelectedTab        catalog.TabID            `json:"selected_tab"`
	TabGroupExpansions map[catalog.GroupID]bool `json:"tab_group_expansions"`
	FocusRegion        FocusRegion              `json:"current_focus_region"`
}
