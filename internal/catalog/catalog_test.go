package catalog

import (
	"strings"
	"testing"
)

func TestDefault_Shape(t *testing.T) {
	groups := Default().TabGroups()
	wantGroups := []GroupID{GroupGeneral, GroupWorkloads, GroupConfig, GroupNetwork, GroupStorage, GroupAccessControl}
	if len(groups) != len(wantGroups) {
		t.Fatalf("len(groups) = %d, want %d", len(groups), len(wantGroups))
	}
	seen := map[TabID]bool{}
	for i, g := range groups {
		if g.ID != wantGroups[i] {
			t.Errorf("groups[%d] = %s, want %s", i, g.ID, wantGroups[i])
		}
		for _, tab := range g.Tabs {
			if tab.GroupID != g.ID {
				t.Errorf("tab %s GroupID = %s, want %s", tab.ID, tab.GroupID, g.ID)
			}
			if tab.Icon == "" || tab.Label == "" {
				t.Errorf("tab %s missing icon or label", tab.ID)
			}
			if seen[tab.ID] {
				t.Errorf("duplicate tab %s", tab.ID)
			}
			seen[tab.ID] = true
		}
	}
	if len(Tabs(groups)) != 35 || len(TabsMap(groups)) != 35 {
		t.Errorf("tab count = %d/%d, want 35", len(Tabs(groups)), len(TabsMap(groups)))
	}
	if groups[0].Tabs[0].ID != TabCluster {
		t.Errorf("first tab = %s, want cluster", groups[0].Tabs[0].ID)
	}
}

func TestStatic_ReturnsCopy(t *testing.T) {
	src := Default()
	a := src.TabGroups()
	a[0].Tabs[0].Label = "mutated"
	b := src.TabGroups()
	if b[0].Tabs[0].Label != "Cluster" {
		t.Error("TabGroups() must not expose internal slices")
	}
}

func TestFilter(t *testing.T) {
	groups := Default().TabGroups()

	tests := []struct {
		name       string
		search     string
		wantGroups []GroupID
		wantTabs   int
	}{
		{"empty returns all", "", []GroupID{GroupGeneral, GroupWorkloads, GroupConfig, GroupNetwork, GroupStorage, GroupAccessControl}, 35},
		{"case insensitive", "PODS", []GroupID{GroupWorkloads}, 1},
		{"across groups", "role", []GroupID{GroupAccessControl}, 4},
		{"substring in many", "set", []GroupID{GroupWorkloads}, 3},
		{"no match", "zzz", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(groups, tt.search)
			if len(got) != len(tt.wantGroups) {
				t.Fatalf("groups = %v, want %v", ids(got), tt.wantGroups)
			}
			for i, g := range got {
				if g.ID != tt.wantGroups[i] {
					t.Errorf("groups[%d] = %s, want %s", i, g.ID, tt.wantGroups[i])
				}
				for _, tab := range g.Tabs {
					if !strings.Contains(strings.ToLower(tab.Label), strings.ToLower(tt.search)) {
						t.Errorf("tab %q does not match %q", tab.Label, tt.search)
					}
				}
			}
			if n := len(Tabs(got)); n != tt.wantTabs {
				t.Errorf("tabs = %d, want %d", n, tt.wantTabs)
			}
		})
	}
}

func TestFilter_PreservesCanonicalOrder(t *testing.T) {
	got := Tabs(Filter(Default().TabGroups(), "s"))
	all := Tabs(Default().TabGroups())
	j := 0
	for _, tab := range got {
		for j < len(all) && all[j].ID != tab.ID {
			j++
		}
		if j == len(all) {
			t.Fatalf("tab %s out of canonical order", tab.ID)
		}
	}
}

func TestNavigation(t *testing.T) {
	groups := Default().TabGroups()

	if id, ok := NextGroup(groups, GroupGeneral); !ok || id != GroupWorkloads {
		t.Errorf("NextGroup(general) = %s, %v", id, ok)
	}
	if _, ok := NextGroup(groups, GroupAccessControl); ok {
		t.Error("NextGroup(last) should report false")
	}
	if id, ok := PreviousGroup(groups, GroupConfig); !ok || id != GroupWorkloads {
		t.Errorf("PreviousGroup(config) = %s, %v", id, ok)
	}
	if _, ok := PreviousGroup(groups, GroupGeneral); ok {
		t.Error("PreviousGroup(first) should report false")
	}
	if id, ok := NextGroup(groups, "unknown"); !ok || id != GroupWorkloads {
		t.Errorf("NextGroup(unknown) = %s, %v, want workloads", id, ok)
	}

	general := groups[0].Tabs
	if id, ok := NextTab(general, TabCluster); !ok || id != TabNodes {
		t.Errorf("NextTab(cluster) = %s, %v", id, ok)
	}
	if _, ok := NextTab(general, TabEvents); ok {
		t.Error("NextTab(last) should report false")
	}
	if id, ok := PreviousTab(general, TabNodes); !ok || id != TabCluster {
		t.Errorf("PreviousTab(nodes) = %s, %v", id, ok)
	}

	if g, ok := GroupOf(groups, TabSecrets); !ok || g.ID != GroupConfig {
		t.Errorf("GroupOf(secrets) = %s, %v", g.ID, ok)
	}
	if _, ok := FindGroup(groups, "nope"); ok {
		t.Error("FindGroup(nope) should report false")
	}
}

func ids(groups []TabGroup) []GroupID {
	out := make([]GroupID, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.ID)
	}
	return out
}
