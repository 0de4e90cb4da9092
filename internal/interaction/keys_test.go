package interaction

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/Taishi66/kview/internal/catalog"
)

func TestHandleKeyInput_Routing(t *testing.T) {
	tests := []struct {
		name      string
		search    string
		from      FocusRegion
		key       KeyEvent
		want      FocusRegion
		wantTab   catalog.TabID
		wantFalse bool
	}{
		{name: "search tab to first group", from: SidebarSearch(), key: KeyTab, want: SidebarGroup(catalog.GroupGeneral)},
		{name: "search tab with empty filter", search: "zzz", from: SidebarSearch(), key: KeyTab, want: Content()},
		{name: "search tab uses filtered groups", search: "storage", from: SidebarSearch(), key: KeyTab, want: SidebarGroup(catalog.GroupStorage)},
		{name: "search escape", from: SidebarSearch(), key: KeyEscape, want: Content()},
		{name: "group tab to next", from: SidebarGroup(catalog.GroupGeneral), key: KeyTab, want: SidebarGroup(catalog.GroupWorkloads)},
		{name: "last group tab to cluster selection", from: SidebarGroup(catalog.GroupAccessControl), key: KeyTab, want: ClusterSelection()},
		{name: "group shift tab to previous", from: SidebarGroup(catalog.GroupWorkloads), key: KeyShiftTab, want: SidebarGroup(catalog.GroupGeneral)},
		{name: "first group shift tab to search", from: SidebarGroup(catalog.GroupGeneral), key: KeyShiftTab, want: SidebarSearch()},
		{name: "group escape", from: SidebarGroup(catalog.GroupConfig), key: KeyEscape, want: Content()},
		{name: "group down enters first tab", from: SidebarGroup(catalog.GroupNetwork), key: KeyDown,
			want: InTabGroup(catalog.GroupNetwork, catalog.TabServices), wantTab: catalog.TabServices},
		{name: "group up enters last tab", from: SidebarGroup(catalog.GroupNetwork), key: KeyUp,
			want: InTabGroup(catalog.GroupNetwork, catalog.TabPortForwarding), wantTab: catalog.TabPortForwarding},
		{name: "in group down", from: InTabGroup(catalog.GroupStorage, catalog.TabPersistentVolumes), key: KeyDown,
			want: InTabGroup(catalog.GroupStorage, catalog.TabPersistentVolumeClaims), wantTab: catalog.TabPersistentVolumeClaims},
		{name: "in group down wraps", from: InTabGroup(catalog.GroupStorage, catalog.TabStorageClasses), key: KeyDown,
			want: InTabGroup(catalog.GroupStorage, catalog.TabPersistentVolumes), wantTab: catalog.TabPersistentVolumes},
		{name: "in group up wraps", from: InTabGroup(catalog.GroupStorage, catalog.TabPersistentVolumes), key: KeyUp,
			want: InTabGroup(catalog.GroupStorage, catalog.TabStorageClasses), wantTab: catalog.TabStorageClasses},
		{name: "in group down within filter", search: "pod", from: InTabGroup(catalog.GroupWorkloads, catalog.TabPods), key: KeyDown,
			want: InTabGroup(catalog.GroupWorkloads, catalog.TabPods), wantTab: catalog.TabPods},
		{name: "in group tab to next group", from: InTabGroup(catalog.GroupStorage, catalog.TabStorageClasses), key: KeyTab,
			want: SidebarGroup(catalog.GroupAccessControl)},
		{name: "in group shift tab", from: InTabGroup(catalog.GroupStorage, catalog.TabStorageClasses), key: KeyShiftTab,
			want: SidebarGroup(catalog.GroupNetwork)},
		{name: "cluster selection tab", from: ClusterSelection(), key: KeyTab, want: Content()},
		{name: "cluster selection shift tab", from: ClusterSelection(), key: KeyShiftTab, want: SidebarGroup(catalog.GroupAccessControl)},
		{name: "cluster selection shift tab empty filter", search: "zzz", from: ClusterSelection(), key: KeyShiftTab, want: SidebarSearch()},
		{name: "content tab", from: Content(), key: KeyTab, want: SidebarSearch()},
		{name: "content shift tab", from: Content(), key: KeyShiftTab, want: ClusterSelection()},
		{name: "option f from anywhere", from: InTabGroup(catalog.GroupConfig, catalog.TabLeases), key: KeyOptionF, want: SidebarSearch()},
		{name: "unmapped left", from: Content(), key: KeyLeft, want: Content(), wantFalse: true},
		{name: "unmapped escape in content", from: Content(), key: KeyEscape, want: Content(), wantFalse: true},
		{name: "unmapped escape in tab group", from: InTabGroup(catalog.GroupConfig, catalog.TabLeases), key: KeyEscape,
			want: InTabGroup(catalog.GroupConfig, catalog.TabLeases), wantFalse: true},
		{name: "unknown key", from: Content(), key: KeyEvent(42), want: Content(), wantFalse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newState(t)
			s.TabGroupsFiltered(tt.search)
			if err := s.SetCurrentFocusRegion(tt.from); err != nil {
				t.Fatalf("SetCurrentFocusRegion(%v): %v", tt.from, err)
			}

			handled := s.HandleKeyInput(tt.key)
			if handled == tt.wantFalse {
				t.Errorf("HandleKeyInput(%v) = %v", tt.key, handled)
			}
			if got := s.CurrentFocusRegion(); got != tt.want {
				t.Errorf("focus = %v, want %v", got, tt.want)
			}
			wantTab := tt.wantTab
			if wantTab == "" {
				wantTab = catalog.TabCluster
			}
			if s.SelectedTab() != wantTab {
				t.Errorf("SelectedTab() = %q, want %q", s.SelectedTab(), wantTab)
			}
		})
	}
}

func TestHandleKeyInput_ToggleExpansion(t *testing.T) {
	s, exec, rec := newState(t)
	_ = s.SetCurrentFocusRegion(SidebarGroup(catalog.GroupConfig))
	exec.RunAll()
	rec.reset()

	if !s.HandleKeyInput(KeySpace) {
		t.Fatal("space not handled")
	}
	if s.TabGroupExpansions()[catalog.GroupConfig] {
		t.Error("space did not collapse the group")
	}
	if !s.HandleKeyInput(KeyEnter) || !s.TabGroupExpansions()[catalog.GroupConfig] {
		t.Error("enter did not expand the group")
	}
	exec.RunAll()
	want := []Field{FieldTabGroupExpansions, FieldTabGroupExpansions}
	if !reflect.DeepEqual(rec.fields(), want) {
		t.Errorf("updates = %v, want %v", rec.fields(), want)
	}
}

func TestHandleKeyInput_NotifiesOnlyOnChange(t *testing.T) {
	s, exec, rec := newState(t)

	s.HandleKeyInput(KeyLeft)
	exec.RunAll()
	if len(rec.fields()) != 0 {
		t.Errorf("unhandled key notified: %v", rec.fields())
	}

	s.HandleKeyInput(KeyTab)
	exec.RunAll()
	if !reflect.DeepEqual(rec.fields(), []Field{FieldFocusRegion}) {
		t.Errorf("updates = %v", rec.fields())
	}
	rec.mu.Lock()
	got := rec.updates[0].FocusRegion
	rec.mu.Unlock()
	if got == nil || *got != SidebarSearch() {
		t.Errorf("update focus = %v", got)
	}
}

func TestFocusRegion_JSON(t *testing.T) {
	tests := []struct {
		region FocusRegion
		json   string
	}{
		{Content(), `{"kind":"content"}`},
		{SidebarGroup(catalog.GroupGeneral), `{"kind":"sidebar_group","group_id":"general"}`},
		{InTabGroup(catalog.GroupGeneral, catalog.TabNodes), `{"kind":"in_tab_group","group_id":"general","tab_id":"nodes"}`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.region)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != tt.json {
			t.Errorf("Marshal(%v) = %s, want %s", tt.region, b, tt.json)
		}
		var back FocusRegion
		if err := json.Unmarshal(b, &back); err != nil || back != tt.region {
			t.Errorf("Unmarshal(%s) = %v, %v", b, back, err)
		}
	}
	var r FocusRegion
	if err := json.Unmarshal([]byte(`{"kind":"sideways"}`), &r); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestFocusRegion_Hash(t *testing.T) {
	a := InTabGroup(catalog.GroupGeneral, catalog.TabNodes)
	b := InTabGroup(catalog.GroupGeneral, catalog.TabNodes)
	if a.Hash() != b.Hash() {
		t.Error("equal regions hash differently")
	}
	if a.Hash() == SidebarGroup(catalog.GroupGeneral).Hash() {
		t.Error("distinct regions collide")
	}
}

func TestKeyEvent_Text(t *testing.T) {
	var k KeyEvent
	if err := k.UnmarshalText([]byte("shift_tab")); err != nil || k != KeyShiftTab {
		t.Errorf("UnmarshalText(shift_tab) = %v, %v", k, err)
	}
	if err := k.UnmarshalText([]byte("f13")); err == nil {
		t.Error("expected error for unknown key")
	}
	if KeyOptionF.String() != "option_f" {
		t.Errorf("String() = %q", KeyOptionF.String())
	}
}
