package bridge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Taishi66/kview/internal/hasher"
)

// signatures lists every exported Core operation. Generated bindings embed
// the checksum of each entry and refuse to load against a core whose
// checksums differ.
var signatures = map[string]string{
	"hash":                      "hash(data: bytes) -> u64",
	"buffer_read":               "buffer_read(buf: Buffer) -> bytes",
	"buffer_free":               "buffer_free(buf: Buffer)",
	"clusters":                  "clusters() -> Buffer<[ClusterSummary]>",
	"load_client":               "load_client(cluster: string, user_data: u64, done: Completion)",
	"add_registry_listener":     "add_registry_listener(responder: Responder)",
	"watcher_new":               "watcher_new(window: string) -> Handle",
	"watcher_preview":           "watcher_preview(window: string) -> Handle",
	"watcher_free":              "watcher_free(h: Handle)",
	"fetch_nodes":               "fetch_nodes(h: Handle, cluster: string, user_data: u64, done: Completion)",
	"refresh_nodes":             "refresh_nodes(h: Handle, cluster: string, user_data: u64, done: Completion)",
	"nodes":                     "nodes(h: Handle, cluster: string) -> Buffer<Snapshot>",
	"watcher_status":            "watcher_status(h: Handle) -> Buffer<WatchStatus>",
	"stop_watcher":              "stop_watcher(h: Handle)",
	"add_watcher_listener":      "add_watcher_listener(h: Handle, responder: Responder)",
	"main_new":                  "main_new(window: string) -> Handle",
	"main_free":                 "main_free(h: Handle)",
	"selected_tab":              "selected_tab(h: Handle) -> Buffer<TabId>",
	"set_selected_tab":          "set_selected_tab(h: Handle, tab: bytes<TabId>)",
	"tabs":                      "tabs(h: Handle) -> Buffer<[Tab]>",
	"tabs_map":                  "tabs_map(h: Handle) -> Buffer<{TabId: Tab}>",
	"tab_groups":                "tab_groups(h: Handle) -> Buffer<[TabGroup]>",
	"tab_groups_filtered":       "tab_groups_filtered(h: Handle, search: string) -> Buffer<[TabGroup]>",
	"tab_group_expansions":      "tab_group_expansions(h: Handle) -> Buffer<{TabGroupId: bool}>",
	"set_tab_group_expansions":  "set_tab_group_expansions(h: Handle, expansions: bytes<{TabGroupId: bool}>)",
	"select_first_filtered_tab": "select_first_filtered_tab(h: Handle)",
	"current_focus_region":      "current_focus_region(h: Handle) -> Buffer<FocusRegion>",
	"set_current_focus_region":  "set_current_focus_region(h: Handle, region: bytes<FocusRegion>)",
	"handle_key_input":          "handle_key_input(h: Handle, key: bytes<KeyEvent>) -> bool",
	"set_window_closed":         "set_window_closed(h: Handle)",
	"add_update_listener":       "add_update_listener(h: Handle, responder: UpdateResponder)",
	"async_do":                  "async_do(h: Handle, user_data: u64, done: Completion)",
	"selection":                 "selection(h: Handle) -> Buffer<Selection>",
	"set_selection":             "set_selection(h: Handle, selection: bytes<Selection>)",
	"selected_cluster":          "selected_cluster(h: Handle) -> Buffer<ClusterId?>",
	"set_selected_cluster":      "set_selected_cluster(h: Handle, cluster: bytes<ClusterId>)",
}

// Checksums returns the checksum of every operation.
func Checksums() map[string]uint16 {
	out := make(map[string]uint16, len(signatures))
	for op, sig := range signatures {
		out[op] = uint16(hasher.New().HashString(sig))
	}
	return out
}

// VerifyChecksums compares the checksums a binding was generated with
// against this core. Any difference is fatal for the binding.
func VerifyChecksums(expected map[string]uint16) error {
	actual := Checksums()
	var bad []string
	for op, sum := range expected {
		got, ok := actual[op]
		switch {
		case !ok:
			bad = append(bad, op+" (missing)")
		case got != sum:
			bad = append(bad, fmt.Sprintf("%s (want %d, have %d)", op, sum, got))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return fmt.Errorf("binding checksum mismatch: %s", strings.Join(bad, ", "))
}
