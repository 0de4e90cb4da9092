package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/Taishi66/kview/internal/catalog"
	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/interaction"
	"github.com/Taishi66/kview/internal/registry"
)

type responder struct {
	mu   sync.Mutex
	bufs []Buffer
}

func (r *responder) Callback(buf Buffer) { r.add(buf) }
func (r *responder) Update(buf Buffer)   { r.add(buf) }

func (r *responder) add(buf Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bufs = append(r.bufs, buf)
}

func (r *responder) drain() []Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.bufs
	r.bufs = nil
	return out
}

func nodeInfos(names ...string) []domain.NodeInfo {
	out := make([]domain.NodeInfo, 0, len(names))
	for _, n := range names {
		out = append(out, domain.NodeInfo{Name: n, Status: "Ready"})
	}
	return out
}

func newCore(t *testing.T) (*Core, *executor.Manual) {
	t.Helper()
	exec := executor.NewManual()
	source := domain.NewStaticSource(
		domain.Cluster{ID: "c1", Server: "https://c1:6443"},
		domain.Cluster{ID: "c2", Server: "https://c2:6443"},
	)
	loader := &domain.MockLoader{Gateways: map[domain.ClusterID]domain.NodeGateway{
		"c1": &domain.MockGateway{ClusterIDVal: "c1", Nodes: nodeInfos("a", "b", "c")},
		"c2": &domain.MockGateway{ClusterIDVal: "c2", Nodes: nodeInfos("x")},
	}}
	reg := registry.New(source, loader, registry.WithExecutor(exec))
	t.Cleanup(reg.Close)
	if err := reg.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	exec.RunAll()
	return New(Options{Registry: reg, Executor: exec}), exec
}

func TestCore_Registry(t *testing.T) {
	core, exec := newCore(t)
	events := &responder{}
	if st := core.AddRegistryListener(events); !st.OK() {
		t.Fatal(st.Code)
	}

	buf, st := core.Clusters()
	var clusters []domain.ClusterSummary
	decodeBuffer(t, core, buf, st, &clusters)
	if len(clusters) != 2 || clusters[0].HasClient() {
		t.Fatalf("clusters = %+v", clusters)
	}
	if st := core.FreeBuffer(buf); st.Code != CodeError || payloadType(t, st) != "invalid_handle" {
		t.Errorf("double free status = %v", st.Code)
	}

	done := newCompletions()
	core.LoadClient("c1", 1, done.done)
	core.LoadClient("nope", 2, done.done)
	exec.RunAll()

	if st := done.only(t, 1); !st.OK() {
		t.Errorf("load c1 status = %v", st.Code)
	}
	if st := done.only(t, 2); payloadType(t, st) != "unknown_cluster" {
		t.Errorf("load nope status = %v", st.Code)
	}

	buf, st = core.Clusters()
	decodeBuffer(t, core, buf, st, &clusters)
	if !clusters[0].HasClient() || clusters[1].HasClient() {
		t.Errorf("after load clusters = %+v", clusters)
	}

	var kinds []string
	for _, b := range events.drain() {
		var ev registryEvent
		decodeBuffer(t, core, b, Status{}, &ev)
		kinds = append(kinds, ev.Kind)
	}
	if len(kinds) != 1 || kinds[0] != "client_loaded" {
		t.Errorf("registry events = %v", kinds)
	}
	if core.LiveBuffers() != 0 {
		t.Errorf("%d buffers leaked", core.LiveBuffers())
	}
}

func TestCore_Watcher(t *testing.T) {
	core, exec := newCore(t)
	h := core.NewWatcher("w1")
	events := &responder{}
	core.AddWatcherListener(h, events)
	done := newCompletions()

	core.FetchNodes(h, "c1", 1, done.done)
	core.FetchNodes(h, "c2", 2, done.done)
	exec.RunAll()

	if st := done.only(t, 1); st.Code != CodeCancelled {
		t.Errorf("superseded fetch status = %v, want cancelled", st.Code)
	}
	if st := done.only(t, 2); !st.OK() {
		t.Errorf("fetch c2 status = %v", st.Code)
	}
	for _, b := range events.drain() {
		var ev watcherEvent
		decodeBuffer(t, core, b, Status{}, &ev)
		if ev.ClusterID == "c1" && ev.Kind == "nodes_loaded" {
			t.Error("superseded fetch delivered nodes for c1")
		}
	}

	core.RefreshNodes(h, "c1", 3, done.done)
	exec.RunAll()
	if st := done.only(t, 3); !st.OK() {
		t.Errorf("refresh c1 status = %v", st.Code)
	}

	buf, st := core.Nodes(h, "c1")
	var snap domain.Snapshot
	decodeBuffer(t, core, buf, st, &snap)
	if snap.Len() != 3 || snap.ClusterID != "c1" {
		t.Errorf("snapshot = %+v", snap)
	}

	if st := core.StopWatcher(h); !st.OK() {
		t.Fatal(st.Code)
	}
	buf, st = core.WatcherStatus(h)
	var ws watchStatus
	decodeBuffer(t, core, buf, st, &ws)
	if ws.State.String() != "stopped" {
		t.Errorf("status = %+v", ws)
	}

	if st := core.FreeWatcher(h); !st.OK() {
		t.Fatal(st.Code)
	}
	core.FetchNodes(h, "c1", 4, done.done)
	if st := done.only(t, 4); payloadType(t, st) != "invalid_handle" {
		t.Errorf("fetch on freed watcher = %v", st.Code)
	}
	exec.RunAll()
	for _, b := range events.drain() {
		core.FreeBuffer(b)
	}
	if core.LiveBuffers() != 0 {
		t.Errorf("%d buffers leaked", core.LiveBuffers())
	}
}

func TestCore_PreviewWatcher(t *testing.T) {
	core := New(Options{Executor: executor.NewManual()})
	h := core.NewPreviewWatcher("w1")
	buf, st := core.Nodes(h, "anything")
	var snap domain.Snapshot
	decodeBuffer(t, core, buf, st, &snap)
	if snap.Len() != 3 {
		t.Errorf("preview snapshot = %v", snap.Names())
	}
}

func TestCore_MainView(t *testing.T) {
	core, exec := newCore(t)
	h := core.NewMainView("w1")
	updates := &responder{}
	if st := core.AddUpdateListener(h, updates); !st.OK() {
		t.Fatal(st.Code)
	}

	if st := core.SetSelectedTab(h, []byte(`"pods"`)); !st.OK() {
		t.Fatalf("SetSelectedTab status = %v", st.Code)
	}
	buf, st := core.SelectedTab(h)
	var tab catalog.TabID
	decodeBuffer(t, core, buf, st, &tab)
	if tab != catalog.TabPods {
		t.Errorf("SelectedTab = %q", tab)
	}

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"malformed", `{"pods"`, "serialization"},
		{"wrong type", `42`, "serialization"},
		{"unknown tab", `"bogus"`, "invalid_selection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := core.SetSelectedTab(h, []byte(tt.payload))
			if st.Code != CodeError || payloadType(t, st) != tt.want {
				t.Errorf("status = %v %q, want %q", st.Code, payloadType(t, st), tt.want)
			}
		})
	}

	handled, st := core.HandleKeyInput(h, []byte(`"tab"`))
	if !st.OK() || !handled {
		t.Errorf("HandleKeyInput(tab) = %v, %v", handled, st.Code)
	}
	handled, st = core.HandleKeyInput(h, []byte(`"f13"`))
	if handled || payloadType(t, st) != "serialization" {
		t.Errorf("HandleKeyInput(f13) = %v, %v", handled, st.Code)
	}

	buf, st = core.CurrentFocusRegion(h)
	var region interaction.FocusRegion
	decodeBuffer(t, core, buf, st, &region)
	if region != interaction.SidebarSearch() {
		t.Errorf("focus = %v", region)
	}

	buf, st = core.TabGroupsFiltered(h, "zzz")
	var groups []catalog.TabGroup
	decodeBuffer(t, core, buf, st, &groups)
	if groups == nil || len(groups) != 0 {
		t.Errorf("filtered = %v", groups)
	}

	if st := core.SetSelectedCluster(h, []byte(`"c2"`)); !st.OK() {
		t.Errorf("SetSelectedCluster status = %v", st.Code)
	}
	buf, st = core.Selection(h)
	var sel interaction.Selection
	decodeBuffer(t, core, buf, st, &sel)
	if sel.SelectedCluster != "c2" || sel.SelectedTab != catalog.TabPods {
		t.Errorf("selection = %+v", sel)
	}

	done := newCompletions()
	core.AsyncDo(h, 5, done.done)
	exec.RunAll()
	if st := done.only(t, 5); !st.OK() {
		t.Errorf("AsyncDo status = %v", st.Code)
	}

	var fields []string
	for _, b := range updates.drain() {
		var u struct {
			Field string `json:"field"`
		}
		decodeBuffer(t, core, b, Status{}, &u)
		fields = append(fields, u.Field)
	}
	want := []string{"selected_tab", "current_focus_region", "selected_cluster"}
	if len(fields) != len(want) {
		t.Fatalf("updates = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("updates = %v, want %v", fields, want)
		}
	}

	if st := core.FreeMainView(h); !st.OK() {
		t.Fatal(st.Code)
	}
	if _, st := core.SelectedTab(h); payloadType(t, st) != "invalid_handle" {
		t.Errorf("SelectedTab on freed view = %v", st.Code)
	}
	if core.LiveBuffers() != 0 {
		t.Errorf("%d buffers leaked", core.LiveBuffers())
	}
}

func TestCore_PanickingWorkStillCompletes(t *testing.T) {
	exec := executor.NewGroup()
	broken := &domain.MockGateway{
		ClusterIDVal: "c2",
		ListNodesFunc: func(context.Context) (domain.NodeList, error) {
			panic("list exploded")
		},
	}
	loader := domain.ClientLoaderFunc(func(_ context.Context, c domain.Cluster) (domain.NodeGateway, error) {
		if c.ID == "c1" {
			panic("loader exploded")
		}
		return broken, nil
	})
	source := domain.NewStaticSource(domain.Cluster{ID: "c1"}, domain.Cluster{ID: "c2"})
	reg := registry.New(source, loader, registry.WithExecutor(exec))
	t.Cleanup(reg.Close)
	if err := reg.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	core := New(Options{Registry: reg, Executor: exec})

	done := newCompletions()
	core.LoadClient("c1", 1, done.done)
	h := core.NewWatcher("w1")
	core.FetchNodes(h, "c2", 2, done.done)
	exec.Wait()

	if st := done.only(t, 1); st.Code != CodeError || payloadType(t, st) != "client_load" {
		t.Errorf("load_client status = %v", st.Code)
	}
	if st := done.only(t, 2); st.Code != CodeError || payloadType(t, st) != "watch" {
		t.Errorf("fetch_nodes status = %v", st.Code)
	}

	buf, st := core.WatcherStatus(h)
	var ws struct {
		State     string `json:"state"`
		ClusterID string `json:"cluster_id"`
	}
	decodeBuffer(t, core, buf, st, &ws)
	if ws.State != "failed" || ws.ClusterID != "c2" {
		t.Errorf("watcher status = %+v, want failed on c2", ws)
	}
}
