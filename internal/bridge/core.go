package bridge

import (
	"context"
	"encoding/json"

	"github.com/Taishi66/kview/internal/catalog"
	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/hasher"
	"github.com/Taishi66/kview/internal/interaction"
	"github.com/Taishi66/kview/internal/logging"
	"github.com/Taishi66/kview/internal/registry"
	"github.com/Taishi66/kview/internal/watcher"
)

// Responder receives registry and watcher events. The payload buffer is
// owned by the responder and must be freed.
type Responder interface {
	Callback(payload Buffer)
}

// UpdateResponder receives main view updates.
type UpdateResponder interface {
	Update(payload Buffer)
}

// Options configures a Core.
type Options struct {
	Registry *registry.Registry
	Executor executor.Executor
	Logger   logging.Logger
	Catalog  catalog.Source
	Store    interaction.SelectionStore
	// FallbackCluster is selected in new windows with no stored selection.
	FallbackCluster domain.ClusterID
}

// Core is the boundary facade over the registry, watchers and main views.
type Core struct {
	registry *registry.Registry
	exec     executor.Executor
	log      logging.Logger
	catalog  catalog.Source
	store    interaction.SelectionStore
	fallback domain.ClusterID
	hasher   hasher.Hasher

	buffers  *Buffers
	watchers *Table[*watcher.Watcher]
	views    *Table[*interaction.State]
}

// New returns a Core. Tasks posted by the core run on opts.Executor.
func New(opts Options) *Core {
	log := logging.OrNop(opts.Logger)
	exec := opts.Executor
	if exec == nil {
		exec = executor.NewGroup()
	}
	return &Core{
		registry: opts.Registry,
		exec:     recovering{inner: exec, log: log},
		log:      log,
		catalog:  opts.Catalog,
		store:    opts.Store,
		fallback: opts.FallbackCluster,
		hasher:   hasher.New(),
		buffers:  NewBuffers(),
		watchers: NewTable[*watcher.Watcher]("watcher"),
		views:    NewTable[*interaction.State]("main view"),
	}
}

// Hash returns the content hash of data.
func (c *Core) Hash(data []byte) uint64 {
	return c.hasher.Hash(data)
}

// ReadBuffer returns the bytes of buf without releasing it.
func (c *Core) ReadBuffer(buf Buffer) ([]byte, Status) {
	var data []byte
	st := Guard(func() error {
		var err error
		data, err = c.buffers.Read(buf)
		return err
	})
	return data, st
}

// FreeBuffer releases buf.
func (c *Core) FreeBuffer(buf Buffer) Status {
	return Guard(func() error { return c.buffers.Free(buf) })
}

// LiveBuffers returns the number of buffers not yet freed.
func (c *Core) LiveBuffers() int {
	return c.buffers.Live()
}

// Registry operations.

func (c *Core) Clusters() (Buffer, Status) {
	return c.encode(func() (any, error) { return c.registry.Clusters(), nil })
}

func (c *Core) LoadClient(cluster string, userData uint64, done Completion) {
	GoAsync(c.exec, userData, done, func() error {
		return c.registry.LoadClient(context.Background(), domain.ClusterID(cluster))
	})
}

type registryEvent struct {
	Kind      string           `json:"kind"`
	ClusterID domain.ClusterID `json:"cluster_id,omitempty"`
	Error     *ErrorPayload    `json:"error,omitempty"`
}

func (c *Core) AddRegistryListener(r Responder) Status {
	return Guard(func() error {
		c.registry.AddCallbackListener(func(m registry.Message) {
			c.respond(r, registryEvent{Kind: m.Kind.String(), ClusterID: m.ClusterID, Error: errorPayload(m.Err)})
		})
		return nil
	})
}

// Watcher operations.

func (c *Core) NewWatcher(window string) Handle {
	return c.watchers.Insert(watcher.New(domain.WindowID(window), c.registry, c.exec, watcher.WithLogger(c.log)))
}

func (c *Core) NewPreviewWatcher(window string) Handle {
	return c.watchers.Insert(watcher.Preview(domain.WindowID(window), c.exec, watcher.WithLogger(c.log)))
}

// FreeWatcher stops the watcher and releases h.
func (c *Core) FreeWatcher(h Handle) Status {
	return Guard(func() error {
		w, err := c.watchers.Remove(h)
		if err != nil {
			return err
		}
		w.Close()
		return nil
	})
}

func (c *Core) FetchNodes(h Handle, cluster string, userData uint64, done Completion) {
	CallAsync(userData, done, func(finish func(error)) {
		w, err := c.watchers.Get(h)
		if err != nil {
			finish(err)
			return
		}
		w.FetchNodes(domain.ClusterID(cluster), finish)
	})
}

func (c *Core) RefreshNodes(h Handle, cluster string, userData uint64, done Completion) {
	CallAsync(userData, done, func(finish func(error)) {
		w, err := c.watchers.Get(h)
		if err != nil {
			finish(err)
			return
		}
		w.RefreshNodes(domain.ClusterID(cluster), finish)
	})
}

func (c *Core) Nodes(h Handle, cluster string) (Buffer, Status) {
	return c.encode(func() (any, error) {
		w, err := c.watchers.Get(h)
		if err != nil {
			return nil, err
		}
		return w.Nodes(domain.ClusterID(cluster)), nil
	})
}

type watchStatus struct {
	State     watcher.State    `json:"state"`
	ClusterID domain.ClusterID `json:"cluster_id,omitempty"`
	Reason    string           `json:"reason,omitempty"`
}

func toWatchStatus(s watcher.Status) watchStatus {
	return watchStatus{State: s.State, ClusterID: s.ClusterID, Reason: s.Reason()}
}

func (c *Core) WatcherStatus(h Handle) (Buffer, Status) {
	return c.encode(func() (any, error) {
		w, err := c.watchers.Get(h)
		if err != nil {
			return nil, err
		}
		return toWatchStatus(w.Status()), nil
	})
}

func (c *Core) StopWatcher(h Handle) Status {
	return Guard(func() error {
		w, err := c.watchers.Get(h)
		if err != nil {
			return err
		}
		w.StopWatcher()
		return nil
	})
}

type watcherEvent struct {
	Kind      string           `json:"kind"`
	ClusterID domain.ClusterID `json:"cluster_id,omitempty"`
	Status    *watchStatus     `json:"status,omitempty"`
	Error     *ErrorPayload    `json:"error,omitempty"`
}

func (c *Core) AddWatcherListener(h Handle, r Responder) Status {
	return Guard(func() error {
		w, err := c.watchers.Get(h)
		if err != nil {
			return err
		}
		w.AddCallbackListener(func(m watcher.Message) {
			ev := watcherEvent{Kind: m.Kind.String(), ClusterID: m.ClusterID, Error: errorPayload(m.Err)}
			if m.Kind == watcher.StatusChanged || m.Kind == watcher.LoadFailed {
				st := toWatchStatus(m.Status)
				ev.Status = &st
			}
			c.respond(r, ev)
		})
		return nil
	})
}

// Main view operations.

func (c *Core) NewMainView(window string) Handle {
	opts := []interaction.Option{interaction.WithLogger(c.log), interaction.WithFallbackCluster(c.fallback)}
	if c.registry != nil {
		opts = append(opts, interaction.WithClusters(c.registry))
	}
	if c.store != nil {
		opts = append(opts, interaction.WithStore(c.store))
	}
	return c.views.Insert(interaction.New(domain.WindowID(window), c.catalog, c.exec, opts...))
}

// FreeMainView closes the window and releases h.
func (c *Core) FreeMainView(h Handle) Status {
	return Guard(func() error {
		v, err := c.views.Remove(h)
		if err != nil {
			return err
		}
		v.SetWindowClosed()
		return nil
	})
}

func (c *Core) SelectedTab(h Handle) (Buffer, Status) {
	return c.read(h, func(v *interaction.State) any { return v.SelectedTab() })
}

func (c *Core) SetSelectedTab(h Handle, payload []byte) Status {
	return c.write(h, func(v *interaction.State) error {
		var id catalog.TabID
		if err := decode(payload, &id); err != nil {
			return err
		}
		return v.SetSelectedTab(id)
	})
}

func (c *Core) Tabs(h Handle) (Buffer, Status) {
	return c.read(h, func(v *interaction.State) any { return v.Tabs() })
}

func (c *Core) TabsMap(h Handle) (Buffer, Status) {
	return c.read(h, func(v *interaction.State) any { return v.TabsMap() })
}

func (c *Core) TabGroups(h Handle) (Buffer, Status) {
	return c.read(h, func(v *interaction.State) any { return v.TabGroups() })
}

func (c *Core) TabGroupsFiltered(h Handle, search string) (Buffer, Status) {
	return c.read(h, func(v *interaction.State) any {
		groups := v.TabGroupsFiltered(search)
		if groups == nil {
			groups = []catalog.TabGroup{}
		}
		return groups
	})
}

func (c *Core) TabGroupExpansions(h Handle) (Buffer, Status) {
	return c.read(h, func(v *interaction.State) any { return v.TabGroupExpansions() })
}

func (c *Core) SetTabGroupExpansions(h Handle, payload []byte) Status {
	return c.write(h, func(v *interaction.State) error {
		var m map[catalog.GroupID]bool
		if err := decode(payload, &m); err != nil {
			return err
		}
		return v.SetTabGroupExpansions(m)
	})
}

func (c *Core) SelectFirstFilteredTab(h Handle) Status {
	return c.write(h, func(v *interaction.State) error { return v.SelectFirstFilteredTab() })
}

func (c *Core) CurrentFocusRegion(h Handle) (Buffer, Status) {
	return c.read(h, func(v *interaction.State) any { return v.CurrentFocusRegion() })
}

func (c *Core) SetCurrentFocusRegion(h Handle, payload []byte) Status {
	return c.write(h, func(v *interaction.State) error {
		var r interaction.FocusRegion
		if err := decode(payload, &r); err != nil {
			return err
		}
		return v.SetCurrentFocusRegion(r)
	})
}

// HandleKeyInput reports whether the key was consumed. A malformed key is
// reported through the status and never consumed.
func (c *Core) HandleKeyInput(h Handle, payload []byte) (bool, Status) {
	var handled bool
	st := c.write(h, func(v *interaction.State) error {
		var key interaction.KeyEvent
		if err := decode(payload, &key); err != nil {
			return err
		}
		handled = v.HandleKeyInput(key)
		return nil
	})
	return handled, st
}

func (c *Core) SetWindowClosed(h Handle) Status {
	return c.write(h, func(v *interaction.State) error {
		v.SetWindowClosed()
		return nil
	})
}

func (c *Core) AddUpdateListener(h Handle, r UpdateResponder) Status {
	return c.write(h, func(v *interaction.State) error {
		v.AddUpdateListener(func(u interaction.Update) {
			buf, err := c.buffers.AllocJSON(u)
			if err != nil {
				c.log.Error("failed to encode update", "field", u.Field, "err", err)
				return
			}
			r.Update(buf)
		})
		return nil
	})
}

func (c *Core) AsyncDo(h Handle, userData uint64, done Completion) {
	CallAsync(userData, done, func(finish func(error)) {
		v, err := c.views.Get(h)
		if err != nil {
			finish(err)
			return
		}
		v.AsyncDo(finish)
	})
}

func (c *Core) Selection(h Handle) (Buffer, Status) {
	return c.read(h, func(v *interaction.State) any { return v.Selection() })
}

func (c *Core) SetSelection(h Handle, payload []byte) Status {
	return c.write(h, func(v *interaction.State) error {
		var sel interaction.Selection
		if err := decode(payload, &sel); err != nil {
			return err
		}
		return v.SetSelection(sel)
	})
}

// SelectedCluster encodes the selected cluster id, or null.
func (c *Core) SelectedCluster(h Handle) (Buffer, Status) {
	return c.read(h, func(v *interaction.State) any {
		if id, ok := v.SelectedCluster(); ok {
			return id
		}
		return nil
	})
}

func (c *Core) SetSelectedCluster(h Handle, payload []byte) Status {
	return c.write(h, func(v *interaction.State) error {
		var id domain.ClusterID
		if err := decode(payload, &id); err != nil {
			return err
		}
		return v.SetSelectedCluster(id)
	})
}

func (c *Core) read(h Handle, fn func(*interaction.State) any) (Buffer, Status) {
	return c.encode(func() (any, error) {
		v, err := c.views.Get(h)
		if err != nil {
			return nil, err
		}
		return fn(v), nil
	})
}

func (c *Core) write(h Handle, fn func(*interaction.State) error) Status {
	return Guard(func() error {
		v, err := c.views.Get(h)
		if err != nil {
			return err
		}
		return fn(v)
	})
}

func (c *Core) encode(fn func() (any, error)) (Buffer, Status) {
	var buf Buffer
	st := Guard(func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		buf, err = c.buffers.AllocJSON(v)
		if err != nil {
			return domain.SerializationError(err)
		}
		return nil
	})
	return buf, st
}

func (c *Core) respond(r Responder, v any) {
	buf, err := c.buffers.AllocJSON(v)
	if err != nil {
		c.log.Error("failed to encode event", "err", err)
		return
	}
	r.Callback(buf)
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return domain.SerializationError(err)
	}
	return nil
}

func errorPayload(err error) *ErrorPayload {
	if err == nil {
		return nil
	}
	return &ErrorPayload{Type: domain.TypeOf(err).String(), Message: err.Error()}
}
