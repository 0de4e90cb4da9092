// Package watcher keeps a window's node list in sync with one cluster at a time.
//
// Each FetchNodes or RefreshNodes call starts a new session and supersedes the
// previous one: the old session's context is cancelled and its generation no
// longer matches, so anything it produces afterwards is dropped.
//
// Notifications are queued while mu is held, right after the generation
// check, so listeners see them in the order the changes took effect.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Taishi66/kview/internal/cache"
	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/listener"
	"github.com/Taishi66/kview/internal/logging"
)

var errStreamClosed = errors.New("watch stream closed by server")

// Watcher is the per-window node view model.
type Watcher struct {
	window   domain.WindowID
	provider domain.ClientProvider
	exec     executor.Executor
	log      logging.Logger
	now      func() time.Time
	preview  bool

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	status    Status
	snapshots map[domain.ClusterID]domain.Snapshot
	closed    bool

	listeners *listener.Dispatcher[Message]
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(w *Watcher) { w.log = logging.OrNop(l) }
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// New returns an idle watcher for window. Clients come from provider and all
// work runs on exec.
func New(window domain.WindowID, provider domain.ClientProvider, exec executor.Executor, opts ...Option) *Watcher {
	w := &Watcher{
		window:    window,
		provider:  provider,
		exec:      exec,
		log:       logging.Nop(),
		now:       time.Now,
		status:    Status{State: Idle},
		snapshots: make(map[domain.ClusterID]domain.Snapshot),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With("window", window)
	w.listeners = listener.New[Message](exec, w.log)
	return w
}

// Preview returns a watcher that never contacts a cluster. Nodes returns the
// placeholder snapshot for any cluster until a fetch replaces it.
func Preview(window domain.WindowID, exec executor.Executor, opts ...Option) *Watcher {
	w := New(window, previewProvider{}, exec, opts...)
	w.preview = true
	return w
}

// AddCallbackListener registers fn for snapshot and status changes.
func (w *Watcher) AddCallbackListener(fn func(Message)) listener.Subscription {
	return w.listeners.Add(fn)
}

// Status returns the current session status.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Nodes returns the latest snapshot for cluster, or an empty one. It never
// blocks on I/O. The returned slice must not be modified.
func (w *Watcher) Nodes(cluster domain.ClusterID) domain.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.snapshots[cluster]; ok {
		return s
	}
	if w.preview {
		return domain.Snapshot{ClusterID: cluster, Nodes: PreviewNodes(), UpdatedAt: previewCreated}
	}
	return domain.Snapshot{ClusterID: cluster, Nodes: []domain.NodeInfo{}}
}

// FetchNodes lists the cluster's nodes and then keeps the snapshot current
// from the watch stream. done, if non-nil, is called exactly once: with nil
// once the first snapshot is stored, with a cancellation error if the call
// was superseded or stopped first, or with the failure.
func (w *Watcher) FetchNodes(cluster domain.ClusterID, done func(error)) {
	w.start(cluster, false, done)
}

// RefreshNodes is FetchNodes bypassing any cached list. The current snapshot
// stays visible until the new one replaces it.
func (w *Watcher) RefreshNodes(cluster domain.ClusterID, done func(error)) {
	w.start(cluster, true, done)
}

// StopWatcher cancels the active session and moves to Stopped. Snapshots are
// kept. Calling it again has no effect.
func (w *Watcher) StopWatcher() {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.gen++
	if w.status.State == Stopped {
		w.mu.Unlock()
		return
	}
	w.status = Status{State: Stopped, ClusterID: w.status.ClusterID}
	st := w.status
	if !w.closed {
		w.listeners.Publish(Message{Kind: StatusChanged, ClusterID: st.ClusterID, Status: st})
	}
	w.mu.Unlock()

	w.log.Debug("watcher stopped", "cluster", st.ClusterID)
}

// Close stops the watcher and drops all listeners.
func (w *Watcher) Close() {
	w.StopWatcher()
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.listeners.Close()
}

func (w *Watcher) start(cluster domain.ClusterID, refresh bool, done func(error)) {
	finish := once(done)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		finish(domain.Cancelled("watcher closed"))
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.gen++
	gen := w.gen
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.status = Status{State: Fetching, ClusterID: cluster}
	w.listeners.Publish(Message{Kind: StatusChanged, ClusterID: cluster, Status: w.status})
	w.mu.Unlock()

	w.log.Debug("fetch nodes", "cluster", cluster, "gen", gen, "refresh", refresh)
	w.exec.Go(func() {
		w.run(ctx, gen, cluster, refresh, finish)
	})
}

func (w *Watcher) run(ctx context.Context, gen uint64, cluster domain.ClusterID, refresh bool, finish func(error)) {
	// A panicking gateway fails the session instead of leaving it Fetching.
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("node session panicked", "cluster", cluster, "gen", gen, "panic", r)
			finish(w.fail(ctx, gen, cluster, domain.WatchError(cluster, fmt.Errorf("panic: %v", r))))
		}
	}()

	if !w.current(gen) {
		finish(domain.Cancelled("superseded"))
		return
	}

	client, err := w.provider.Client(ctx, cluster)
	if err != nil {
		finish(w.fail(ctx, gen, cluster, err))
		return
	}
	if !w.publishIfCurrent(gen, Message{Kind: ClientLoaded, ClusterID: cluster}) {
		finish(domain.Cancelled("superseded"))
		return
	}

	if refresh {
		cache.Invalidate(client)
	}
	list, err := client.ListNodes(ctx)
	if err != nil {
		finish(w.fail(ctx, gen, cluster, domain.WatchError(cluster, err)))
		return
	}

	items := list.Items
	if items == nil {
		items = []domain.NodeInfo{}
	}
	if !w.commit(gen, cluster, items, NodesLoaded) {
		finish(domain.Cancelled("superseded"))
		return
	}
	w.log.Debug("nodes loaded", "cluster", cluster, "gen", gen, "count", len(items))
	finish(nil)

	events, err := client.WatchNodes(ctx, list.ResourceVersion)
	if err != nil {
		w.fail(ctx, gen, cluster, domain.WatchError(cluster, err))
		return
	}
	if events == nil {
		w.setState(gen, cluster, Idle)
		return
	}
	if !w.setState(gen, cluster, Watching) {
		return
	}
	w.watch(ctx, gen, cluster, events)
}

func (w *Watcher) watch(ctx context.Context, gen uint64, cluster domain.ClusterID, events <-chan domain.WatchEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				w.fail(ctx, gen, cluster, domain.WatchError(cluster, errStreamClosed))
				return
			}
			switch ev.Type {
			case domain.EventBookmark:
				continue
			case domain.EventError:
				w.fail(ctx, gen, cluster, domain.WatchError(cluster, ev.Err))
				return
			}
			if ev.Node == nil {
				continue
			}
			if !w.apply(gen, cluster, ev) {
				return
			}
		}
	}
}

// apply patches the snapshot copy-on-write. It reports false once the
// session is no longer current.
func (w *Watcher) apply(gen uint64, cluster domain.ClusterID, ev domain.WatchEvent) bool {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return false
	}
	prev := w.snapshots[cluster].Nodes
	var next []domain.NodeInfo
	switch ev.Type {
	case domain.EventAdded, domain.EventModified:
		next = make([]domain.NodeInfo, 0, len(prev)+1)
		replaced := false
		for _, n := range prev {
			if n.Name == ev.Node.Name {
				next = append(next, *ev.Node)
				replaced = true
				continue
			}
			next = append(next, n)
		}
		if !replaced {
			next = append(next, *ev.Node)
		}
	case domain.EventDeleted:
		next = make([]domain.NodeInfo, 0, len(prev))
		for _, n := range prev {
			if n.Name != ev.Node.Name {
				next = append(next, n)
			}
		}
	default:
		w.mu.Unlock()
		return true
	}
	w.snapshots[cluster] = domain.Snapshot{ClusterID: cluster, Nodes: next, UpdatedAt: w.now()}
	w.listeners.Publish(Message{Kind: NodesUpdated, ClusterID: cluster})
	w.mu.Unlock()

	w.log.Debug("node event", "cluster", cluster, "gen", gen, "type", ev.Type, "node", ev.Node.Name)
	return true
}

func (w *Watcher) commit(gen uint64, cluster domain.ClusterID, nodes []domain.NodeInfo, kind MessageKind) bool {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return false
	}
	w.snapshots[cluster] = domain.Snapshot{ClusterID: cluster, Nodes: nodes, UpdatedAt: w.now()}
	w.listeners.Publish(Message{Kind: kind, ClusterID: cluster})
	w.mu.Unlock()
	return true
}

func (w *Watcher) setState(gen uint64, cluster domain.ClusterID, state State) bool {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return false
	}
	w.status = Status{State: state, ClusterID: cluster}
	w.listeners.Publish(Message{Kind: StatusChanged, ClusterID: cluster, Status: w.status})
	w.mu.Unlock()
	return true
}

// fail records err as the session outcome if the session is still current,
// keeping the last good snapshot. A superseded or stopped session yields a
// cancellation error instead.
func (w *Watcher) fail(ctx context.Context, gen uint64, cluster domain.ClusterID, err error) error {
	w.mu.Lock()
	if gen != w.gen || ctx.Err() != nil {
		w.mu.Unlock()
		return domain.Cancelled("superseded")
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.status = Status{State: Failed, ClusterID: cluster, Err: err}
	st := w.status
	w.listeners.Publish(Message{Kind: StatusChanged, ClusterID: cluster, Status: st})
	w.listeners.Publish(Message{Kind: LoadFailed, ClusterID: cluster, Status: st, Err: err})
	w.mu.Unlock()

	w.log.Warn("node session failed", "cluster", cluster, "gen", gen, "err", err)
	return err
}

func (w *Watcher) publishIfCurrent(gen uint64, msg Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.gen {
		return false
	}
	w.listeners.Publish(msg)
	return true
}

func (w *Watcher) current(gen uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return gen == w.gen
}

func once(fn func(error)) func(error) {
	var o sync.Once
	return func(err error) {
		o.Do(func() {
			if fn != nil {
				fn(err)
			}
		})
	}
}
