// Package registry tracks the clusters known to the process and the client
// loaded for each of them. One Registry is shared by every window.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/listener"
	"github.com/Taishi66/kview/internal/logging"
)

// MessageKind tells listeners what changed.
type MessageKind int

const (
	ClustersChanged MessageKind = iota
	ClientLoaded
	ClientLoadFailed
)

func (k MessageKind) String() string {
	switch k {
	case ClustersChanged:
		return "clusters_changed"
	case ClientLoaded:
		return "client_loaded"
	case ClientLoadFailed:
		return "client_load_failed"
	}
	return fmt.Sprintf("MessageKind(%d)", int(k))
}

// Message is delivered to registry listeners.
type Message struct {
	Kind      MessageKind
	ClusterID domain.ClusterID
	Err       error
}

const defaultLoadTimeout = 30 * time.Second

type entry struct {
	cluster  domain.Cluster
	client   domain.NodeGateway
	loadedAt time.Time
}

// Registry is the process-wide cluster registry.
type Registry struct {
	source  domain.ClusterSource
	loader  domain.ClientLoader
	exec    executor.Executor
	log     logging.Logger
	wrap    func(domain.NodeGateway) domain.NodeGateway
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	entries map[domain.ClusterID]*entry
	closed  bool

	loads     singleflight.Group
	listeners *listener.Dispatcher[Message]
}

var _ domain.ClientProvider = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithExecutor sets the executor used for listener delivery and prefetches.
func WithExecutor(e executor.Executor) Option {
	return func(r *Registry) { r.exec = e }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Registry) { r.log = logging.OrNop(l) }
}

// WithLoadTimeout bounds each client load.
func WithLoadTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithClientWrapper decorates every loaded client, e.g. with a cache.
func WithClientWrapper(wrap func(domain.NodeGateway) domain.NodeGateway) Option {
	return func(r *Registry) { r.wrap = wrap }
}

// New returns a registry with no clusters. Call Reload to discover them.
func New(source domain.ClusterSource, loader domain.ClientLoader, opts ...Option) *Registry {
	r := &Registry{
		source:  source,
		loader:  loader,
		log:     logging.Nop(),
		timeout: defaultLoadTimeout,
		entries: make(map[domain.ClusterID]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.exec == nil {
		r.exec = executor.NewGroup()
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.listeners = listener.New[Message](r.exec, r.log)
	return r
}

// Clusters returns every known cluster sorted by id.
func (r *Registry) Clusters() []domain.ClusterSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ClusterSummary, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Cluster returns the summary for id.
func (r *Registry) Cluster(id domain.ClusterID) (domain.ClusterSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return domain.ClusterSummary{}, false
	}
	return e.summary(), true
}

// HasCluster reports whether id is a known cluster.
func (r *Registry) HasCluster(id domain.ClusterID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

func (e *entry) summary() domain.ClusterSummary {
	s := domain.ClusterSummary{Cluster: e.cluster, ClientStatus: domain.ClientInitial}
	if e.client != nil {
		s.ClientStatus = domain.ClientLoaded
		s.LoadedAt = e.loadedAt
	}
	return s
}

// AddCallbackListener registers fn for every registry change.
func (r *Registry) AddCallbackListener(fn func(Message)) listener.Subscription {
	return r.listeners.Add(fn)
}

// Reload re-reads the cluster source. Clusters that still exist keep their
// client unless their server changed; removed clusters are dropped. On error
// the known set is left as is.
func (r *Registry) Reload(ctx context.Context) error {
	clusters, err := r.source.Clusters(ctx)
	if err != nil {
		r.log.Warn("cluster discovery failed", "err", err)
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.Cancelled("registry closed")
	}
	next := make(map[domain.ClusterID]*entry, len(clusters))
	changed := len(clusters) != len(r.entries)
	for _, c := range clusters {
		prev, ok := r.entries[c.ID]
		switch {
		case !ok:
			changed = true
			next[c.ID] = &entry{cluster: c}
		case prev.cluster != c:
			changed = true
			e := &entry{cluster: c}
			if prev.cluster.Server == c.Server && prev.cluster.ProxyURL == c.ProxyURL {
				e.client, e.loadedAt = prev.client, prev.loadedAt
			}
			next[c.ID] = e
		default:
			next[c.ID] = prev
		}
	}
	r.entries = next
	if changed {
		r.listeners.Publish(Message{Kind: ClustersChanged})
	}
	r.mu.Unlock()

	if changed {
		r.log.Info("clusters changed", "count", len(clusters))
	}
	return nil
}

// LoadClient acquires a fresh client for id. Concurrent calls for the same id
// share one load. On failure the previous client, if any, is kept.
func (r *Registry) LoadClient(ctx context.Context, id domain.ClusterID) error {
	_, err := r.load(ctx, id)
	return err
}

// Client returns the loaded client for id, loading it first if needed.
func (r *Registry) Client(ctx context.Context, id domain.ClusterID) (domain.NodeGateway, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	var client domain.NodeGateway
	if ok {
		client = e.client
	}
	r.mu.RUnlock()
	if !ok {
		return nil, domain.UnknownCluster(id)
	}
	if client != nil {
		return client, nil
	}
	return r.load(ctx, id)
}

// Prefetch loads the client for id in the background if none is loaded yet.
func (r *Registry) Prefetch(id domain.ClusterID) {
	r.exec.Go(func() {
		if _, err := r.Client(r.ctx, id); err != nil && !domain.IsCancelled(err) {
			r.log.Debug("prefetch failed", "cluster", id, "err", err)
		}
	})
}

// maxLoadAttempts bounds retries when Reload changes a cluster's server
// while its client is being built.
const maxLoadAttempts = 3

var errStaleLoad = errors.New("cluster changed during client load")

func (r *Registry) load(ctx context.Context, id domain.ClusterID) (domain.NodeGateway, error) {
	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.Cancelled(err.Error())
		}
		r.mu.RLock()
		closed := r.closed
		e, ok := r.entries[id]
		var cluster domain.Cluster
		if ok {
			cluster = e.cluster
		}
		r.mu.RUnlock()
		if closed {
			return nil, domain.Cancelled("registry closed")
		}
		if !ok {
			return nil, domain.UnknownCluster(id)
		}

		v, err, shared := r.loads.Do(string(id), func() (any, error) {
			return r.doLoad(cluster)
		})
		if shared {
			r.log.Debug("joined in-flight client load", "cluster", id)
		}
		if errors.Is(err, errStaleLoad) {
			r.log.Debug("discarding client built for a replaced cluster", "cluster", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		return v.(domain.NodeGateway), nil
	}
	return nil, domain.Cancelled(errStaleLoad.Error())
}

// doLoad runs under the registry context so one caller giving up does not
// cancel the load for the others sharing it.
func (r *Registry) doLoad(cluster domain.Cluster) (domain.NodeGateway, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	start := time.Now()
	client, err := r.buildClient(ctx, cluster)
	if err != nil {
		if r.ctx.Err() != nil {
			return nil, domain.Cancelled("registry closed")
		}
		loadErr := domain.ClientLoadError(cluster.ID, err)
		r.log.Warn("client load failed", "cluster", cluster.ID, "err", err)
		r.listeners.Publish(Message{Kind: ClientLoadFailed, ClusterID: cluster.ID, Err: loadErr})
		return nil, loadErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[cluster.ID]
	switch {
	case r.closed:
		return nil, domain.Cancelled("registry closed")
	case !ok:
		return nil, domain.UnknownCluster(cluster.ID)
	case e.cluster.Server != cluster.Server || e.cluster.ProxyURL != cluster.ProxyURL:
		return nil, errStaleLoad
	}
	e.client = client
	e.loadedAt = time.Now()

	r.log.Info("client loaded", "cluster", cluster.ID, "took", time.Since(start).Round(time.Millisecond))
	r.listeners.Publish(Message{Kind: ClientLoaded, ClusterID: cluster.ID})
	return client, nil
}

// buildClient calls the loader and the client wrapper, turning a panic in
// either into an error.
func (r *Registry) buildClient(ctx context.Context, cluster domain.Cluster) (client domain.NodeGateway, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("client loader panicked", "cluster", cluster.ID, "panic", p)
			client, err = nil, fmt.Errorf("client loader panicked: %v", p)
		}
	}()
	client, err = r.loader.LoadClient(ctx, cluster)
	if err != nil {
		return nil, err
	}
	if r.wrap != nil {
		client = r.wrap(client)
	}
	return client, nil
}

// Close cancels in-flight loads and stops listener delivery.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.listeners.Close()
}
