package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Taishi66/kview/internal/domain"
)

type cacheEntry[T any] struct {
	data      T
	expiresAt time.Time
}

func (e *cacheEntry[T]) valid() bool {
	return time.Now().Before(e.expiresAt)
}

// Invalidator is implemented by gateways that hold cached data.
type Invalidator interface {
	Invalidate()
}

// CachedGateway decorates a NodeGateway with TTL-based caching for list operations.
type CachedGateway struct {
	delegate domain.NodeGateway
	ttl      time.Duration
	mu       sync.RWMutex

	nodes *cacheEntry[domain.NodeList]
}

var (
	_ domain.NodeGateway = (*CachedGateway)(nil)
	_ Invalidator        = (*CachedGateway)(nil)
)

// NewCachedGateway wraps delegate. A non-positive ttl disables caching and
// returns delegate unchanged.
func NewCachedGateway(delegate domain.NodeGateway, ttl time.Duration) domain.NodeGateway {
	if ttl <= 0 {
		return delegate
	}
	return &CachedGateway{
		delegate: delegate,
		ttl:      ttl,
	}
}

// Invalidate drops every cached entry.
func (c *CachedGateway) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nodes = nil
}

// Unwrap returns the decorated gateway.
func (c *CachedGateway) Unwrap() domain.NodeGateway { return c.delegate }

// --- ClusterInfo (pass-through) ---

func (c *CachedGateway) GetClusterID() domain.ClusterID { return c.delegate.GetClusterID() }
func (c *CachedGateway) GetServerURL() string           { return c.delegate.GetServerURL() }

// --- Cached List operations ---

func (c *CachedGateway) ListNodes(ctx context.Context) (domain.NodeList, error) {
	c.mu.RLock()
	if c.nodes != nil && c.nodes.valid() {
		data := c.nodes.data
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	result, err := c.delegate.ListNodes(ctx)
	if err != nil {
		return domain.NodeList{}, err
	}

	c.mu.Lock()
	c.nodes = &cacheEntry[domain.NodeList]{
		data:      result,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
	return result, nil
}

// --- Pass-through (no caching) ---

func (c *CachedGateway) WatchNodes(ctx context.Context, resourceVersion string) (<-chan domain.WatchEvent, error) {
	return c.delegate.WatchNodes(ctx, resourceVersion)
}

func (c *CachedGateway) NodeYAML(ctx context.Context, name string) (string, error) {
	return c.delegate.NodeYAML(ctx, name)
}

// Invalidate drops cached data held by gw, if any.
func Invalidate(gw domain.NodeGateway) {
	if inv, ok := gw.(Invalidator); ok {
		inv.Invalidate()
	}
}
