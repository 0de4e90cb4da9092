package domain

import "context"

// ClusterInfo provides metadata about a cluster connection.
type ClusterInfo interface {
	GetClusterID() ClusterID
	GetServerURL() string
}

// NodeRepository provides access to node operations.
type NodeRepository interface {
	ListNodes(ctx context.Context) (NodeList, error)
	// WatchNodes streams changes after resourceVersion. The channel is closed
	// when the stream ends or ctx is done.
	WatchNodes(ctx context.Context, resourceVersion string) (<-chan WatchEvent, error)
	NodeYAML(ctx context.Context, name string) (string, error)
}

// NodeGateway is the client capability held per cluster.
// Core components depend on this interface, not on client-go.
type NodeGateway interface {
	ClusterInfo
	NodeRepository
}

// ClientLoader builds a client capability for a discovered cluster.
type ClientLoader interface {
	LoadClient(ctx context.Context, cluster Cluster) (NodeGateway, error)
}

// ClientLoaderFunc adapts a function to ClientLoader.
type ClientLoaderFunc func(ctx context.Context, cluster Cluster) (NodeGateway, error)

func (f ClientLoaderFunc) LoadClient(ctx context.Context, cluster Cluster) (NodeGateway, error) {
	return f(ctx, cluster)
}

// ClusterSource discovers the clusters known to the user.
type ClusterSource interface {
	Clusters(ctx context.Context) ([]Cluster, error)
}

// ClusterSourceFunc adapts a function to ClusterSource.
type ClusterSourceFunc func(ctx context.Context) ([]Cluster, error)

func (f ClusterSourceFunc) Clusters(ctx context.Context) ([]Cluster, error) {
	return f(ctx)
}

// ClientProvider hands out the client for a cluster, loading it on demand.
type ClientProvider interface {
	Client(ctx context.Context, id ClusterID) (NodeGateway, error)
}
