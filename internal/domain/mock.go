package domain

import (
	"context"
	"sync"
)

// MockGateway implements NodeGateway for testing.
type MockGateway struct {
	mu sync.Mutex

	ClusterIDVal ClusterID
	ServerURLVal string

	Nodes           []NodeInfo
	ResourceVersion string
	YAMLContent     string

	// ListNodesFunc overrides Nodes/ListNodesErr when set.
	ListNodesFunc func(ctx context.Context) (NodeList, error)

	// Error injection
	ListNodesErr  error
	WatchNodesErr error
	NodeYAMLErr   error

	// Watch: nil channel means the gateway offers no stream.
	WatchNodesCh chan WatchEvent

	// Call tracking
	ListNodesCalls  int
	WatchNodesCalls int
	WatchedFrom     string
}

// Compile-time check.
var _ NodeGateway = (*MockGateway)(nil)

func (m *MockGateway) GetClusterID() ClusterID { return m.ClusterIDVal }
func (m *MockGateway) GetServerURL() string    { return m.ServerURLVal }

func (m *MockGateway) ListNodes(ctx context.Context) (NodeList, error) {
	m.mu.Lock()
	m.ListNodesCalls++
	fn := m.ListNodesFunc
	err := m.ListNodesErr
	nodes := append([]NodeInfo(nil), m.Nodes...)
	rv := m.ResourceVersion
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	if err != nil {
		return NodeList{}, err
	}
	return NodeList{Items: nodes, ResourceVersion: rv}, nil
}

func (m *MockGateway) WatchNodes(_ context.Context, resourceVersion string) (<-chan WatchEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WatchNodesCalls++
	m.WatchedFrom = resourceVersion
	if m.WatchNodesErr != nil {
		return nil, m.WatchNodesErr
	}
	if m.WatchNodesCh == nil {
		return nil, nil
	}
	return m.WatchNodesCh, nil
}

func (m *MockGateway) NodeYAML(_ context.Context, _ string) (string, error) {
	if m.NodeYAMLErr != nil {
		return "", m.NodeYAMLErr
	}
	return m.YAMLContent, nil
}

// SetNodes replaces the nodes returned by subsequent ListNodes calls.
func (m *MockGateway) SetNodes(nodes []NodeInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Nodes = nodes
}

// SetListNodesErr replaces the error returned by subsequent ListNodes calls.
func (m *MockGateway) SetListNodesErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListNodesErr = err
}

// Calls returns the number of ListNodes calls so far.
func (m *MockGateway) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ListNodesCalls
}

// MockLoader implements ClientLoader for testing.
type MockLoader struct {
	mu sync.Mutex

	Gateways map[ClusterID]NodeGateway
	Errs     map[ClusterID]error

	// Gate, when set, blocks every load until it is closed.
	Gate chan struct{}

	LoadCalls map[ClusterID]int
}

var _ ClientLoader = (*MockLoader)(nil)

func (m *MockLoader) LoadClient(ctx context.Context, cluster Cluster) (NodeGateway, error) {
	m.mu.Lock()
	if m.LoadCalls == nil {
		m.LoadCalls = make(map[ClusterID]int)
	}
	m.LoadCalls[cluster.ID]++
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Errs[cluster.ID]; err != nil {
		return nil, err
	}
	if gw, ok := m.Gateways[cluster.ID]; ok {
		return gw, nil
	}
	return &MockGateway{ClusterIDVal: cluster.ID, ServerURLVal: cluster.Server}, nil
}

// SetErr sets or clears the load error for a cluster.
func (m *MockLoader) SetErr(id ClusterID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Errs == nil {
		m.Errs = make(map[ClusterID]error)
	}
	m.Errs[id] = err
}

// Calls returns how many loads were started for a cluster.
func (m *MockLoader) Calls(id ClusterID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LoadCalls[id]
}

// StaticSource is a ClusterSource returning a fixed cluster list.
type StaticSource struct {
	mu       sync.Mutex
	clusters []Cluster
	err      error
}

var _ ClusterSource = (*StaticSource)(nil)

// NewStaticSource returns a source listing the given clusters.
func NewStaticSource(clusters ...Cluster) *StaticSource {
	return &StaticSource{clusters: clusters}
}

func (s *StaticSource) Clusters(_ context.Context) ([]Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]Cluster(nil), s.clusters...), nil
}

// Set replaces the listed clusters.
func (s *StaticSource) Set(clusters ...Cluster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters = clusters
}

// SetErr makes subsequent Clusters calls fail.
func (s *StaticSource) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
