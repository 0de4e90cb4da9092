package domain

import "time"

// ClusterID identifies a cluster by its kubeconfig name.
type ClusterID string

// WindowID identifies the UI window owning a per-window component.
type WindowID string

// Cluster is a named cluster entry discovered from kubeconfig.
type Cluster struct {
	ID       ClusterID `json:"id"`
	Nickname string    `json:"nickname,omitempty"`
	Server   string    `json:"server,omitempty"`
	ProxyURL string    `json:"proxy_url,omitempty"`
}

// ClientStatus describes the outcome of the latest completed client load.
type ClientStatus string

const (
	ClientInitial ClientStatus = "initial"
	ClientLoaded  ClientStatus = "loaded"
)

// ClusterSummary is the read-only view of a registry entry.
type ClusterSummary struct {
	Cluster
	ClientStatus ClientStatus `json:"client_status"`
	LoadedAt     time.Time    `json:"loaded_at,omitempty"`
}

// HasClient reports whether a client capability is available for the cluster.
func (s ClusterSummary) HasClient() bool {
	return s.ClientStatus == ClientLoaded
}

// NodeInfo represents a Kubernetes node for display.
type NodeInfo struct {
	Name             string            `json:"name"`
	Status           string            `json:"status"`
	Roles            []string          `json:"roles,omitempty"`
	Labels           map[string]string `json:"labels,omitempty"`
	Annotations      map[string]string `json:"annotations,omitempty"`
	Taints           []Taint           `json:"taints,omitempty"`
	Addresses        []NodeAddress     `json:"addresses,omitempty"`
	OS               string            `json:"os,omitempty"`
	Arch             string            `json:"arch,omitempty"`
	OSImage          string            `json:"os_image,omitempty"`
	KernelVersion    string            `json:"kernel_version,omitempty"`
	ContainerRuntime string            `json:"container_runtime,omitempty"`
	KubeletVersion   string            `json:"kubelet_version,omitempty"`
	Conditions       []NodeCondition   `json:"conditions,omitempty"`
	Age              string            `json:"age,omitempty"`
	CreatedAt        time.Time         `json:"created_at,omitempty"`
}

// Taint is a node taint.
type Taint struct {
	Key       string     `json:"key"`
	Value     string     `json:"value,omitempty"`
	Effect    string     `json:"effect"`
	TimeAdded *time.Time `json:"time_added,omitempty"`
}

// NodeAddress is one of the addresses reported for a node.
type NodeAddress struct {
	Type    string `json:"type"`
	Address string `json:"address"`
}

// NodeCondition is a node status condition such as Ready or MemoryPressure.
type NodeCondition struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// NodeList is the result of a list call. ResourceVersion lets a watch resume
// from the exact point of the list.
type NodeList struct {
	Items           []NodeInfo
	ResourceVersion string
}

// Snapshot is an ordered, read-only set of nodes for one cluster.
// Callers must not mutate Nodes.
type Snapshot struct {
	ClusterID ClusterID  `json:"cluster_id"`
	Nodes     []NodeInfo `json:"nodes"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// Len returns the number of nodes in the snapshot.
func (s Snapshot) Len() int { return len(s.Nodes) }

// Names returns node names in snapshot order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		names = append(names, n.Name)
	}
	return names
}
