package watcher

import (
	"fmt"

	"github.com/Taishi66/kview/internal/domain"
)

// State is the lifecycle state of a watch session.
type State int

const (
	Idle State = iota
	Fetching
	Watching
	Stopped
	Failed
)

var stateNames = map[State]string{
	Idle:     "idle",
	Fetching: "fetching",
	Watching: "watching",
	Stopped:  "stopped",
	Failed:   "failed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for st, n := range stateNames {
		if n == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown watcher state %q", b)
}

// Status describes the current session. Err is set only when State is Failed.
type Status struct {
	State     State            `json:"state"`
	ClusterID domain.ClusterID `json:"cluster_id,omitempty"`
	Err       error            `json:"-"`
}

// Reason returns the failure message, or "".
func (s Status) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

// MessageKind tells listeners what changed.
type MessageKind int

const (
	// ClientLoaded: a client for the session's cluster is available.
	ClientLoaded MessageKind = iota
	// NodesLoaded: a full list replaced the cluster's snapshot.
	NodesLoaded
	// NodesUpdated: a watch event patched the snapshot.
	NodesUpdated
	// StatusChanged: the session moved to a new State.
	StatusChanged
	// LoadFailed: a client load, list or watch failed; Err says why.
	LoadFailed
)

func (k MessageKind) String() string {
	switch k {
	case ClientLoaded:
		return "client_loaded"
	case NodesLoaded:
		return "nodes_loaded"
	case NodesUpdated:
		return "nodes_updated"
	case StatusChanged:
		return "status_changed"
	case LoadFailed:
		return "load_failed"
	}
	return fmt.Sprintf("MessageKind(%d)", int(k))
}

// Message is delivered to watcher listeners.
type Message struct {
	Kind      MessageKind
	ClusterID domain.ClusterID
	Status    Status
	Err       error
}
