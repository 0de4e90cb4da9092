package domain

// WatchEventType mirrors the Kubernetes watch event types.
type WatchEventType string

const (
	EventAdded    WatchEventType = "ADDED"
	EventModified WatchEventType = "MODIFIED"
	EventDeleted  WatchEventType = "DELETED"
	EventBookmark WatchEventType = "BOOKMARK"
	EventError    WatchEventType = "ERROR"
)

// WatchEvent is a single change delivered by a node watch stream.
// Node is nil for BOOKMARK and ERROR events; Err is set for ERROR events.
type WatchEvent struct {
	Type WatchEventType
	Node *NodeInfo
	Err  error
}
