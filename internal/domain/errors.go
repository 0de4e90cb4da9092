package domain

import (
	"errors"
	"fmt"
)

// ErrType classifies errors so callers can pick the right reaction.
type ErrType int

const (
	ErrUnknown       ErrType = iota
	ErrNoKubeconfig          // kubeconfig file not found
	ErrBadKubeconfig         // kubeconfig is malformed
	ErrNoContext             // no context references the cluster
	ErrUnreachable           // cluster not reachable (timeout/DNS)
	ErrTokenExpired          // 401 Unauthorized
	ErrForbidden             // 403 Forbidden
	ErrNotFound              // 404 Not Found
	ErrConflict              // 409 Conflict
	ErrRateLimited           // 429 Too Many Requests
	ErrServerError           // 500+
	ErrTLS                   // TLS/cert error

	ErrClientLoad        // client capability could not be acquired
	ErrWatch             // fetch or watch stream failed
	ErrInvalidSelection  // setter given an id absent from the catalog
	ErrSerialization     // malformed cross-boundary payload
	ErrCancelled         // superseded, stopped or window closed
	ErrWindowClosed      // mutation attempted after window teardown
	ErrUnknownCluster    // cluster id not present in the registry
	ErrInvalidHandle     // stale or freed boundary handle
)

var errTypeNames = map[ErrType]string{
	ErrUnknown:          "unknown",
	ErrNoKubeconfig:     "no_kubeconfig",
	ErrBadKubeconfig:    "bad_kubeconfig",
	ErrNoContext:        "no_context",
	ErrUnreachable:      "unreachable",
	ErrTokenExpired:     "token_expired",
	ErrForbidden:        "forbidden",
	ErrNotFound:         "not_found",
	ErrConflict:         "conflict",
	ErrRateLimited:      "rate_limited",
	ErrServerError:      "server_error",
	ErrTLS:              "tls",
	ErrClientLoad:       "client_load",
	ErrWatch:            "watch",
	ErrInvalidSelection: "invalid_selection",
	ErrSerialization:    "serialization",
	ErrCancelled:        "cancelled",
	ErrWindowClosed:     "window_closed",
	ErrUnknownCluster:   "unknown_cluster",
	ErrInvalidHandle:    "invalid_handle",
}

func (t ErrType) String() string {
	if s, ok := errTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ErrType(%d)", int(t))
}

// APIError wraps an error with classification.
type APIError struct {
	Type    ErrType
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// TypeOf returns the classification of the outermost APIError in err's chain.
func TypeOf(err error) ErrType {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrUnknown
}

// IsCancelled reports whether err signals supersession or teardown rather
// than a failure.
func IsCancelled(err error) bool {
	return TypeOf(err) == ErrCancelled
}

// ClientLoadError reports that no client could be built for a cluster.
func ClientLoadError(cluster ClusterID, err error) error {
	return &APIError{
		Type:    ErrClientLoad,
		Message: fmt.Sprintf("load client for cluster %q: %v", cluster, err),
		Err:     err,
	}
}

// WatchError reports a failed list or an interrupted watch stream.
func WatchError(cluster ClusterID, err error) error {
	return &APIError{
		Type:    ErrWatch,
		Message: fmt.Sprintf("watch nodes on cluster %q: %v", cluster, err),
		Err:     err,
	}
}

// InvalidSelection reports a setter called with an unknown id.
func InvalidSelection(kind, id string) error {
	return &APIError{
		Type:    ErrInvalidSelection,
		Message: fmt.Sprintf("unknown %s %q", kind, id),
	}
}

// SerializationError reports a malformed payload.
func SerializationError(err error) error {
	return &APIError{
		Type:    ErrSerialization,
		Message: fmt.Sprintf("malformed payload: %v", err),
		Err:     err,
	}
}

// Cancelled reports an operation that will not complete with data.
func Cancelled(reason string) error {
	return &APIError{
		Type:    ErrCancelled,
		Message: "cancelled: " + reason,
	}
}

// UnknownCluster reports a cluster id the registry has never discovered.
func UnknownCluster(cluster ClusterID) error {
	return &APIError{
		Type:    ErrUnknownCluster,
		Message: fmt.Sprintf("unknown cluster %q", cluster),
	}
}

// ErrClosed is returned by mutating calls made after window teardown.
var ErrClosed = &APIError{Type: ErrWindowClosed, Message: "window closed"}
