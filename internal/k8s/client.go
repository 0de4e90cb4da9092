package k8s

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/Taishi66/kview/internal/domain"
)

// Client wraps the Kubernetes clientset for one cluster.
// It implements domain.NodeGateway.
type Client struct {
	clientset kubernetes.Interface
	clusterID domain.ClusterID
	context   string
	serverURL string
	listLimit int64
}

// Compile-time check that Client implements domain.NodeGateway.
var _ domain.NodeGateway = (*Client)(nil)

func (c *Client) GetClusterID() domain.ClusterID { return c.clusterID }
func (c *Client) GetServerURL() string           { return c.serverURL }

// GetContext returns the kubeconfig context the client was built from.
func (c *Client) GetContext() string { return c.context }

// LoaderOptions tunes the REST clients built by a Loader.
type LoaderOptions struct {
	QPS          float32
	Burst        int
	Timeout      time.Duration
	ListLimit    int64
	VerifyOnLoad bool
}

// Loader builds per-cluster clients from a kubeconfig file.
// It implements domain.ClientLoader.
type Loader struct {
	path string
	opts LoaderOptions
}

var _ domain.ClientLoader = (*Loader)(nil)

// NewLoader returns a Loader reading the kubeconfig at path.
func NewLoader(path string, opts LoaderOptions) *Loader {
	if opts.QPS == 0 {
		opts.QPS = 50
	}
	if opts.Burst == 0 {
		opts.Burst = 100
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ListLimit == 0 {
		opts.ListLimit = 500
	}
	return &Loader{path: path, opts: opts}
}

// LoadClient builds a clientset for cluster using the first kubeconfig
// context that points at it, preferring the current context.
func (l *Loader) LoadClient(ctx context.Context, cluster domain.Cluster) (domain.NodeGateway, error) {
	rawConfig, err := loadRawConfig(l.path)
	if err != nil {
		return nil, err
	}

	contextName := contextForCluster(rawConfig, string(cluster.ID))
	if contextName == "" {
		return nil, &domain.APIError{
			Type:    domain.ErrNoContext,
			Message: fmt.Sprintf("no kubeconfig context uses cluster %q", cluster.ID),
		}
	}

	clientConfig := clientcmd.NewNonInteractiveClientConfig(*rawConfig, contextName, &clientcmd.ConfigOverrides{}, nil)
	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, &domain.APIError{
			Type:    domain.ErrBadKubeconfig,
			Message: fmt.Sprintf("cannot build client config for context %q: %v", contextName, err),
			Err:     err,
		}
	}

	restConfig.QPS = l.opts.QPS
	restConfig.Burst = l.opts.Burst
	restConfig.Timeout = l.opts.Timeout

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, &domain.APIError{
			Type:    domain.ErrUnknown,
			Message: fmt.Sprintf("cannot create Kubernetes client: %v", err),
			Err:     err,
		}
	}

	c := &Client{
		clientset: clientset,
		clusterID: cluster.ID,
		context:   contextName,
		serverURL: restConfig.Host,
		listLimit: l.opts.ListLimit,
	}
	if l.opts.VerifyOnLoad {
		if err := c.TestConnection(ctx); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// TestConnection makes a lightweight API call to verify connectivity.
func (c *Client) TestConnection(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		_, err := c.clientset.Discovery().ServerVersion()
		done <- err
	}()
	select {
	case err := <-done:
		return classifyError(err, c.serverURL)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classifyError converts a raw K8s error into a domain.APIError.
func classifyError(err error, serverURL string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var statusErr *k8serrors.StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.Status().Code
		switch {
		case code == http.StatusUnauthorized:
			loginHint := "refresh your credentials"
			if serverURL != "" {
				loginHint = fmt.Sprintf("refresh your credentials for %s", serverURL)
			}
			return &domain.APIError{
				Type:    domain.ErrTokenExpired,
				Message: fmt.Sprintf("Session expired: %s, then reload the cluster", loginHint),
				Err:     err,
			}
		case code == http.StatusForbidden:
			return &domain.APIError{
				Type:    domain.ErrForbidden,
				Message: statusErr.Status().Message,
				Err:     err,
			}
		case code == http.StatusNotFound:
			return &domain.APIError{
				Type:    domain.ErrNotFound,
				Message: statusErr.Status().Message,
				Err:     err,
			}
		case code == http.StatusConflict:
			return &domain.APIError{
				Type:    domain.ErrConflict,
				Message: "Conflict: the resource was modified. Retry.",
				Err:     err,
			}
		case code == http.StatusTooManyRequests:
			return &domain.APIError{
				Type:    domain.ErrRateLimited,
				Message: "Too many requests, backing off.",
				Err:     err,
			}
		case code >= 500:
			return &domain.APIError{
				Type:    domain.ErrServerError,
				Message: fmt.Sprintf("Server error (%d). Retry with refresh.", code),
				Err:     err,
			}
		}
	}

	errStr := err.Error()
	if strings.Contains(errStr, "x509") || strings.Contains(errStr, "certificate") || strings.Contains(errStr, "tls") {
		return &domain.APIError{
			Type:    domain.ErrTLS,
			Message: fmt.Sprintf("Invalid TLS certificate for %s. Check your kubeconfig.", serverURL),
			Err:     err,
		}
	}

	if strings.Contains(errStr, "dial tcp") || strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return &domain.APIError{
			Type:    domain.ErrUnreachable,
			Message: fmt.Sprintf("Cluster unreachable: %s\n%v", serverURL, err),
			Err:     err,
		}
	}

	return &domain.APIError{
		Type:    domain.ErrUnknown,
		Message: err.Error(),
		Err:     err,
	}
}
