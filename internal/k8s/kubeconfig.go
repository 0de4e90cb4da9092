package k8s

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"

	"github.com/Taishi66/kview/internal/domain"
)

// DefaultKubeconfigPath returns $KUBECONFIG (first entry) or ~/.kube/config.
func DefaultKubeconfigPath() string {
	if env := os.Getenv("KUBECONFIG"); env != "" {
		for _, p := range filepath.SplitList(env) {
			if p != "" {
				return p
			}
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kube", "config")
}

// KubeconfigSource lists the clusters declared in a kubeconfig file.
// It implements domain.ClusterSource.
type KubeconfigSource struct {
	path string

	mu      sync.Mutex
	modTime time.Time
}

var _ domain.ClusterSource = (*KubeconfigSource)(nil)

// NewKubeconfigSource returns a source for the kubeconfig at path.
func NewKubeconfigSource(path string) *KubeconfigSource {
	return &KubeconfigSource{path: path}
}

// Path returns the kubeconfig path backing the source.
func (s *KubeconfigSource) Path() string { return s.path }

// Clusters returns every named cluster, sorted by name.
func (s *KubeconfigSource) Clusters(_ context.Context) ([]domain.Cluster, error) {
	rawConfig, err := loadRawConfig(s.path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if info, statErr := os.Stat(s.path); statErr == nil {
		s.modTime = info.ModTime()
	}
	s.mu.Unlock()
	return clustersFromConfig(rawConfig), nil
}

// Changed reports whether the kubeconfig was modified since the last
// successful Clusters call. A file that disappeared counts as changed.
func (s *KubeconfigSource) Changed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := os.Stat(s.path)
	if err != nil {
		return !s.modTime.IsZero()
	}
	return !info.ModTime().Equal(s.modTime)
}

func loadRawConfig(path string) (*clientcmdapi.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &domain.APIError{
			Type:    domain.ErrNoKubeconfig,
			Message: fmt.Sprintf("No kubeconfig found.\nConfigure cluster access first.\n\nLooked in: %s", path),
			Err:     err,
		}
	}
	rawConfig, err := clientcmd.LoadFromFile(path)
	if err != nil {
		return nil, &domain.APIError{
			Type:    domain.ErrBadKubeconfig,
			Message: fmt.Sprintf("Invalid kubeconfig: %v", err),
			Err:     err,
		}
	}
	return rawConfig, nil
}

func clustersFromConfig(cfg *clientcmdapi.Config) []domain.Cluster {
	clusters := make([]domain.Cluster, 0, len(cfg.Clusters))
	for name, c := range cfg.Clusters {
		if c == nil {
			continue
		}
		clusters = append(clusters, domain.Cluster{
			ID:       domain.ClusterID(name),
			Server:   c.Server,
			ProxyURL: c.ProxyURL,
		})
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].ID < clusters[j].ID
	})
	return clusters
}

// contextForCluster picks the context to use for a cluster: the current
// context if it points at the cluster, otherwise the first matching context
// by name.
func contextForCluster(cfg *clientcmdapi.Config, cluster string) string {
	if cur, ok := cfg.Contexts[cfg.CurrentContext]; ok && cur != nil && cur.Cluster == cluster {
		return cfg.CurrentContext
	}
	names := make([]string, 0, len(cfg.Contexts))
	for name, c := range cfg.Contexts {
		if c != nil && c.Cluster == cluster {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}

// CurrentCluster returns the cluster referenced by the current context, if any.
func CurrentCluster(path string) (domain.ClusterID, bool) {
	rawConfig, err := loadRawConfig(path)
	if err != nil {
		return "", false
	}
	cur, ok := rawConfig.Contexts[rawConfig.CurrentContext]
	if !ok || cur == nil || cur.Cluster == "" {
		return "", false
	}
	return domain.ClusterID(cur.Cluster), true
}
