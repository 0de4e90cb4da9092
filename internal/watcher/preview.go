package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/Taishi66/kview/internal/domain"
)

var previewCreated = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// PreviewNodes returns the fixed placeholder nodes shown before real data.
func PreviewNodes() []domain.NodeInfo {
	roles := [][]string{{"control-plane"}, {"worker"}, {"worker"}}
	nodes := make([]domain.NodeInfo, 0, len(roles))
	for i, r := range roles {
		name := fmt.Sprintf("preview-node-%d", i+1)
		nodes = append(nodes, domain.NodeInfo{
			Name:             name,
			Status:           "Ready",
			Roles:            r,
			Labels:           map[string]string{"kubernetes.io/hostname": name},
			Addresses:        []domain.NodeAddress{{Type: "InternalIP", Address: fmt.Sprintf("10.0.0.%d", i+10)}},
			OS:               "linux",
			Arch:             "amd64",
			OSImage:          "Fedora CoreOS",
			KernelVersion:    "6.5.0",
			ContainerRuntime: "cri-o://1.29.1",
			KubeletVersion:   "v1.29.2",
			Conditions:       []domain.NodeCondition{{Type: "Ready", Status: "True", Reason: "KubeletReady"}},
			Age:              "1d",
			CreatedAt:        previewCreated,
		})
	}
	return nodes
}

// previewProvider hands out a gateway serving PreviewNodes for any cluster.
type previewProvider struct{}

func (previewProvider) Client(_ context.Context, id domain.ClusterID) (domain.NodeGateway, error) {
	return previewGateway{id: id}, nil
}

type previewGateway struct {
	id domain.ClusterID
}

func (g previewGateway) GetClusterID() domain.ClusterID { return g.id }
func (g previewGateway) GetServerURL() string           { return "" }

func (g previewGateway) ListNodes(context.Context) (domain.NodeList, error) {
	return domain.NodeList{Items: PreviewNodes()}, nil
}

// WatchNodes offers no stream, so a preview session settles in Idle.
func (g previewGateway) WatchNodes(context.Context, string) (<-chan domain.WatchEvent, error) {
	return nil, nil
}

func (g previewGateway) NodeYAML(_ context.Context, name string) (string, error) {
	return fmt.Sprintf("apiVersion: v1\nkind: Node\nmetadata:\n  name: %s\n", name), nil
}
