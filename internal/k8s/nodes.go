package k8s

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"sigs.k8s.io/yaml"

	"github.com/Taishi66/kview/internal/domain"
)

const roleLabelPrefix = "node-role.kubernetes.io/"

// ListNodes lists all nodes, following continue tokens page by page.
func (c *Client) ListNodes(ctx context.Context) (domain.NodeList, error) {
	opts := metav1.ListOptions{Limit: c.listLimit}
	var result domain.NodeList
	for {
		nodeList, err := c.clientset.CoreV1().Nodes().List(ctx, opts)
		if err != nil {
			return domain.NodeList{}, classifyError(err, c.serverURL)
		}
		if result.Items == nil {
			result.Items = make([]domain.NodeInfo, 0, len(nodeList.Items))
		}
		for _, node := range nodeList.Items {
			result.Items = append(result.Items, nodeToNodeInfo(node))
		}
		result.ResourceVersion = nodeList.ResourceVersion
		if nodeList.Continue == "" {
			return result, nil
		}
		opts.Continue = nodeList.Continue
	}
}

func (c *Client) WatchNodes(ctx context.Context, resourceVersion string) (<-chan domain.WatchEvent, error) {
	watcher, err := c.clientset.CoreV1().Nodes().Watch(ctx, metav1.ListOptions{
		ResourceVersion:     resourceVersion,
		AllowWatchBookmarks: true,
	})
	if err != nil {
		return nil, classifyError(err, c.serverURL)
	}
	ch := make(chan domain.WatchEvent)
	go func() {
		defer close(ch)
		defer watcher.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.ResultChan():
				if !ok {
					return
				}
				evt, ok := c.toWatchEvent(event)
				if !ok {
					continue
				}
				select {
				case ch <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func (c *Client) toWatchEvent(event watch.Event) (domain.WatchEvent, bool) {
	switch event.Type {
	case watch.Bookmark:
		return domain.WatchEvent{Type: domain.EventBookmark}, true
	case watch.Error:
		err := k8serrors.FromObject(event.Object)
		return domain.WatchEvent{Type: domain.EventError, Err: classifyError(err, c.serverURL)}, true
	}
	node, ok := event.Object.(*corev1.Node)
	if !ok {
		return domain.WatchEvent{}, false
	}
	info := nodeToNodeInfo(*node)
	return domain.WatchEvent{Type: domain.WatchEventType(string(event.Type)), Node: &info}, true
}

// NodeYAML returns the node manifest without managed fields.
func (c *Client) NodeYAML(ctx context.Context, name string) (string, error) {
	node, err := c.clientset.CoreV1().Nodes().Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return "", classifyError(err, c.serverURL)
	}
	node.ManagedFields = nil
	data, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nodeToNodeInfo(node corev1.Node) domain.NodeInfo {
	info := domain.NodeInfo{
		Name:        node.Name,
		Status:      nodeStatus(node),
		Roles:       nodeRoles(node.Labels),
		Labels:      node.Labels,
		Annotations: node.Annotations,
		Age:         formatAge(node.CreationTimestamp.Time),
		CreatedAt:   node.CreationTimestamp.Time,
	}

	for _, t := range node.Spec.Taints {
		taint := domain.Taint{Key: t.Key, Value: t.Value, Effect: string(t.Effect)}
		if t.TimeAdded != nil {
			added := t.TimeAdded.Time
			taint.TimeAdded = &added
		}
		info.Taints = append(info.Taints, taint)
	}
	for _, a := range node.Status.Addresses {
		info.Addresses = append(info.Addresses, domain.NodeAddress{Type: string(a.Type), Address: a.Address})
	}
	for _, cond := range node.Status.Conditions {
		info.Conditions = append(info.Conditions, domain.NodeCondition{
			Type:    string(cond.Type),
			Status:  string(cond.Status),
			Reason:  cond.Reason,
			Message: cond.Message,
		})
	}

	ni := node.Status.NodeInfo
	info.OS = ni.OperatingSystem
	info.Arch = ni.Architecture
	info.OSImage = ni.OSImage
	info.KernelVersion = ni.KernelVersion
	info.ContainerRuntime = ni.ContainerRuntimeVersion
	info.KubeletVersion = ni.KubeletVersion
	return info
}

func nodeStatus(node corev1.Node) string {
	status := "Unknown"
	for _, cond := range node.Status.Conditions {
		if cond.Type != corev1.NodeReady {
			continue
		}
		switch cond.Status {
		case corev1.ConditionTrue:
			status = "Ready"
		case corev1.ConditionFalse:
			status = "NotReady"
		}
	}
	if node.Spec.Unschedulable {
		status += ",SchedulingDisabled"
	}
	return status
}

func nodeRoles(labels map[string]string) []string {
	var roles []string
	for k := range labels {
		if role, ok := strings.CutPrefix(k, roleLabelPrefix); ok && role != "" {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days > 365 {
			return fmt.Sprintf("%dy%dd", days/365, days%365)
		}
		return fmt.Sprintf("%dd", days)
	}
}
