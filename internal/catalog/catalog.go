// Package catalog defines the sidebar tabs and tab groups shown in a window.
package catalog

import "strings"

// TabID identifies a tab.
type TabID string

const (
	TabCluster                  TabID = "cluster"
	TabNodes                    TabID = "nodes"
	TabNamespaces               TabID = "namespaces"
	TabEvents                   TabID = "events"
	TabOverview                 TabID = "overview"
	TabPods                     TabID = "pods"
	TabDeployments              TabID = "deployments"
	TabDaemonSets               TabID = "daemon_sets"
	TabStatefulSets             TabID = "stateful_sets"
	TabReplicaSets              TabID = "replica_sets"
	TabJobs                     TabID = "jobs"
	TabCronJobs                 TabID = "cron_jobs"
	TabConfigMaps               TabID = "config_maps"
	TabSecrets                  TabID = "secrets"
	TabResourceQuotas           TabID = "resource_quotas"
	TabLimitRanges              TabID = "limit_ranges"
	TabHorizontalPodAutoscalers TabID = "horizontal_pod_autoscalers"
	TabPodDisruptionBudgets     TabID = "pod_disruption_budgets"
	TabPriorityClasses          TabID = "priority_classes"
	TabRuntimeClasses           TabID = "runtime_classes"
	TabLeases                   TabID = "leases"
	TabServices                 TabID = "services"
	TabEndpoints                TabID = "endpoints"
	TabIngresses                TabID = "ingresses"
	TabNetworkPolicies          TabID = "network_policies"
	TabPortForwarding           TabID = "port_forwarding"
	TabPersistentVolumeClaims   TabID = "persistent_volume_claims"
	TabPersistentVolumes        TabID = "persistent_volumes"
	TabStorageClasses           TabID = "storage_classes"
	TabServiceAccounts          TabID = "service_accounts"
	TabClusterRoles             TabID = "cluster_roles"
	TabRoles                    TabID = "roles"
	TabClusterRoleBindings      TabID = "cluster_role_bindings"
	TabRoleBindings             TabID = "role_bindings"
	TabPodSecurityPolicies      TabID = "pod_security_policies"
)

// GroupID identifies a tab group.
type GroupID string

const (
	GroupGeneral       GroupID = "general"
	GroupWorkloads     GroupID = "workloads"
	GroupConfig        GroupID = "config"
	GroupNetwork       GroupID = "network"
	GroupStorage       GroupID = "storage"
	GroupAccessControl GroupID = "access_control"
)

// Tab is one sidebar entry.
type Tab struct {
	ID      TabID   `json:"id"`
	GroupID GroupID `json:"group_id"`
	Label   string  `json:"label"`
	Icon    string  `json:"icon,omitempty"`
}

// TabGroup is a named, collapsible run of tabs.
type TabGroup struct {
	ID   GroupID `json:"id"`
	Name string  `json:"name"`
	Tabs []Tab   `json:"tabs"`
}

// Source provides the catalog for a window. Implementations may be static
// or derived from the cluster; callers must not mutate the result.
type Source interface {
	TabGroups() []TabGroup
}

// Static is a fixed catalog.
type Static []TabGroup

var _ Source = Static(nil)

// TabGroups returns a copy of the catalog.
func (s Static) TabGroups() []TabGroup {
	return Clone(s)
}

// Clone deep-copies groups.
func Clone(groups []TabGroup) []TabGroup {
	out := make([]TabGroup, len(groups))
	for i, g := range groups {
		out[i] = g
		out[i].Tabs = append([]Tab(nil), g.Tabs...)
	}
	return out
}

func group(id GroupID, name, icon string, tabs ...tabDef) TabGroup {
	g := TabGroup{ID: id, Name: name, Tabs: make([]Tab, 0, len(tabs))}
	for _, t := range tabs {
		ic := t.icon
		if ic == "" {
			ic = icon
		}
		g.Tabs = append(g.Tabs, Tab{ID: t.id, GroupID: id, Label: t.label, Icon: ic})
	}
	return g
}

type tabDef struct {
	id    TabID
	label string
	icon  string
}

// Default returns the built-in catalog.
func Default() Static {
	return Static{
		group(GroupGeneral, "General", "",
			tabDef{TabCluster, "Cluster", "helm"},
			tabDef{TabNodes, "Nodes", "server.rack"},
			tabDef{TabNamespaces, "Namespaces", "list.dash"},
			tabDef{TabEvents, "Events", "clock.arrow.circlepath"},
		),
		group(GroupWorkloads, "Workloads", "circle",
			tabDef{id: TabOverview, label: "Overview"},
			tabDef{id: TabPods, label: "Pods"},
			tabDef{id: TabDeployments, label: "Deployments"},
			tabDef{id: TabDaemonSets, label: "DaemonSets"},
			tabDef{id: TabStatefulSets, label: "StatefulSets"},
			tabDef{id: TabReplicaSets, label: "ReplicaSets"},
			tabDef{id: TabJobs, label: "Jobs"},
			tabDef{id: TabCronJobs, label: "Cron Jobs"},
		),
		group(GroupConfig, "Config", "gear",
			tabDef{id: TabConfigMaps, label: "Config Maps"},
			tabDef{id: TabSecrets, label: "Secrets"},
			tabDef{id: TabResourceQuotas, label: "Resource Quotas"},
			tabDef{id: TabLimitRanges, label: "Limit Ranges"},
			tabDef{id: TabHorizontalPodAutoscalers, label: "HPA"},
			tabDef{id: TabPodDisruptionBudgets, label: "Pod Disruption Budgets"},
			tabDef{id: TabPriorityClasses, label: "Priority Classes"},
			tabDef{id: TabRuntimeClasses, label: "Runtime Classes"},
			tabDef{id: TabLeases, label: "Leases"},
		),
		group(GroupNetwork, "Network", "network",
			tabDef{id: TabServices, label: "Services"},
			tabDef{id: TabEndpoints, label: "Endpoints"},
			tabDef{id: TabIngresses, label: "Ingresses"},
			tabDef{id: TabNetworkPolicies, label: "Network Policies"},
			tabDef{id: TabPortForwarding, label: "Port Forwarding"},
		),
		group(GroupStorage, "Storage", "externaldrive",
			tabDef{id: TabPersistentVolumes, label: "Persistent Volumes"},
			tabDef{id: TabPersistentVolumeClaims, label: "Persistent Volume Claims"},
			tabDef{id: TabStorageClasses, label: "Storage Classes"},
		),
		group(GroupAccessControl, "Access Control", "shield.lefthalf.filled",
			tabDef{id: TabRoles, label: "Roles"},
			tabDef{id: TabRoleBindings, label: "Role Bindings"},
			tabDef{id: TabClusterRoles, label: "Cluster Roles"},
			tabDef{id: TabClusterRoleBindings, label: "Cluster Role Bindings"},
			tabDef{id: TabServiceAccounts, label: "Service Accounts"},
			tabDef{id: TabPodSecurityPolicies, label: "Pod Security Policies"},
		),
	}
}

// Tabs flattens groups in canonical order.
func Tabs(groups []TabGroup) []Tab {
	var tabs []Tab
	for _, g := range groups {
		tabs = append(tabs, g.Tabs...)
	}
	return tabs
}

// TabsMap indexes tabs by id.
func TabsMap(groups []TabGroup) map[TabID]Tab {
	m := make(map[TabID]Tab)
	for _, g := range groups {
		for _, t := range g.Tabs {
			m[t.ID] = t
		}
	}
	return m
}

// Filter keeps the tabs whose label contains search, case-insensitively.
// Groups left without tabs are dropped. An empty search returns groups as is.
func Filter(groups []TabGroup, search string) []TabGroup {
	if search == "" {
		return Clone(groups)
	}
	needle := strings.ToLower(search)
	var out []TabGroup
	for _, g := range groups {
		var tabs []Tab
		for _, t := range g.Tabs {
			if strings.Contains(strings.ToLower(t.Label), needle) {
				tabs = append(tabs, t)
			}
		}
		if len(tabs) == 0 {
			continue
		}
		out = append(out, TabGroup{ID: g.ID, Name: g.Name, Tabs: tabs})
	}
	return out
}

// FindGroup returns the group with id.
func FindGroup(groups []TabGroup, id GroupID) (TabGroup, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return TabGroup{}, false
}

// GroupOf returns the group containing tab.
func GroupOf(groups []TabGroup, tab TabID) (TabGroup, bool) {
	for _, g := range groups {
		for _, t := range g.Tabs {
			if t.ID == tab {
				return g, true
			}
		}
	}
	return TabGroup{}, false
}

// NextGroup returns the group after id. An unknown id counts as the first
// group; the last group has no successor.
func NextGroup(groups []TabGroup, id GroupID) (GroupID, bool) {
	i := groupIndex(groups, id)
	if i+1 >= len(groups) {
		return "", false
	}
	return groups[i+1].ID, true
}

// PreviousGroup returns the group before id. An unknown id counts as the
// first group, which has no predecessor.
func PreviousGroup(groups []TabGroup, id GroupID) (GroupID, bool) {
	i := groupIndex(groups, id)
	if i <= 0 {
		return "", false
	}
	return groups[i-1].ID, true
}

// NextTab returns the tab after id within tabs, same rules as NextGroup.
func NextTab(tabs []Tab, id TabID) (TabID, bool) {
	i := tabIndex(tabs, id)
	if i+1 >= len(tabs) {
		return "", false
	}
	return tabs[i+1].ID, true
}

// PreviousTab returns the tab before id within tabs.
func PreviousTab(tabs []Tab, id TabID) (TabID, bool) {
	i := tabIndex(tabs, id)
	if i <= 0 {
		return "", false
	}
	return tabs[i-1].ID, true
}

func groupIndex(groups []TabGroup, id GroupID) int {
	for i, g := range groups {
		if g.ID == id {
			return i
		}
	}
	return 0
}

func tabIndex(tabs []Tab, id TabID) int {
	for i, t := range tabs {
		if t.ID == id {
			return i
		}
	}
	return 0
}
