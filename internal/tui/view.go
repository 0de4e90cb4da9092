package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Taishi66/kview/internal/catalog"
	"github.com/Taishi66/kview/internal/config"
	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/interaction"
	"github.com/Taishi66/kview/internal/watcher"
)

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Context bar
	b.WriteString(m.renderContextBar())
	b.WriteString("\n")

	if m.disconnected {
		banner := bannerWarnStyle.Width(m.width).Render("Connection lost, showing cached data. Press 'r' to reconnect")
		b.WriteString(banner)
		b.WriteString("\n")
	}

	contentWidth := max(m.width-sidebarStyle.GetWidth()-2, 20)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Render(m.renderSidebar()),
		" "+m.renderContent(contentWidth),
	)
	b.WriteString(body)
	b.WriteString("\n")

	// Fill remaining space
	lines := strings.Count(b.String(), "\n")
	for i := lines; i < m.height-2; i++ {
		b.WriteString("\n")
	}

	if m.toast.isActive() {
		b.WriteString(m.toast.render())
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) contentHeight() int {
	h := m.height - 6
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) renderContextBar() string {
	title := titleStyle.Render("KVIEW")
	id, ok := m.state.SelectedCluster()
	if !ok {
		return fmt.Sprintf(" %s  cluster:%s", title, "-")
	}
	bar := fmt.Sprintf(" %s  cluster:%s", title, clusterStyle.Render(string(id)))
	if config.IsProdCluster(string(id), m.cfg.ProdPatterns) {
		bar += "  " + bannerProdStyle.Render("PROD")
	}
	return bar
}

func (m Model) renderSidebar() string {
	focus := m.state.CurrentFocusRegion()
	selected := m.state.SelectedTab()
	expanded := m.state.TabGroupExpansions()
	groups := catalog.Filter(m.state.TabGroups(), m.search.Value())

	var b strings.Builder
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	for _, g := range groups {
		marker := "▸"
		if expanded[g.ID] {
			marker = "▾"
		}
		line := fmt.Sprintf("%s %s", marker, g.Name)
		if focus.Kind == interaction.FocusSidebarGroup && focus.GroupID == g.ID {
			line = focusedStyle.Render(line)
		} else {
			line = groupStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
		if !expanded[g.ID] {
			continue
		}
		for _, t := range g.Tabs {
			label := truncate("  "+t.Label, sidebarStyle.GetWidth()-2)
			switch {
			case focus.Kind == interaction.FocusInTabGroup && focus.TabID == t.ID:
				label = focusedStyle.Render(label)
			case t.ID == selected:
				label = selectedStyle.Render(label)
			}
			b.WriteString(label)
			b.WriteString("\n")
		}
	}
	if len(groups) == 0 {
		b.WriteString("  no matching tab\n")
	}

	b.WriteString("\n")
	cluster := "-"
	if id, ok := m.state.SelectedCluster(); ok {
		cluster = string(id)
	}
	line := "⎈ " + truncate(cluster, sidebarStyle.GetWidth()-4)
	if focus.Kind == interaction.FocusClusterSelection {
		line = focusedStyle.Render(line + " ↕")
	}
	b.WriteString(line)
	return b.String()
}

func (m Model) renderContent(width int) string {
	id, ok := m.state.SelectedCluster()
	switch m.state.SelectedTab() {
	case catalog.TabCluster:
		return renderClusterList(m.reg.Clusters(), id, width)
	case catalog.TabNodes:
		if !ok {
			return "  No cluster selected\n"
		}
		st := m.nodes.Status()
		if st.ClusterID == id && st.State == watcher.Fetching && m.nodes.Nodes(id).Len() == 0 {
			return "\n  Loading...\n"
		}
		return renderNodeList(m.nodes.Nodes(id).Nodes, m.cursor, width, m.contentHeight())
	default:
		tab, found := m.state.TabsMap()[m.state.SelectedTab()]
		if !found {
			return ""
		}
		return fmt.Sprintf("\n  %s is not available yet\n", tab.Label)
	}
}

func renderClusterList(clusters []domain.ClusterSummary, selected domain.ClusterID, width int) string {
	if len(clusters) == 0 {
		return "  No cluster in kubeconfig\n"
	}

	var b strings.Builder
	header := fmt.Sprintf("  %-32s %-8s %s", "CLUSTER", "CLIENT", "SERVER")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, c := range clusters {
		line := fmt.Sprintf("  %-32s %-8s %s",
			truncate(string(c.ID), 31),
			string(c.ClientStatus),
			truncate(c.Server, max(width-45, 10)))
		if c.ID == selected {
			b.WriteString(selectedStyle.Width(width).Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderNodeList(nodes []domain.NodeInfo, cursor, width, maxVisible int) string {
	if len(nodes) == 0 {
		return "  No nodes in this cluster\n"
	}

	var b strings.Builder

	// Responsive columns
	if width >= 90 {
		header := fmt.Sprintf("  %-36s %-28s %-16s %-10s %s", "NAME", "STATUS", "ROLES", "VERSION", "AGE")
		b.WriteString(headerStyle.Render(header))
	} else {
		header := fmt.Sprintf("  %-30s %-28s %s", "NAME", "STATUS", "AGE")
		b.WriteString(headerStyle.Render(header))
	}
	b.WriteString("\n")

	start := 0
	if cursor >= maxVisible {
		start = cursor - maxVisible + 1
	}

	for i := start; i < len(nodes) && i < start+maxVisible; i++ {
		n := nodes[i]
		// pad before colorizing so escape codes don't break alignment
		status := colorizeStatus(n.Status) + strings.Repeat(" ", max(28-len(n.Status), 0))
		var line string
		if width >= 90 {
			line = fmt.Sprintf("  %-36s %s %-16s %-10s %s",
				truncate(n.Name, 35),
				status,
				truncate(nodeRoles(n.Roles), 15),
				truncate(n.KubeletVersion, 9),
				n.Age)
		} else {
			line = fmt.Sprintf("  %-30s %s %s",
				truncate(n.Name, 29),
				status,
				n.Age)
		}

		if i == cursor {
			b.WriteString(selectedStyle.Width(width).Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func nodeRoles(roles []string) string {
	if len(roles) == 0 {
		return "<none>"
	}
	return strings.Join(roles, ",")
}

func (m Model) renderStatusBar() string {
	focus := m.state.CurrentFocusRegion()
	var help string
	switch focus.Kind {
	case interaction.FocusSidebarSearch:
		help = helpKeys(keys.Enter, keys.Tab, keys.Escape)
	case interaction.FocusClusterSelection:
		help = helpKeys(keys.Up, keys.Down, keys.Tab, keys.Refresh, keys.Quit)
	default:
		help = helpKeys(keys.Up, keys.Down, keys.Tab, keys.Search, keys.Refresh, keys.Quit)
	}

	st := m.nodes.Status()
	live := ""
	if st.State == watcher.Watching {
		live = liveStyle.Render(" ● LIVE")
	}
	itemInfo := fmt.Sprintf("%d nodes", m.nodeCount())
	left := fmt.Sprintf(" %s | %s | %s%s", focus.Kind, st.State, itemInfo, live)
	return statusBarStyle.Width(m.width).Render(left + "  " + help)
}

// --- Helpers ---

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return string(runes[:1])
	}
	return string(runes[:maxLen-1]) + "…"
}
