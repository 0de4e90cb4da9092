package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/Taishi66/kview/internal/config"
	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/executor"
	"github.com/Taishi66/kview/internal/k8s"
	"github.com/Taishi66/kview/internal/watcher"
)

func newClustersCmd(deps func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clusters",
		Short: "List the clusters declared in kubeconfig",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := deps()
			if err := a.reg.Reload(cmd.Context()); err != nil {
				return err
			}
			return printClusters(cmd.OutOrStdout(), a.reg.Clusters(), a.cfg.ProdPatterns)
		},
	}
}

func printClusters(w io.Writer, clusters []domain.ClusterSummary, prodPatterns []string) error {
	if len(clusters) == 0 {
		_, err := fmt.Fprintln(w, "No clusters found")
		return err
	}
	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		prod := ""
		if config.IsProdCluster(string(c.ID), prodPatterns) {
			prod = "yes"
		}
		rows = append(rows, []string{string(c.ID), c.Server, prod})
	}
	_, err := fmt.Fprintln(w, plainTable([]string{"NAME", "SERVER", "PROD"}, rows))
	return err
}

func newNodesCmd(deps func() *app) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "nodes [cluster]",
		Short: "List the nodes of a cluster (default: current context's cluster)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps()
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			id, err := resolveCluster(a, name)
			if err != nil {
				return err
			}
			if err := a.reg.Reload(cmd.Context()); err != nil {
				return err
			}
			snap, err := fetchNodes(cmd.Context(), a, id)
			if err != nil {
				return err
			}
			if asYAML {
				data, err := yaml.Marshal(snap.Nodes)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return printNodes(cmd.OutOrStdout(), snap.Nodes)
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print nodes as YAML")
	return cmd
}

func newNodeYAMLCmd(deps func() *app) *cobra.Command {
	var cluster string

	cmd := &cobra.Command{
		Use:   "node-yaml NODE",
		Short: "Print a node manifest without managed fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := deps()
			id, err := resolveCluster(a, cluster)
			if err != nil {
				return err
			}
			if err := a.reg.Reload(cmd.Context()); err != nil {
				return err
			}
			gw, err := a.reg.Client(cmd.Context(), id)
			if err != nil {
				return err
			}
			out, err := gw.NodeYAML(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&cluster, "cluster", "", "cluster name (default: current context's cluster)")
	return cmd
}

// resolveCluster falls back to the cluster of the current kubeconfig context.
func resolveCluster(a *app, name string) (domain.ClusterID, error) {
	if name != "" {
		return domain.ClusterID(name), nil
	}
	cur, ok := k8s.CurrentCluster(a.cfg.Kubeconfig)
	if !ok {
		return "", errors.New("no cluster given and kubeconfig has no current context")
	}
	return cur, nil
}

// fetchNodes runs one watcher session and returns the first full snapshot.
func fetchNodes(ctx context.Context, a *app, id domain.ClusterID) (domain.Snapshot, error) {
	w := watcher.New("cli", a.reg, executor.NewGroup(), watcher.WithLogger(a.log))
	defer w.Close()

	done := make(chan error, 1)
	w.FetchNodes(id, func(err error) { done <- err })
	select {
	case err := <-done:
		if err != nil {
			return domain.Snapshot{}, err
		}
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
	return w.Nodes(id), nil
}

func printNodes(w io.Writer, nodes []domain.NodeInfo) error {
	if len(nodes) == 0 {
		_, err := fmt.Fprintln(w, "No nodes found")
		return err
	}
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		roles := strings.Join(n.Roles, ",")
		if roles == "" {
			roles = "<none>"
		}
		rows = append(rows, []string{n.Name, n.Status, roles, n.Age, n.KubeletVersion})
	}
	_, err := fmt.Fprintln(w, plainTable([]string{"NAME", "STATUS", "ROLES", "AGE", "VERSION"}, rows))
	return err
}

// plainTable renders a borderless table like kubectl get.
func plainTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(_, _ int) lipgloss.Style {
			return lipgloss.NewStyle().PaddingRight(3)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
