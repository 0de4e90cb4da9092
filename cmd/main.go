package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Taishi66/kview/internal/cache"
	"github.com/Taishi66/kview/internal/config"
	"github.com/Taishi66/kview/internal/domain"
	"github.com/Taishi66/kview/internal/k8s"
	"github.com/Taishi66/kview/internal/logging"
	"github.com/Taishi66/kview/internal/registry"
	"github.com/Taishi66/kview/internal/tui"
)

var version = "dev"

// app holds what every subcommand shares.
type app struct {
	cfg    *config.AppConfig
	log    logging.Logger
	source *k8s.KubeconfigSource
	reg    *registry.Registry
}

func newApp(cfg *config.AppConfig, log logging.Logger) *app {
	source := k8s.NewKubeconfigSource(cfg.Kubeconfig)
	loader := k8s.NewLoader(cfg.Kubeconfig, k8s.LoaderOptions{
		QPS:       cfg.Client.QPS,
		Burst:     cfg.Client.Burst,
		Timeout:   cfg.Watch.RequestTimeout,
		ListLimit: cfg.Watch.ListLimit,
	})
	ttl := cfg.Cache.NodesTTL
	reg := registry.New(visibleClusters(source, cfg.HiddenClusters), loader,
		registry.WithLogger(log),
		registry.WithLoadTimeout(cfg.Watch.RequestTimeout),
		registry.WithClientWrapper(func(gw domain.NodeGateway) domain.NodeGateway {
			return cache.NewCachedGateway(gw, ttl)
		}),
	)
	return &app{cfg: cfg, log: log, source: source, reg: reg}
}

// visibleClusters drops clusters matching hidden_clusters.
func visibleClusters(src domain.ClusterSource, hidden []string) domain.ClusterSource {
	if len(hidden) == 0 {
		return src
	}
	return domain.ClusterSourceFunc(func(ctx context.Context) ([]domain.Cluster, error) {
		clusters, err := src.Clusters(ctx)
		if err != nil {
			return nil, err
		}
		out := clusters[:0:0]
		for _, c := range clusters {
			if !config.IsHiddenCluster(string(c.ID), hidden) {
				out = append(out, c)
			}
		}
		return out, nil
	})
}

func (a *app) close() {
	a.reg.Close()
	_ = a.log.Shutdown()
}

func newRootCmd() *cobra.Command {
	var configPath string
	var a *app

	root := &cobra.Command{
		Use:           "kview",
		Short:         "Browse Kubernetes clusters and nodes from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			})
			if err != nil {
				return err
			}
			a = newApp(cfg, log)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil {
				a.close()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), a)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/kview/config.yaml)")

	deps := func() *app { return a }
	root.AddCommand(newClustersCmd(deps), newNodesCmd(deps), newNodeYAMLCmd(deps))
	return root
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path != "" {
		return config.LoadConfigFrom(path)
	}
	return config.LoadConfig()
}

func runTUI(ctx context.Context, a *app) error {
	// A missing kubeconfig is not fatal: the TUI shows an empty cluster list
	// and picks the clusters up once the file appears.
	if err := a.reg.Reload(ctx); err != nil {
		a.log.Warn("initial cluster discovery failed", "err", err)
	}

	store, err := config.LoadUserConfig(config.DefaultUserConfigPath())
	if err != nil {
		a.log.Warn("user config unavailable", "err", err)
	}

	opts := tui.Options{
		Registry:   a.reg,
		Kubeconfig: a.source,
		Config:     a.cfg,
		Logger:     a.log,
		Window:     "main",
	}
	if store != nil {
		opts.Store = store
	}
	if id, ok := k8s.CurrentCluster(a.cfg.Kubeconfig); ok {
		opts.Fallback = id
	}

	m := tui.NewModel(opts)
	defer m.Close()
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
