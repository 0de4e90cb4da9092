package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var DefaultProdPatterns = []string{"prod", "production", "prd", "live"}

const (
	defaultNodesTTL       = 10 * time.Second
	defaultListLimit      = 500
	defaultRequestTimeout = 10 * time.Second
	defaultQPS            = 50
	defaultBurst          = 100
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
	defaultKubeconfigPoll = 5 * time.Second
)

// AppConfig holds all configuration for kview.
type AppConfig struct {
	Kubeconfig     string        `yaml:"kubeconfig"`
	KubeconfigPoll time.Duration `yaml:"kubeconfig_poll"`
	ProdPatterns   []string      `yaml:"prod_patterns"`
	HiddenClusters []string      `yaml:"hidden_clusters"`
	Cache          CacheConfig   `yaml:"cache"`
	Watch          WatchConfig   `yaml:"watch"`
	Client         ClientConfig  `yaml:"client"`
	Log            LogConfig     `yaml:"log"`
}

// CacheConfig holds TTL settings for cached resources.
type CacheConfig struct {
	NodesTTL time.Duration `yaml:"nodes"`
}

// WatchConfig tunes node list and watch requests.
type WatchConfig struct {
	ListLimit      int64         `yaml:"list_limit"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ClientConfig holds client-side rate limits.
type ClientConfig struct {
	QPS   float32 `yaml:"qps"`
	Burst int     `yaml:"burst"`
}

// LogConfig controls the log file written while the TUI owns the terminal.
type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"`
}

// Dir returns ~/.config/kview, or "" when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "kview")
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig loads from the default path ~/.config/kview/config.yaml.
func LoadConfig() (*AppConfig, error) {
	dir := Dir()
	if dir == "" {
		return DefaultConfig(), nil
	}
	return LoadConfigFrom(filepath.Join(dir, "config.yaml"))
}

// LoadConfigFrom loads config from a specific file path.
// Returns defaults if the file does not exist.
func LoadConfigFrom(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Kubeconfig == "" {
		cfg.Kubeconfig = defaultKubeconfig()
	} else {
		cfg.Kubeconfig = expandHome(cfg.Kubeconfig)
	}
	if cfg.KubeconfigPoll == 0 {
		cfg.KubeconfigPoll = defaultKubeconfigPoll
	}
	if len(cfg.ProdPatterns) == 0 {
		cfg.ProdPatterns = DefaultProdPatterns
	}
	if cfg.Cache.NodesTTL == 0 {
		cfg.Cache.NodesTTL = defaultNodesTTL
	}
	if cfg.Watch.ListLimit == 0 {
		cfg.Watch.ListLimit = defaultListLimit
	}
	if cfg.Watch.RequestTimeout == 0 {
		cfg.Watch.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Client.QPS == 0 {
		cfg.Client.QPS = defaultQPS
	}
	if cfg.Client.Burst == 0 {
		cfg.Client.Burst = defaultBurst
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaultLogFormat
	}
	if cfg.Log.File == "" {
		if dir := Dir(); dir != "" {
			cfg.Log.File = filepath.Join(dir, "kview.log")
		}
	} else {
		cfg.Log.File = expandHome(cfg.Log.File)
	}
}

// defaultKubeconfig mirrors kubectl: first entry of $KUBECONFIG, else ~/.kube/config.
func defaultKubeconfig() string {
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

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// IsHiddenCluster checks if a cluster name matches any hidden pattern.
// Supports glob matching (e.g. "kind-*").
func IsHiddenCluster(cluster string, patterns []string) bool {
	if cluster == "" || len(patterns) == 0 {
		return false
	}
	for _, p := range patterns {
		matched, err := filepath.Match(p, cluster)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// IsProdCluster checks if a cluster name matches production patterns.
// Matching is done by segment (split on -._:/) to avoid false positives
// like "product-api" matching "prod".
func IsProdCluster(cluster string, patterns []string) bool {
	if len(patterns) == 0 {
		patterns = DefaultProdPatterns
	}
	segments := splitSegments(strings.ToLower(cluster))

	for _, p := range patterns {
		p = strings.ToLower(p)
		for _, seg := range segments {
			if seg == p {
				return true
			}
		}
	}
	return false
}

// splitSegments splits a cluster name on common separators. OpenShift
// cluster names often look like "api-prod-example-com:6443".
func splitSegments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '.' || r == '_' || r == ':' || r == '/'
	})
}
