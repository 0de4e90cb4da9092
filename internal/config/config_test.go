package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestIsProdCluster(t *testing.T) {
	tests := []struct {
		name     string
		cluster  string
		patterns []string
		want     bool
	}{
		// Positive cases - segment matches
		{"exact prod", "prod", nil, true},
		{"segment prod", "eu-west-prod", nil, true},
		{"exact production", "production", nil, true},
		{"segment prd", "ocp-prd-01", nil, true},
		{"segment live", "live-eks", nil, true},
		{"openshift api name", "api-prod-example-com:6443", nil, true},
		{"dot separator", "ocp.prod.local", nil, true},

		// Case insensitive
		{"uppercase PROD", "EU-PROD-1", nil, true},
		{"mixed case", "Cluster-Prod", nil, true},

		// Negative cases - no false positives
		{"dev cluster", "development", nil, false},
		{"staging", "staging", nil, false},
		{"kind", "kind-kind", nil, false},
		{"empty cluster", "", nil, false},
		{"product NOT prod", "product-analytics", nil, false},
		{"livechat NOT live", "livechat", nil, false},

		// Custom patterns
		{"custom pattern match", "eu-staging", []string{"staging"}, true},
		{"custom pattern no match", "eu-dev", []string{"staging"}, false},
		{"empty custom patterns uses defaults", "production", []string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsProdCluster(tt.cluster, tt.patterns)
			if got != tt.want {
				t.Errorf("IsProdCluster(%q, %v) = %v, want %v", tt.cluster, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("KUBECONFIG", "/tmp/kview-test/kubeconfig")
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}

	if cfg.Kubeconfig != "/tmp/kview-test/kubeconfig" {
		t.Errorf("Kubeconfig = %q, want $KUBECONFIG", cfg.Kubeconfig)
	}
	if len(cfg.ProdPatterns) != len(DefaultProdPatterns) {
		t.Errorf("ProdPatterns len = %d, want %d", len(cfg.ProdPatterns), len(DefaultProdPatterns))
	}
	if len(cfg.HiddenClusters) != 0 {
		t.Errorf("HiddenClusters should be empty, got %v", cfg.HiddenClusters)
	}
	if cfg.Cache.NodesTTL != 10*time.Second {
		t.Errorf("Cache.NodesTTL = %v, want 10s", cfg.Cache.NodesTTL)
	}
	if cfg.Watch.ListLimit != 500 {
		t.Errorf("Watch.ListLimit = %d, want 500", cfg.Watch.ListLimit)
	}
	if cfg.Watch.RequestTimeout != 10*time.Second {
		t.Errorf("Watch.RequestTimeout = %v, want 10s", cfg.Watch.RequestTimeout)
	}
	if cfg.Client.QPS != 50 || cfg.Client.Burst != 100 {
		t.Errorf("Client = %+v, want qps 50 burst 100", cfg.Client)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.KubeconfigPoll != 5*time.Second {
		t.Errorf("KubeconfigPoll = %v, want 5s", cfg.KubeconfigPoll)
	}
}

func TestLoadConfig_CustomFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `kubeconfig: /etc/kube/admin.conf
kubeconfig_poll: 30s
prod_patterns:
  - staging
hidden_clusters:
  - kind-*
cache:
  nodes: 3s
watch:
  list_limit: 100
  request_timeout: 20s
client:
  qps: 5
  burst: 10
log:
  level: debug
  file: /var/log/kview.log
  format: json
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfigFrom returned error: %v", err)
	}

	if cfg.Kubeconfig != "/etc/kube/admin.conf" {
		t.Errorf("Kubeconfig = %q", cfg.Kubeconfig)
	}
	if cfg.KubeconfigPoll != 30*time.Second {
		t.Errorf("KubeconfigPoll = %v, want 30s", cfg.KubeconfigPoll)
	}
	if len(cfg.ProdPatterns) != 1 || cfg.ProdPatterns[0] != "staging" {
		t.Errorf("ProdPatterns = %v, want [staging]", cfg.ProdPatterns)
	}
	if len(cfg.HiddenClusters) != 1 || cfg.HiddenClusters[0] != "kind-*" {
		t.Errorf("HiddenClusters = %v", cfg.HiddenClusters)
	}
	if cfg.Cache.NodesTTL != 3*time.Second {
		t.Errorf("Cache.NodesTTL = %v, want 3s", cfg.Cache.NodesTTL)
	}
	if cfg.Watch.ListLimit != 100 || cfg.Watch.RequestTimeout != 20*time.Second {
		t.Errorf("Watch = %+v", cfg.Watch)
	}
	if cfg.Client.QPS != 5 || cfg.Client.Burst != 10 {
		t.Errorf("Client = %+v", cfg.Client)
	}
	if cfg.Log.Level != "debug" || cfg.Log.File != "/var/log/kview.log" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("kubeconfig: ~/clusters/config\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFrom(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Kubeconfig != filepath.Join(home, "clusters", "config") {
		t.Errorf("Kubeconfig = %q", cfg.Kubeconfig)
	}
	if !strings.HasPrefix(cfg.Log.File, home) {
		t.Errorf("Log.File = %q, want under %s", cfg.Log.File, home)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfigFrom(cfgPath)
	if err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestIsHiddenCluster(t *testing.T) {
	tests := []struct {
		name     string
		cluster  string
		patterns []string
		want     bool
	}{
		{"exact match", "minikube", []string{"minikube"}, true},
		{"glob match", "kind-dev", []string{"kind-*"}, true},
		{"no match", "eks-prod", []string{"minikube", "kind-*"}, false},
		{"empty patterns", "anything", nil, false},
		{"empty cluster", "", []string{"minikube"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsHiddenCluster(tt.cluster, tt.patterns)
			if got != tt.want {
				t.Errorf("IsHiddenCluster(%q, %v) = %v, want %v", tt.cluster, tt.patterns, got, tt.want)
			}
		})
	}
}

func TestSplitSegments(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"eu-west-prod", 3},
		{"ocp.prod.local", 3},
		{"api-prod-example-com:6443", 5},
		{"arn:aws:eks/prod", 4},
		{"prod", 1},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			segments := splitSegments(tt.input)
			if len(segments) != tt.want {
				t.Errorf("splitSegments(%q) = %v (len %d), want len %d", tt.input, segments, len(segments), tt.want)
			}
		})
	}
}
