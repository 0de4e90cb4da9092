package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Taishi66/kview/internal/domain"
)

// UserConfig is the persisted per-user UI state.
type UserConfig struct {
	// SelectedCluster is the cluster chosen most recently in any window.
	SelectedCluster domain.ClusterID                     `yaml:"selected_cluster,omitempty"`
	Windows         map[domain.WindowID]domain.ClusterID `yaml:"windows,omitempty"`
}

// UserConfigStore reads and writes UserConfig. It is safe for concurrent use.
type UserConfigStore struct {
	path string

	mu   sync.Mutex
	data UserConfig
}

// DefaultUserConfigPath returns ~/.config/kview/user_config.yaml.
func DefaultUserConfigPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "user_config.yaml")
}

// LoadUserConfig reads the store at path. A missing file yields an empty
// config; it is created on the first write.
func LoadUserConfig(path string) (*UserConfigStore, error) {
	s := &UserConfigStore{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read user config: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.data); err != nil {
		return nil, fmt.Errorf("parse user config %s: %w", path, err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *UserConfigStore) Path() string { return s.path }

// SelectedCluster returns the cluster remembered for window, falling back to
// the last cluster selected in any window.
func (s *UserConfigStore) SelectedCluster(window domain.WindowID) (domain.ClusterID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.data.Windows[window]; ok && id != "" {
		return id, true
	}
	if s.data.SelectedCluster != "" {
		return s.data.SelectedCluster, true
	}
	return "", false
}

// SetSelectedCluster records id for window and as the last selection.
func (s *UserConfigStore) SetSelectedCluster(window domain.WindowID, id domain.ClusterID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Windows == nil {
		s.data.Windows = make(map[domain.WindowID]domain.ClusterID)
	}
	if s.data.Windows[window] == id && s.data.SelectedCluster == id {
		return nil
	}
	s.data.Windows[window] = id
	s.data.SelectedCluster = id
	return s.save()
}

// ClearWindow forgets the window's entry; the last selection is kept.
func (s *UserConfigStore) ClearWindow(window domain.WindowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Windows[window]; !ok {
		return nil
	}
	delete(s.data.Windows, window)
	return s.save()
}

// Snapshot returns a copy of the current config.
func (s *UserConfigStore) Snapshot() UserConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := UserConfig{SelectedCluster: s.data.SelectedCluster}
	if len(s.data.Windows) > 0 {
		out.Windows = make(map[domain.WindowID]domain.ClusterID, len(s.data.Windows))
		for k, v := range s.data.Windows {
			out.Windows[k] = v
		}
	}
	return out
}

// save writes via a temp file and rename. Callers hold s.mu.
func (s *UserConfigStore) save() error {
	data, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("encode user config: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".user_config-*.yaml")
	if err != nil {
		return fmt.Errorf("write user config: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write user config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write user config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write user config: %w", err)
	}
	return nil
}
