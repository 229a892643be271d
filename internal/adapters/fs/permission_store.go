package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/atomsi-org/atomsi-dao/internal/domain"
	"github.com/atomsi-org/atomsi-dao/internal/domain/config"
	"github.com/atomsi-org/atomsi-dao/internal/usecase"
)

// PermissionFileStore persists role permission overrides, member roles and
// treasury signers as YAML
type PermissionFileStore struct {
	path string
}

// NewPermissionFileStore creates a store at cfg.PermissionsFile
func NewPermissionFileStore(cfg *config.RuntimeConfig) *PermissionFileStore {
	path := cfg.PermissionsFile
	if path == "" {
		path = filepath.Join(cfg.DataDir, "permissions.yaml")
	}
	return &PermissionFileStore{path: path}
}

// LoadPermissions reads the saved state. A missing file yields nil.
func (s *PermissionFileStore) LoadPermissions() (*domain.PermissionState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read permissions file: %w", err)
	}

	var state domain.PermissionState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse permissions file %s: %w", s.path, err)
	}
	return &state, nil
}

// SavePermissions writes state, replacing the previous file
func (s *PermissionFileStore) SavePermissions(state *domain.PermissionState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create permissions directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	// write then rename so readers never see a partial file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write permissions file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace permissions file: %w", err)
	}
	return nil
}

// GetPath returns the path to the permissions file
func (s *PermissionFileStore) GetPath() string {
	return s.path
}

var _ usecase.PermissionStore = (*PermissionFileStore)(nil)
