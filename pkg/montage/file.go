package montage

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// File is the YAML form of a role map
type File struct {
	EEGLeft  string `yaml:"eeg_left" mapstructure:"eeg_left"`
	EEGRight string `yaml:"eeg_right" mapstructure:"eeg_right"`
	EOGLeft  string `yaml:"eog_left" mapstructure:"eog_left"`
	EOGRight string `yaml:"eog_right" mapstructure:"eog_right"`
}

// RoleMap converts the file form to a folded role map
func (f File) RoleMap() RoleMap {
	return NewRoleMap(f.EEGLeft, f.EEGRight, f.EOGLeft, f.EOGRight)
}

// FileFromRoleMap converts a role map to its file form
func FileFromRoleMap(m RoleMap) File {
	return File{
		EEGLeft:  m[EEGLeft],
		EEGRight: m[EEGRight],
		EOGLeft:  m[EOGLeft],
		EOGRight: m[EOGRight],
	}
}

// Load reads a montage file
func Load(fs afero.Fs, path string) (RoleMap, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return RoleMap{}, fmt.Errorf("failed to read montage file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return RoleMap{}, fmt.Errorf("failed to parse montage file %s: %w", path, err)
	}
	return f.RoleMap(), nil
}

// Save writes m as a montage file
func Save(fs afero.Fs, path string, m RoleMap) error {
	b, err := yaml.Marshal(FileFromRoleMap(m))
	if err != nil {
		return fmt.Errorf("failed to encode montage: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create montage directory: %w", err)
	}
	return afero.WriteFile(fs, path, b, 0o644)
}
