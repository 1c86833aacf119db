// Package config loads and saves the objective manifest: the
// authorized name list and the min_count floor a commitment objective
// is parameterized by, persisted as a TOML file on disk.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Manifest describes one commitment objective: who may pledge and the
// minimum participation floor applied to every pledge.
type Manifest struct {
	Label     string
	Names     []string
	MinCount  int
	GroupSize int
}

// ManifestTOML is the TOML-compatible encoding of a Manifest.
type ManifestTOML struct {
	Label    string
	Names    []string
	MinCount int
}

// Load reads and validates a Manifest from a TOML file at path.
func Load(path string) (*Manifest, error) {
	var mt ManifestTOML
	if _, err := toml.DecodeFile(path, &mt); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}

	m := &Manifest{
		Label:     mt.Label,
		Names:     mt.Names,
		MinCount:  mt.MinCount,
		GroupSize: len(mt.Names),
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes m to path as TOML, creating or truncating the file.
func Save(path string, m *Manifest) error {
	if err := m.validate(); err != nil {
		return err
	}
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(m.toTOML()); err != nil {
		return fmt.Errorf("config: encoding manifest: %w", err)
	}
	return os.WriteFile(path, b.Bytes(), 0o600)
}

func (m *Manifest) toTOML() *ManifestTOML {
	return &ManifestTOML{
		Label:    m.Label,
		Names:    m.Names,
		MinCount: m.MinCount,
	}
}

func (m *Manifest) validate() error {
	if m.Label == "" {
		return fmt.Errorf("config: manifest label must not be empty")
	}
	if len(m.Names) == 0 {
		return fmt.Errorf("config: manifest must list at least one name")
	}
	if m.MinCount < 1 || m.MinCount > len(m.Names) {
		return fmt.Errorf("config: min_count %d out of range [1,%d]", m.MinCount, len(m.Names))
	}
	return nil
}

// NewManifest builds a Manifest, defaulting GroupSize from len(names).
func NewManifest(label string, names []string, minCount int) *Manifest {
	return &Manifest{
		Label:     label,
		Names:     names,
		MinCount:  minCount,
		GroupSize: len(names),
	}
}
