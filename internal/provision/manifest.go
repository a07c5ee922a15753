package provision

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed deps.yaml
var defaultManifest []byte

// Archive is one prebuilt dependency.
type Archive struct {
	Name string `yaml:"name"`
	// Archive is the file name under the manifest base URL.
	Archive string `yaml:"archive"`
	// File is the local name the archive is downloaded to.
	File string `yaml:"file"`
}

// Download is a file fetched from an absolute URL.
type Download struct {
	URL  string `yaml:"url"`
	File string `yaml:"file"`
}

// PythonDeps lists what a binding build needs on top of the common set.
type PythonDeps struct {
	Runtime     Archive  `yaml:"runtime"`
	BoostPython Archive  `yaml:"boost_python"`
	Bootstrap   Download `yaml:"bootstrap"`
	Packages    []string `yaml:"packages"`
	Publisher   string   `yaml:"publisher"`
	Account     string   `yaml:"account"`
}

// Manifest is the fixed, versioned dependency set.
type Manifest struct {
	BaseURL   string     `yaml:"base_url"`
	Toolchain Archive    `yaml:"toolchain"`
	Common    []Archive  `yaml:"common"`
	Python    PythonDeps `yaml:"python"`
}

// DefaultManifest returns the manifest compiled into the binary.
func DefaultManifest() (*Manifest, error) {
	return ParseManifest(defaultManifest)
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse dependency manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.BaseURL == "" {
		return fmt.Errorf("dependency manifest: base_url is empty")
	}
	all := append([]Archive{m.Toolchain, m.Python.Runtime, m.Python.BoostPython}, m.Common...)
	for _, a := range all {
		if a.Archive == "" || a.File == "" {
			return fmt.Errorf("dependency manifest: archive %q needs both archive and file", a.Name)
		}
	}
	if m.Python.Bootstrap.URL == "" || m.Python.Bootstrap.File == "" {
		return fmt.Errorf("dependency manifest: python bootstrap needs both url and file")
	}
	return nil
}

// URL is where a is downloaded from.
func (m *Manifest) URL(a Archive) string {
	return strings.TrimSuffix(m.BaseURL, "/") + "/" + a.Archive
}

// ForRuntime substitutes the runtime identifier into a's archive name.
func (a Archive) ForRuntime(id string) Archive {
	a.Archive = strings.ReplaceAll(a.Archive, "{id}", id)
	return a
}
