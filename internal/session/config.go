package session

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of an Orbit session config file,
// typically named orbit.yml at a project root. It overrides search
// paths and calling convention the same way a build tool's config
// file would.
type FileConfig struct {
	SearchPaths       []string `yaml:"search_paths"`
	CallingConvention string   `yaml:"calling_convention"`
}

// LoadConfig reads and parses a FileConfig from path.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewFromConfig builds a Session from a FileConfig, defaulting the
// calling convention to "c" when unset.
func NewFromConfig(cfg *FileConfig) *Session {
	cc := CallingConvention(cfg.CallingConvention)
	if cc == "" {
		cc = CallingConventionC
	}
	return New(cfg.SearchPaths, cc)
}
