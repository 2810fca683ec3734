package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up at the root of the source tree. YAML is a
// superset of JSON, so a JSON document works too.
const DefaultFile = ".lighthouse.yml"

// EnvNamespace overrides the namespace from the config file.
const EnvNamespace = "LH_NAMESPACE"

// Registry credentials used when pushing images.
const (
	EnvRegistryUser     = "LH_REGISTRY_USER"
	EnvRegistryPassword = "LH_REGISTRY_PASSWORD"
)

var ErrNoNamespace = errors.New("no image namespace configured: set namespace in " + DefaultFile + ", pass --namespace or set " + EnvNamespace)

// Config is the per-repository build configuration.
type Config struct {
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`   // extra tags applied to every built image
	Ignore    []string `yaml:"ignore"` // extra build context exclude patterns
	Skip      []string `yaml:"skip"`   // directories not searched for Dockerfiles
}

// Overrides are values from the command line; empty fields are ignored.
type Overrides struct {
	Namespace string
	Tags      []string
}

// Load reads the configuration for the source tree at root.
// If path is empty, it tries DefaultFile under root.
// A missing file yields defaults. The result always has a namespace.
func Load(root, path string, env func(string) string, o Overrides) (*Config, error) {
	if path == "" {
		path = filepath.Join(root, DefaultFile)
	}

	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if ns := env(EnvNamespace); ns != "" {
		cfg.Namespace = ns
	}
	if o.Namespace != "" {
		cfg.Namespace = o.Namespace
	}
	if len(o.Tags) > 0 {
		cfg.Tags = o.Tags
	}

	if cfg.Namespace == "" {
		return nil, ErrNoNamespace
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Skip: []string{"node_modules", "vendor"},
	}
}
