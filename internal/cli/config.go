package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/reader"
)

// Config is the sources file passed with --config.
//
//	format: table
//	sources:
//	  - name: employee
//	    path: data/employee.csv
//	  - name: child
//	    path: data/people.db
//	    table: child
type Config struct {
	Format  string        `yaml:"format,omitempty"`
	Sources []reader.Spec `yaml:"sources"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	for i, spec := range cfg.Sources {
		if spec.Path == "" {
			return nil, fmt.Errorf("config %s: source %d has no path", path, i+1)
		}
		if spec.Name == "" {
			parsed, err := reader.ParseSpec(spec.Path)
			if err != nil {
				return nil, err
			}
			cfg.Sources[i].Name = parsed.Name
			if spec.Table != "" {
				cfg.Sources[i].Name = spec.Table
			}
		}
	}
	return &cfg, nil
}

// mergeSources combines config sources with --source flags. A flag
// replaces a config source of the same name.
func mergeSources(cfg *Config, flags []string) ([]reader.Spec, error) {
	var specs []reader.Spec
	if cfg != nil {
		specs = append(specs, cfg.Sources...)
	}
	for _, s := range flags {
		spec, err := reader.ParseSpec(s)
		if err != nil {
			return nil, err
		}
		replaced := false
		for i := range specs {
			if strings.EqualFold(specs[i].Name, spec.Name) {
				specs[i] = spec
				replaced = true
			}
		}
		if !replaced {
			specs = append(specs, spec)
		}
	}
	return specs, nil
}
