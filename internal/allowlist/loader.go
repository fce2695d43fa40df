package allowlist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk allow-list layout:
//
//	include_defaults: true
//	devices:
//	  - joes-iphone
//	  - lorrie
type File struct {
	IncludeDefaults bool     `yaml:"include_defaults"`
	Devices         []string `yaml:"devices"`
}

// Load reads a YAML allow-list from path.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read allow-list: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse allow-list yaml: %w", err)
	}

	names := f.Devices
	if f.IncludeDefaults {
		names = append(append([]string{}, defaultNames...), names...)
	}
	return New(names...), nil
}
