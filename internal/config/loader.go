package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Resolve returns the security policy named by name if it is one of the
// built-in bundles; otherwise it attempts to load name as a path to a
// YAML file holding a complete policy. The file is not merged onto any
// bundle: a field it omits is false, and an omitted name becomes the path.
func Resolve(name string) (SecurityPolicy, error) {
	if p, ok := Builtins()[name]; ok {
		return p, nil
	}
	return LoadFromPath(name)
}

// LoadFromPath reads a YAML-encoded SecurityPolicy override from path.
func LoadFromPath(path string) (SecurityPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SecurityPolicy{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var p SecurityPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return SecurityPolicy{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = path
	}
	return p, nil
}
