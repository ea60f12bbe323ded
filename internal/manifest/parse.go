package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// globMeta lists characters that would change the meaning of the name*
// presence pattern.
const globMeta = `*?[]{}\`

// Validate checks the manifest for errors.
func Validate(m *Manifest) error { return validate(m) }

// Save validates and writes a manifest to disk.
func Save(path string, m *Manifest) error {
	if err := validate(m); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // manifest needs to be readable
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// Load reads and validates a deps.yaml file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from --manifest or the workspace root
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates deps.yaml content.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest YAML: %w", err)
	}
	if err := validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func validate(m *Manifest) error {
	if m.Version != 1 {
		return fmt.Errorf("unsupported manifest version: %d (expected 1)", m.Version)
	}

	if m.DepsDir != "" {
		if err := validateDepsDir(m.DepsDir); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(m.Deps))
	for i, d := range m.Deps {
		if err := validateDep(i, d, seen); err != nil {
			return err
		}
		seen[d.Name] = true
	}
	return nil
}

func validateDep(i int, d Dependency, seen map[string]bool) error {
	if d.Name == "" {
		return fmt.Errorf("manifest: deps[%d].name is required", i)
	}
	if err := ValidateName(d.Name); err != nil {
		return fmt.Errorf("manifest: deps[%d]: %w", i, err)
	}
	if d.URL == "" {
		return fmt.Errorf("manifest: deps[%d] (%s).url is required", i, d.Name)
	}
	if seen[d.Name] {
		return fmt.Errorf("manifest: duplicate dependency name %q", d.Name)
	}
	return nil
}

// ValidateName reports whether name can be used as a dependency name and
// presence-check prefix.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("dependency name is required")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid dependency name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("dependency name %q must not contain path separators", name)
	}
	if strings.ContainsAny(name, globMeta) {
		return fmt.Errorf("dependency name %q must not contain glob characters (%s)", name, globMeta)
	}
	return nil
}

// validateDepsDir ensures a relative deps_dir does not escape the root.
// Absolute and ~-prefixed paths are allowed as-is.
func validateDepsDir(p string) error {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "~") {
		return nil
	}
	cleaned := filepath.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("manifest: deps_dir must not escape the root (contains ..): %s", p)
	}
	return nil
}

// FilterByNames returns deps matching --only / --skip flags.
func FilterByNames(deps []Dependency, only, skip []string) []Dependency {
	if len(only) == 0 && len(skip) == 0 {
		return deps
	}
	onlySet := toSet(only)
	skipSet := toSet(skip)

	var result []Dependency
	for _, d := range deps {
		if len(onlySet) > 0 && !onlySet[d.Name] {
			continue
		}
		if skipSet[d.Name] {
			continue
		}
		result = append(result, d)
	}
	return result
}

// Add appends d to the manifest, rejecting duplicate names.
func (m *Manifest) Add(d Dependency) error {
	for _, existing := range m.Deps {
		if existing.Name == d.Name {
			return fmt.Errorf("dependency %q already exists", d.Name)
		}
	}
	m.Deps = append(m.Deps, d)
	return nil
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}
