package manifest

// Manifest represents the deps.yaml file.
type Manifest struct {
	Version  int          `yaml:"version"`
	DepsDir  string       `yaml:"deps_dir,omitempty"`
	Presence string       `yaml:"presence,omitempty"`
	Deps     []Dependency `yaml:"deps"`
}

// Dependency describes a single third-party source tree to fetch.
type Dependency struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Required *bool  `yaml:"required,omitempty"`
}

// DefaultDepsDir is the directory dependencies are cloned into when the
// manifest does not say otherwise.
const DefaultDepsDir = "deps"

// Default returns the statically configured dependency list.
func Default() *Manifest {
	return &Manifest{
		Version:  1,
		DepsDir:  DefaultDepsDir,
		Presence: "glob",
		Deps: []Dependency{
			{Name: "Box2D", URL: "https://github.com/erincatto/box2d.git"},
		},
	}
}

// EffectiveDepsDir returns the deps directory, defaulting to "deps".
func (m *Manifest) EffectiveDepsDir() string {
	if m.DepsDir != "" {
		return m.DepsDir
	}
	return DefaultDepsDir
}

// IsRequired returns whether a failed fetch of this dependency is fatal
// (default false).
func (d *Dependency) IsRequired() bool {
	if d.Required != nil {
		return *d.Required
	}
	return false
}

// Names returns the dependency names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Deps))
	for i, d := range m.Deps {
		names[i] = d.Name
	}
	return names
}
