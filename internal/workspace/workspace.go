package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/GrimEthos/backwater/internal/manifest"
	homedir "github.com/mitchellh/go-homedir"
)

// ManifestFile is the manifest name looked up in the root directory.
const ManifestFile = "deps.yaml"

// Context holds the resolved paths and loaded config for a run.
type Context struct {
	Root         string
	ManifestPath string // empty when the built-in manifest is in use
	DepsDir      string
	Manifest     *manifest.Manifest
}

// Load resolves paths relative to root and loads the manifest. An empty
// manifestPath means <root>/deps.yaml, and if that file does not exist the
// built-in dependency list is used. An explicit manifestPath must exist.
func Load(root, manifestPath string) (*Context, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	explicit := manifestPath != ""
	if !explicit {
		manifestPath = filepath.Join(root, ManifestFile)
	}

	ctx := &Context{Root: root}

	m, err := manifest.Load(manifestPath)
	switch {
	case err == nil:
		ctx.ManifestPath = manifestPath
		ctx.Manifest = m
	case !explicit && errors.Is(err, fs.ErrNotExist):
		ctx.Manifest = manifest.Default()
	default:
		return nil, err
	}

	ctx.DepsDir, err = ResolveDepsDir(root, ctx.Manifest.EffectiveDepsDir())
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

// SetDepsDir overrides the deps directory, e.g. from the --deps flag.
func (c *Context) SetDepsDir(dir string) error {
	resolved, err := ResolveDepsDir(c.Root, dir)
	if err != nil {
		return err
	}
	c.DepsDir = resolved
	return nil
}

// DefaultManifestPath returns the manifest path to write to when none is
// loaded yet.
func (c *Context) DefaultManifestPath() string {
	if c.ManifestPath != "" {
		return c.ManifestPath
	}
	return filepath.Join(c.Root, ManifestFile)
}

// ResolveDepsDir expands a leading ~ and joins relative paths to root.
func ResolveDepsDir(root, dir string) (string, error) {
	if strings.HasPrefix(dir, "~") {
		expanded, err := homedir.Expand(dir)
		if err != nil {
			return "", fmt.Errorf("expanding deps dir %s: %w", dir, err)
		}
		dir = expanded
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return filepath.Clean(dir), nil
}

// DepsDirExists reports whether the deps directory is present.
func (c *Context) DepsDirExists() bool {
	info, err := os.Stat(c.DepsDir)
	return err == nil && info.IsDir()
}

// PresenceMode selects how an existing dependency is detected.
type PresenceMode string

const (
	// PresenceGlob treats a dependency as present when any entry of the deps
	// directory starts with its name.
	PresenceGlob PresenceMode = "glob"
	// PresenceLegacy treats every dependency as present, so nothing is ever
	// cloned. This matches the historical behavior of the setup script.
	PresenceLegacy PresenceMode = "legacy"
)

// ParsePresenceMode parses a presence mode string, defaulting to "glob".
func ParsePresenceMode(s string) (PresenceMode, error) {
	switch PresenceMode(s) {
	case PresenceGlob, "":
		return PresenceGlob, nil
	case PresenceLegacy:
		return PresenceLegacy, nil
	default:
		return "", fmt.Errorf("unknown presence mode: %q (must be glob or legacy)", s)
	}
}
