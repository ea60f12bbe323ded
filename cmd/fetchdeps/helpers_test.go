package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/GrimEthos/backwater/internal/manifest"
	"github.com/GrimEthos/backwater/internal/testutil"
	"github.com/GrimEthos/backwater/internal/workspace"
	"github.com/stretchr/testify/require"
)

// setupRoot creates a root with an empty deps directory and, when deps are
// given, a deps.yaml listing them.
func setupRoot(t *testing.T, deps ...manifest.Dependency) (root, depsDir string) {
	t.Helper()
	root, depsDir = testutil.CreateDepsDir(t)
	if len(deps) > 0 {
		m := &manifest.Manifest{Version: 1, Deps: deps}
		require.NoError(t, manifest.Save(filepath.Join(root, workspace.ManifestFile), m))
	}
	return root, depsDir
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
