package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// CreateBareRepo creates a bare git repository named <name>.git with an
// initial commit in a temp directory. Cloning the returned path produces a
// directory called name. Returns the path to the bare repo.
func CreateBareRepo(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	bare := filepath.Join(dir, name+".git")

	// Create a working repo first, then clone it bare.
	work := filepath.Join(dir, "work")
	run(t, dir, "git", "init", "-b", "main", work)
	run(t, work, "git", "config", "user.email", "test@example.com")
	run(t, work, "git", "config", "user.name", "Test")

	readme := filepath.Join(work, "README.md")
	if err := os.WriteFile(readme, []byte("# "+name+"\n"), 0644); err != nil { //nolint:gosec // test file
		t.Fatal(err)
	}
	run(t, work, "git", "add", ".")
	run(t, work, "git", "commit", "-m", "initial commit")

	run(t, dir, "git", "clone", "--bare", work, bare)
	return bare
}

// CreateDepsDir creates an empty deps directory under a fresh temp root and
// returns both paths.
func CreateDepsDir(t *testing.T) (root, deps string) {
	t.Helper()
	root = t.TempDir()
	deps = filepath.Join(root, "deps")
	if err := os.Mkdir(deps, 0755); err != nil { //nolint:gosec // test directory
		t.Fatal(err)
	}
	return root, deps
}

// Subdirs returns the names of the directories in dir.
func Subdirs(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("command %s %v failed: %v", name, args, err)
	}
}
