package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GrimEthos/backwater/internal/git"
	"github.com/GrimEthos/backwater/internal/manifest"
	"github.com/GrimEthos/backwater/internal/testutil"
	"github.com/GrimEthos/backwater/internal/ui"
	"github.com/GrimEthos/backwater/internal/workspace"
	"github.com/danjacques/gofslock/fslock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingClone counts clone invocations and optionally delegates to git.
type recordingClone struct {
	calls []string
	real  bool
	err   error
}

func (r *recordingClone) clone(ctx context.Context, dir, url string) error {
	r.calls = append(r.calls, url)
	if r.err != nil {
		return r.err
	}
	if r.real {
		return git.Clone(ctx, dir, url)
	}
	return nil
}

func newTestFetcher(deps string, mode workspace.PresenceMode, rc *recordingClone) (*Fetcher, *bytes.Buffer) {
	var out bytes.Buffer
	f := New(deps, mode, ui.NewReporter(&out))
	f.Clone = rc.clone
	return f, &out
}

func TestEnsure_legacyNeverClones(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	rc := &recordingClone{}
	f, out := newTestFetcher(deps, workspace.PresenceLegacy, rc)

	outcome, err := f.Ensure(context.Background(), manifest.Dependency{Name: "Box2D", URL: "https://example.com/box2d.git"})
	require.NoError(t, err)

	assert.Equal(t, OutcomePresent, outcome)
	assert.Empty(t, rc.calls)
	assert.Equal(t, "Box2D not\n", out.String())
	assert.Empty(t, testutil.Subdirs(t, deps))
}

func TestEnsure_clonesWhenAbsent(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	bare := testutil.CreateBareRepo(t, "Box2D")
	rc := &recordingClone{real: true}
	f, out := newTestFetcher(deps, workspace.PresenceGlob, rc)
	dep := manifest.Dependency{Name: "Box2D", URL: bare}

	outcome, err := f.Ensure(context.Background(), dep)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFetched, outcome)
	assert.Equal(t, []string{bare}, rc.calls)
	assert.Equal(t, "Box2D is\n", out.String())
	assert.Equal(t, []string{"Box2D"}, testutil.Subdirs(t, deps))

	outcome, err = f.Ensure(context.Background(), dep)
	require.NoError(t, err)
	assert.Equal(t, OutcomePresent, outcome)
	assert.Len(t, rc.calls, 1, "second ensure must not clone again")
	assert.Equal(t, "Box2D is\nBox2D not\n", out.String())
}

func TestEnsure_caseInsensitivePrefix(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	bare := testutil.CreateBareRepo(t, "box2d")
	rc := &recordingClone{real: true}
	f, _ := newTestFetcher(deps, workspace.PresenceGlob, rc)
	dep := manifest.Dependency{Name: "Box2D", URL: bare}

	_, err := f.Ensure(context.Background(), dep)
	require.NoError(t, err)
	outcome, err := f.Ensure(context.Background(), dep)
	require.NoError(t, err)

	assert.Equal(t, OutcomePresent, outcome)
	assert.Len(t, rc.calls, 1)
	assert.Equal(t, []string{"box2d"}, testutil.Subdirs(t, deps))
}

func TestEnsure_lockFileKeptOutOfDepsDir(t *testing.T) {
	root, deps := testutil.CreateDepsDir(t)
	bare := testutil.CreateBareRepo(t, "Box2D")
	f, _ := newTestFetcher(deps, workspace.PresenceGlob, &recordingClone{real: true})

	_, err := f.Ensure(context.Background(), manifest.Dependency{Name: "Box2D", URL: bare})
	require.NoError(t, err)

	entries, err := os.ReadDir(deps)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Box2D", entries[0].Name())
	assert.FileExists(t, filepath.Join(root, LockFile))
}

func TestEnsure_waitsForLockThenSeesOtherClone(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	rc := &recordingClone{}
	f, out := newTestFetcher(deps, workspace.PresenceGlob, rc)
	f.LockRetry = 10 * time.Millisecond

	h, err := fslock.Lock(f.lockPath())
	require.NoError(t, err)

	// Another fetcher finishes cloning Box2D and then releases the lock.
	released := make(chan error, 1)
	go func() {
		time.Sleep(100 * time.Millisecond)
		if err := os.Mkdir(filepath.Join(deps, "Box2D"), 0755); err != nil { //nolint:gosec // test directory
			released <- err
			return
		}
		released <- h.Unlock()
	}()

	outcome, err := f.Ensure(context.Background(), manifest.Dependency{Name: "Box2D", URL: "https://example.com/box2d.git"})
	require.NoError(t, err)
	require.NoError(t, <-released)

	assert.Equal(t, OutcomePresent, outcome)
	assert.Empty(t, rc.calls)
	assert.Equal(t, "Box2D not\n", out.String())
}

func TestEnsure_lockWaitHonorsContext(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	rc := &recordingClone{}
	f, out := newTestFetcher(deps, workspace.PresenceGlob, rc)
	f.LockRetry = 10 * time.Millisecond

	h, err := fslock.Lock(f.lockPath())
	require.NoError(t, err)
	defer func() { _ = h.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = f.Ensure(ctx, manifest.Dependency{Name: "Box2D", URL: "https://example.com/box2d.git"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, rc.calls)
	assert.Empty(t, out.String())
}

func TestEnsure_idempotent(t *testing.T) {
	bare := testutil.CreateBareRepo(t, "Box2D")
	dep := manifest.Dependency{Name: "Box2D", URL: bare}

	ensureTimes := func(n int) []string {
		_, deps := testutil.CreateDepsDir(t)
		f, _ := newTestFetcher(deps, workspace.PresenceGlob, &recordingClone{real: true})
		for i := 0; i < n; i++ {
			_, err := f.Ensure(context.Background(), dep)
			require.NoError(t, err)
		}
		return testutil.Subdirs(t, deps)
	}

	assert.Equal(t, ensureTimes(1), ensureTimes(2))
}

func TestEnsure_existingPrefixMatchSkipsClone(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(deps, "Box2D-2.4"), 0755)) //nolint:gosec // test directory
	rc := &recordingClone{}
	f, out := newTestFetcher(deps, workspace.PresenceGlob, rc)

	outcome, err := f.Ensure(context.Background(), manifest.Dependency{Name: "Box2D", URL: "https://example.com/box2d.git"})
	require.NoError(t, err)

	assert.Equal(t, OutcomePresent, outcome)
	assert.Empty(t, rc.calls)
	assert.Equal(t, "Box2D not\n", out.String())
}

func TestEnsure_missingDepsDir(t *testing.T) {
	for _, mode := range []workspace.PresenceMode{workspace.PresenceGlob, workspace.PresenceLegacy} {
		t.Run(string(mode), func(t *testing.T) {
			rc := &recordingClone{}
			f, out := newTestFetcher(filepath.Join(t.TempDir(), "deps"), mode, rc)

			_, err := f.Ensure(context.Background(), manifest.Dependency{Name: "Box2D", URL: "https://example.com/box2d.git"})
			require.ErrorIs(t, err, ErrDepsDirMissing)
			require.ErrorIs(t, err, fs.ErrNotExist)
			assert.Empty(t, rc.calls)
			assert.Empty(t, out.String())
		})
	}
}

func TestEnsure_depsPathIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deps")
	require.NoError(t, os.WriteFile(path, nil, 0600))
	f, _ := newTestFetcher(path, workspace.PresenceGlob, &recordingClone{})

	_, err := f.Ensure(context.Background(), manifest.Dependency{Name: "Box2D", URL: "https://example.com/box2d.git"})
	require.ErrorIs(t, err, ErrDepsDirMissing)
}

func TestEnsure_cloneFailure(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	rc := &recordingClone{real: true}
	f, out := newTestFetcher(deps, workspace.PresenceGlob, rc)

	outcome, err := f.Ensure(context.Background(), manifest.Dependency{Name: "lib", URL: filepath.Join(t.TempDir(), "missing.git")})
	require.ErrorIs(t, err, ErrCloneFailed)
	assert.Equal(t, OutcomePresent, outcome)
	assert.Equal(t, "lib is\n", out.String())
	assert.Empty(t, testutil.Subdirs(t, deps))
}

func TestEnsure_workingDirectoryUnchanged(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	bare := testutil.CreateBareRepo(t, "Box2D")
	before, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name string
		dep  manifest.Dependency
	}{
		{"success", manifest.Dependency{Name: "Box2D", URL: bare}},
		{"clone failure", manifest.Dependency{Name: "lib", URL: filepath.Join(t.TempDir(), "missing.git")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _ := newTestFetcher(deps, workspace.PresenceGlob, &recordingClone{real: true})
			_, _ = f.Ensure(context.Background(), tt.dep)

			after, err := os.Getwd()
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestEnsure_invalidDependency(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	f, _ := newTestFetcher(deps, workspace.PresenceGlob, &recordingClone{})

	_, err := f.Ensure(context.Background(), manifest.Dependency{Name: "", URL: "https://example.com/a.git"})
	require.Error(t, err)
	_, err = f.Ensure(context.Background(), manifest.Dependency{Name: "a*", URL: "https://example.com/a.git"})
	require.Error(t, err)
	_, err = f.Ensure(context.Background(), manifest.Dependency{Name: "a"})
	require.Error(t, err)
}

func TestRun_optionalFailureContinues(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	bare := testutil.CreateBareRepo(t, "glm")
	f, out := newTestFetcher(deps, workspace.PresenceGlob, &recordingClone{real: true})

	s, err := f.Run(context.Background(), []manifest.Dependency{
		{Name: "broken", URL: filepath.Join(t.TempDir(), "missing.git")},
		{Name: "glm", URL: bare},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"broken"}, s.Failed)
	assert.Equal(t, []string{"glm"}, s.Fetched)
	assert.Equal(t, "broken is\nglm is\n", out.String())
}

func TestRun_requiredFailureStops(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	req := true
	rc := &recordingClone{err: errors.New("network unreachable")}
	f, _ := newTestFetcher(deps, workspace.PresenceGlob, rc)

	s, err := f.Run(context.Background(), []manifest.Dependency{
		{Name: "a", URL: "https://example.com/a.git", Required: &req},
		{Name: "b", URL: "https://example.com/b.git"},
	}, false)
	require.ErrorIs(t, err, ErrCloneFailed)
	assert.Equal(t, []string{"a"}, s.Failed)
	assert.Len(t, rc.calls, 1)
}

func TestRun_strict(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	rc := &recordingClone{err: errors.New("auth failed")}
	f, _ := newTestFetcher(deps, workspace.PresenceGlob, rc)

	_, err := f.Run(context.Background(), []manifest.Dependency{
		{Name: "a", URL: "https://example.com/a.git"},
	}, true)
	require.ErrorIs(t, err, ErrCloneFailed)
}

func TestRun_missingDepsDirAlwaysFails(t *testing.T) {
	f, _ := newTestFetcher(filepath.Join(t.TempDir(), "deps"), workspace.PresenceGlob, &recordingClone{})

	_, err := f.Run(context.Background(), manifest.Default().Deps, false)
	require.ErrorIs(t, err, ErrDepsDirMissing)
}

func TestRun_legacyReportsAllPresent(t *testing.T) {
	_, deps := testutil.CreateDepsDir(t)
	rc := &recordingClone{}
	f, out := newTestFetcher(deps, workspace.PresenceLegacy, rc)

	s, err := f.Run(context.Background(), manifest.Default().Deps, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Box2D"}, s.Present)
	assert.Empty(t, rc.calls)
	assert.Equal(t, "Box2D not\n", out.String())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "fetched", OutcomeFetched.String())
	assert.Equal(t, "present", OutcomePresent.String())
}
