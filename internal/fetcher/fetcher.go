package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/GrimEthos/backwater/internal/git"
	"github.com/GrimEthos/backwater/internal/manifest"
	"github.com/GrimEthos/backwater/internal/ui"
	"github.com/GrimEthos/backwater/internal/workspace"
	"github.com/danjacques/gofslock/fslock"
)

// LockFile is created next to the deps directory (in its parent) while a
// clone is running, so the deps directory only ever holds cloned trees.
const LockFile = ".fetchdeps.lock"

const defaultLockRetry = 500 * time.Millisecond

var (
	// ErrDepsDirMissing is returned when the deps directory does not exist.
	ErrDepsDirMissing = errors.New("deps directory not found")
	// ErrCloneFailed wraps a failed clone of a dependency.
	ErrCloneFailed = errors.New("clone failed")
)

// CloneFunc clones url into a new subdirectory of dir.
type CloneFunc func(ctx context.Context, dir, url string) error

// Outcome is the result of a successful Ensure.
type Outcome int

const (
	// OutcomePresent means a copy already existed and nothing was done.
	OutcomePresent Outcome = iota
	// OutcomeFetched means the dependency was cloned.
	OutcomeFetched
)

func (o Outcome) String() string {
	if o == OutcomeFetched {
		return "fetched"
	}
	return "present"
}

// Fetcher clones missing dependencies into DepsDir.
type Fetcher struct {
	DepsDir  string
	Mode     workspace.PresenceMode
	Clone    CloneFunc
	Reporter *ui.Reporter

	// LockRetry is how long to wait before retrying when another process
	// holds the deps directory lock.
	LockRetry time.Duration
}

// New returns a Fetcher that clones with git.
func New(depsDir string, mode workspace.PresenceMode, reporter *ui.Reporter) *Fetcher {
	return &Fetcher{
		DepsDir:   depsDir,
		Mode:      mode,
		Clone:     git.Clone,
		Reporter:  reporter,
		LockRetry: defaultLockRetry,
	}
}

// Ensure makes sure dep has a copy in the deps directory, cloning it when
// absent. It prints "<name> is" before cloning and "<name> not" when a copy
// is already present.
func (f *Fetcher) Ensure(ctx context.Context, dep manifest.Dependency) (Outcome, error) {
	if err := manifest.ValidateName(dep.Name); err != nil {
		return OutcomePresent, err
	}
	if dep.URL == "" {
		return OutcomePresent, fmt.Errorf("dependency %s: url is required", dep.Name)
	}
	if err := f.checkDepsDir(); err != nil {
		return OutcomePresent, err
	}

	present, err := Present(f.DepsDir, dep.Name, f.Mode)
	if err != nil {
		return OutcomePresent, err
	}
	if present {
		f.Reporter.Present(dep.Name)
		return OutcomePresent, nil
	}

	outcome := OutcomePresent
	err = f.withLock(ctx, func() error {
		// Another process may have finished the clone while we waited.
		present, err := Present(f.DepsDir, dep.Name, f.Mode)
		if err != nil {
			return err
		}
		if present {
			f.Reporter.Present(dep.Name)
			return nil
		}

		f.Reporter.Fetching(dep.Name)
		if err := f.Clone(ctx, f.DepsDir, dep.URL); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCloneFailed, dep.Name, err)
		}
		outcome = OutcomeFetched
		return nil
	})
	return outcome, err
}

// Summary records what Run did with each dependency.
type Summary struct {
	Fetched []string
	Present []string
	Failed  []string
}

// Run ensures every dependency in order. A failed optional dependency is
// logged and skipped; a failed required dependency, or any failure when
// strict is set, stops the run. A missing deps directory always stops it.
func (f *Fetcher) Run(ctx context.Context, deps []manifest.Dependency, strict bool) (Summary, error) {
	var s Summary
	for _, d := range deps {
		outcome, err := f.Ensure(ctx, d)
		if err != nil {
			s.Failed = append(s.Failed, d.Name)
			if errors.Is(err, ErrDepsDirMissing) || ctx.Err() != nil {
				return s, err
			}
			if strict || d.IsRequired() {
				return s, fmt.Errorf("dependency %s: %w", d.Name, err)
			}
			slog.Warn("optional dependency not fetched", "name", d.Name, "err", err)
			continue
		}
		switch outcome {
		case OutcomeFetched:
			s.Fetched = append(s.Fetched, d.Name)
		default:
			s.Present = append(s.Present, d.Name)
		}
	}
	return s, nil
}

func (f *Fetcher) checkDepsDir() error {
	info, err := os.Stat(f.DepsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrDepsDirMissing, err)
		}
		return fmt.Errorf("checking deps directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDepsDirMissing, f.DepsDir)
	}
	return nil
}

func (f *Fetcher) lockPath() string {
	return filepath.Join(filepath.Dir(filepath.Clean(f.DepsDir)), LockFile)
}

// withLock runs fn while holding the deps directory lock, waiting for other
// fetchdeps processes to release it.
func (f *Fetcher) withLock(ctx context.Context, fn func() error) error {
	path := f.lockPath()
	delay := f.LockRetry
	if delay <= 0 {
		delay = defaultLockRetry
	}
	for {
		err := fslock.With(path, fn)
		if err != fslock.ErrLockHeld { //nolint:errorlint // sentinel returned unwrapped by fslock
			return err
		}
		slog.Warn("deps directory is locked by another process, retrying", "lock", path, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
