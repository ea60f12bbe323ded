package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Clone runs "git clone -- <url>" inside dir. The new directory is named by
// git after the repository, exactly as a bare "git clone" would name it.
// The "--" keeps a manifest URL from ever being parsed as a git option.
func Clone(ctx context.Context, dir, url string) error {
	if err := run(ctx, dir, "clone", "--", url); err != nil {
		return fmt.Errorf("cloning %s: %w", url, err)
	}
	return nil
}

// IsInstalled returns true if git is available on the system PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Version returns the output of "git version".
func Version(ctx context.Context) (string, error) {
	out, err := outputQuiet(ctx, ".", "version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// run executes a git command in the given directory with the console
// streams inherited.
func run(ctx context.Context, dir string, args ...string) error {
	slog.Debug("executing", "cmd", "git", "args", strings.Join(args, " "), "dir", dir)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// outputQuiet executes a git command and returns its stdout without printing to the console.
func outputQuiet(ctx context.Context, dir string, args ...string) (string, error) {
	slog.Debug("executing", "cmd", "git", "args", strings.Join(args, " "), "dir", dir)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
