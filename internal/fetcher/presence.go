package fetcher

import (
	"fmt"
	"os"
	"strings"

	"github.com/GrimEthos/backwater/internal/workspace"
	"github.com/bmatcuk/doublestar"
)

// Present reports whether name already has a copy in dir.
//
// In PresenceLegacy mode every dependency is reported as present without
// looking at dir.
func Present(dir, name string, mode workspace.PresenceMode) (bool, error) {
	if mode == workspace.PresenceLegacy {
		return true, nil
	}
	_, ok, err := Match(dir, name)
	return ok, err
}

// Match returns the first entry of dir (in lexical order) matching name*,
// compared case-insensitively.
func Match(dir, name string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, fmt.Errorf("reading deps directory: %w", err)
	}
	pattern := strings.ToLower(name) + "*"
	for _, e := range entries {
		ok, err := doublestar.Match(pattern, strings.ToLower(e.Name()))
		if err != nil {
			return "", false, fmt.Errorf("matching %s: %w", pattern, err)
		}
		if ok {
			return e.Name(), true, nil
		}
	}
	return "", false, nil
}
