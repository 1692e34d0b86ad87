// Package sqlitepath locates the crewlog analysis database when no path is
// given on the command line or in config.toml.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no candidate database exists.
var ErrNotFound = errors.New("could not find crewlog SQLite database; pass --sqlite")

// ResolveSQLitePath returns override when set, then $CREWLOG_SQLITE, then the
// first existing candidate: $XDG_DATA_HOME/crewlog, ~/.crewlog, ./.crewlog
// and the working directory.
func ResolveSQLitePath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("CREWLOG_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", ErrNotFound
}

func sqliteCandidates() []string {
	candidates := []string{
		"crewlog.db",
		filepath.Join(".crewlog", "crewlog.db"),
	}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append([]string{
			filepath.Join(home, ".crewlog", "crewlog.db"),
		}, candidates...)
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append([]string{
			filepath.Join(xdgHome, "crewlog", "crewlog.db"),
		}, candidates...)
	}

	return candidates
}
