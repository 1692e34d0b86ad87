// Package dotdir manages the .crewlog/ and ~/.crewlog directories.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the crewlog directory.
	DirName = ".crewlog"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .crewlog/ directory.
// Order of precedence is as follows:
//  1. Provided override, created if missing
//  2. Local ./.crewlog/ dir
//  3. Home ~/.crewlog/ dir
//  4. If none found, an empty string
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating crewlog directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if m.localDirExists() {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		return filepath.Join(cwd, DirName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		// No home directory is not an error: there is simply no target.
		return "", nil
	}

	dir := filepath.Join(home, DirName)
	if isDir(dir) {
		return dir, nil
	}

	return "", nil
}

// LocalDir returns the path of the .crewlog/ directory in the current
// working directory, whether or not it exists.
func (m *Manager) LocalDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return filepath.Join(cwd, DirName), nil
}

// localDirExists checks whether a .crewlog/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	return isDir(filepath.Join(cwd, DirName))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
