package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned when no vault marker exists above the start directory.
var ErrRootNotFound = errors.New("root not found")

// Markers that identify a vault root, checked in order.
var rootMarkers = []string{".budgetry", ".git", "budgetry.toml"}

// FindRoot walks upwards from startDir until it finds a directory holding
// one of the vault markers and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, marker := range rootMarkers {
			if hasFile(dir, marker) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
