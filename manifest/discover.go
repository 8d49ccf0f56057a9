package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName is the conventional configuration document name.
const DefaultFileName = "superface/super.json"

// MaxDiscoveryLevels bounds how many parent directories Discover walks
// before giving up.
const MaxDiscoveryLevels = 16

// ErrNotFound is returned by Discover when no configuration document is
// found within MaxDiscoveryLevels parent directories.
var ErrNotFound = errors.New("manifest: no super.json found")

// Discover locates the configuration document starting from dir, checking
// dir/superface/super.json and then walking up through each parent directory
// up to MaxDiscoveryLevels times. An empty dir starts from the current
// working directory.
func Discover(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("manifest: discover: %w", err)
		}
		dir = wd
	}

	current := dir
	for level := 0; level <= MaxDiscoveryLevels; level++ {
		candidate := filepath.Join(current, DefaultFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", ErrNotFound
}

// Load reads and normalizes the configuration document at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	raw, err := UnmarshalRawDocument(data)
	if err != nil {
		return Document{}, err
	}
	return Normalize(raw)
}

// LoadDiscovered locates and loads the configuration document starting from
// dir, per Discover's search rules.
func LoadDiscovered(dir string) (Document, error) {
	path, err := Discover(dir)
	if err != nil {
		return Document{}, err
	}
	return Load(path)
}
