// Package catalog enumerates the displayable images under the photo library
// directory.
package catalog

import (
	"errors"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var extensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
}

// IsImage reports whether path carries one of the catalog extensions. The
// comparison ignores case.
func IsImage(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Catalog lists images found under Dir. The directory is read again on every
// call so newly added or removed files show up on the next pass.
type Catalog struct {
	Dir     string
	Shuffle bool
	// Rand drives shuffling; nil uses the global source.
	Rand *rand.Rand
}

// List walks Dir recursively and returns every image path. With Shuffle the
// order is a fresh permutation per call; otherwise paths are sorted. A
// missing directory yields an empty list.
func (c Catalog) List() ([]string, error) {
	paths, err := ListImages(c.Dir)
	if err != nil {
		return nil, err
	}
	if c.Shuffle {
		shuffle := rand.Shuffle
		if c.Rand != nil {
			shuffle = c.Rand.Shuffle
		}
		shuffle(len(paths), func(i, j int) { paths[i], paths[j] = paths[j], paths[i] })
	}
	return paths, nil
}

// ListImages returns the sorted image paths under dir. Subtrees that cannot
// be read are skipped.
func ListImages(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return []string{}, nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return []string{}, nil
	}

	paths := []string{}
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			if path == dir {
				return err
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeType != 0 && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		if IsImage(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	slices.Sort(paths)
	return paths, nil
}
