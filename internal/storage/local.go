package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalCatalog inspects the on-disk placeholder directory. The layout is one
// subdirectory per category (business/, nature/, default/, ...) holding JPEG
// or PNG files.
type LocalCatalog struct {
	dir string
}

func NewLocalCatalog(dir string) *LocalCatalog {
	return &LocalCatalog{dir: dir}
}

func (c *LocalCatalog) Dir() string { return c.dir }

func (c *LocalCatalog) EnsureDir() error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create placeholder directory: %w", err)
	}
	return nil
}

// Images returns every image in the catalog, as paths relative to the
// catalog root.
func (c *LocalCatalog) Images() ([]string, error) {
	var images []string
	err := filepath.WalkDir(c.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isImageName(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(c.dir, path)
		if err != nil {
			return err
		}
		images = append(images, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan placeholder directory: %w", err)
	}
	return images, nil
}

// Categories lists the category subdirectories that contain at least one image.
func (c *LocalCatalog) Categories() ([]string, error) {
	images, err := c.Images()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var categories []string
	for _, img := range images {
		dir := filepath.Dir(img)
		if dir == "." || seen[dir] {
			continue
		}
		seen[dir] = true
		categories = append(categories, dir)
	}
	return categories, nil
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
