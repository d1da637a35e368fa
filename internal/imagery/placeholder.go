package imagery

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed assets/default.png
var defaultPlaceholder []byte

// Store is the terminal safety net of the pipeline: a bundled catalog of
// generic images partitioned by coarse category. Get never fails on a sane
// install; with an empty catalog it materializes the embedded default image.
type Store struct {
	dir string
}

// Catalog categories, matched against topic words. Order matters only for
// determinism when several categories match.
var categoryHints = []struct {
	category string
	words    []string
}{
	{"business", []string{"business", "finance", "market", "economy", "startup", "sales", "money", "management", "strategy"}},
	{"nature", []string{"nature", "ocean", "forest", "animal", "climate", "environment", "wildlife", "plant", "water", "earth", "conservation"}},
	{"technology", []string{"technology", "software", "computer", "ai", "robot", "internet", "data", "digital", "engineering", "code"}},
	{"science", []string{"science", "physics", "chemistry", "biology", "space", "medicine", "research", "health", "astronomy"}},
	{"abstract", []string{"art", "design", "music", "culture", "history", "philosophy", "idea"}},
}

const defaultCategory = "default"

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Get returns a placeholder image for the topic hint. seq rotates among the
// images of the matched category, so several placeholder slides in one deck
// do not all repeat the same file. The result always has Placeholder set.
// The only hard error is a catalog path that exists but cannot be read or
// written.
func (s *Store) Get(hint string, seq int) (Result, error) {
	category := matchCategory(hint)

	path, err := s.pick(category, seq)
	if err != nil && category != defaultCategory {
		path, err = s.pick(defaultCategory, seq)
	}
	if err != nil {
		path, err = s.materializeDefault()
		if err != nil {
			return Result{}, fmt.Errorf("placeholder catalog unusable at %s: %w", s.dir, err)
		}
	}

	return Result{
		Source:      "placeholder",
		Path:        path,
		Attribution: "Bundled placeholder",
		Placeholder: true,
	}, nil
}

// matchCategory maps a free-form topic hint onto a catalog category.
func matchCategory(hint string) string {
	words := strings.Fields(strings.ToLower(hint))
	for _, entry := range categoryHints {
		for _, w := range words {
			trimmed := strings.Trim(w, ".,!?;:'\"()")
			for _, hintWord := range entry.words {
				if trimmed == hintWord {
					return entry.category
				}
			}
		}
	}
	return defaultCategory
}

func (s *Store) pick(category string, seq int) (string, error) {
	dir := filepath.Join(s.dir, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".jpg" || ext == ".jpeg" || ext == ".png" {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}
	if len(images) == 0 {
		return "", fmt.Errorf("no images in %s", dir)
	}

	sort.Strings(images)
	if seq < 0 {
		seq = 0
	}
	return images[seq%len(images)], nil
}

func (s *Store) materializeDefault() (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, "default.png")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.WriteFile(path, defaultPlaceholder, 0o644); err != nil {
		return "", err
	}
	slog.Info("Materialized embedded default placeholder", "path", path)
	return path, nil
}
