package texture

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Index maps lowercase texture stems to filesystem paths.
// When two files share a stem the format with alpha wins (PNG, then TGA,
// then JPEG).
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex walks dir recursively for supported image files. A missing
// dir yields an empty index.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	if dir == "" {
		return idx
	}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !Supported(path) {
			return nil
		}
		idx.add(path)
		return nil
	})
	return idx
}

func (idx *Index) add(path string) {
	stem := stemOf(path)
	existing, exists := idx.entries[stem]
	if !exists || priority(strings.ToLower(filepath.Ext(path))) < priority(strings.ToLower(filepath.Ext(existing))) {
		idx.entries[stem] = path
	}
}

func stemOf(name string) string {
	// Strip path prefix (e.g., "Props\\wood.jpg" → "wood")
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
func (idx *Index) ResolvePath(texName string) (string, bool) {
	path, ok := idx.entries[stemOf(texName)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
