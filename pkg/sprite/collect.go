package sprite

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/sheetpack/pkg/errors"
)

// IsImageFile reports whether path has a supported image extension.
func IsImageFile(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return slices.Contains(errors.ImageExtensions, ext)
}

// Name returns the sprite name for path: the base name without extension.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Collect expands paths into image files. Directories are walked recursively
// in lexical order and non-image files inside them are skipped; a file named
// explicitly must be an image. Duplicates are dropped, first occurrence wins.
func Collect(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		if err := errors.ValidatePath(p); err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "sprite path not found: %s", p)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "stat %s", p)
		}

		if !info.IsDir() {
			if err := errors.ValidateImageExtension(p); err != nil {
				return nil, err
			}
			add(p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsImageFile(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "walk %s", p)
		}
	}

	if len(files) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no sprite images found")
	}
	return files, nil
}
