package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/sheetpack/pkg/errors"
)

// PairedPath returns path with its extension replaced by ext, so that
// "out/atlas.png" pairs with "out/atlas.txt".
func PairedPath(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + normalizeExt(ext)
}

// Extension returns the lower-case extension of path without the dot.
func Extension(path string) string {
	return normalizeExt(filepath.Ext(path))
}

// SaveImage encodes img to path in the format given by its extension.
func SaveImage(path string, img image.Image) error {
	e, err := ImageExporterFor(Extension(path))
	if err != nil {
		return err
	}
	return writeFile(path, func(f *os.File) error { return e.Export(f, img) })
}

// SaveMap writes a to path in the map format given by its extension.
func SaveMap(path string, a *Atlas) error {
	e, err := MapExporterFor(Extension(path))
	if err != nil {
		return err
	}
	return writeFile(path, func(f *os.File) error { return e.Export(f, a) })
}

// WriteFile writes already encoded data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	return writeFile(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// LoadMap reads a map file in the format given by its extension.
func LoadMap(path string) (*Atlas, error) {
	imp, err := MapImporterFor(Extension(path))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "map not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	a, err := imp.Import(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if a.Image == "" {
		a.Image = guessImage(path)
	}
	return a, nil
}

// guessImage returns the first existing image next to a map file, or "".
func guessImage(mapPath string) string {
	for _, ext := range []string{"png", "tif", "gif", "bmp", "jpg"} {
		p := PairedPath(mapPath, ext)
		if _, err := os.Stat(p); err == nil {
			return filepath.Base(p)
		}
	}
	return ""
}

// writeFile writes through a temporary file in the target directory and
// renames it into place, so a failed write leaves any existing file intact.
func writeFile(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
