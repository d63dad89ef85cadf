package sprite

import (
	"context"
	"image"
	"os"
	"runtime"

	// Decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

// Size is the pixel size of an image.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Sprite is one measured image file.
type Sprite struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Item returns the sprite as a packing item keyed by its name.
func (s Sprite) Item() packing.Item {
	return packing.Item{ID: s.Name, Width: s.Width, Height: s.Height}
}

// MeasureFunc reads the size of the image at path.
type MeasureFunc func(ctx context.Context, path string) (Size, error)

// Measure decodes the image header at path.
func Measure(_ context.Context, path string) (Size, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Size{}, errors.New(errors.ErrCodeFileNotFound, "sprite not found: %s", path)
	}
	if err != nil {
		return Size{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Size{}, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode %s", path)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Size{}, errors.New(errors.ErrCodeInvalidImage, "%s image %s is empty (%dx%d)", format, path, cfg.Width, cfg.Height)
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// MeasureAll measures paths with up to workers goroutines (GOMAXPROCS when
// workers < 1) and returns sprites in input order. A nil measure uses
// [Measure]. Two files with the same name are rejected since the name is the
// sprite's key in every map format.
func MeasureAll(ctx context.Context, paths []string, workers int, measure MeasureFunc) ([]Sprite, error) {
	if measure == nil {
		measure = Measure
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	owner := make(map[string]string, len(paths))
	sprites := make([]Sprite, len(paths))
	for i, p := range paths {
		name := Name(p)
		if err := errors.ValidateSpriteName(name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "sprite %s", p)
		}
		if prev, dup := owner[name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "sprites %s and %s share the name %q", prev, p, name)
		}
		owner[name] = p
		sprites[i] = Sprite{Name: name, Path: p}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range sprites {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			size, err := measure(ctx, sprites[i].Path)
			if err != nil {
				return err
			}
			sprites[i].Width, sprites[i].Height = size.Width, size.Height
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sprites, nil
}

// Items converts sprites to packing items, preserving order.
func Items(sprites []Sprite) []packing.Item {
	items := make([]packing.Item, len(sprites))
	for i, s := range sprites {
		items[i] = s.Item()
	}
	return items
}
