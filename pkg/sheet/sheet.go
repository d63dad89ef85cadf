// Package sheet draws packed sprites onto a single transparent canvas.
package sheet

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"slices"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

// Layer is one sprite to draw: its source file and its place on the sheet.
type Layer struct {
	Name string
	Path string
	Rect packing.Rect
}

// OpenFunc loads the image for a layer.
type OpenFunc func(path string) (image.Image, error)

// Open decodes the image at path.
func Open(path string) (image.Image, error) {
	return imaging.Open(path)
}

// Compose returns a width x height NRGBA sheet with every layer copied to
// its rectangle. Each source image must be exactly the size of its
// rectangle. A nil open uses [Open]. The context is checked between layers.
func Compose(ctx context.Context, width, height int, layers []Layer, open OpenFunc) (*image.NRGBA, error) {
	if width < 1 || height < 1 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sheet size must be positive, got %dx%d", width, height)
	}
	if open == nil {
		open = Open
	}

	ordered := slices.Clone(layers)
	slices.SortFunc(ordered, func(a, b Layer) int { return strings.Compare(a.Name, b.Name) })

	dst := imaging.New(width, height, color.NRGBA{})
	for _, l := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !l.Rect.Within(width, height) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "sprite %q at %v is outside the %dx%d sheet", l.Name, l.Rect, width, height)
		}

		src, err := open(l.Path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "load sprite %q", l.Name)
		}
		b := src.Bounds()
		if b.Dx() != l.Rect.Width || b.Dy() != l.Rect.Height {
			return nil, errors.New(errors.ErrCodeInvalidImage,
				"sprite %q is %dx%d, layout expects %dx%d (file changed since it was measured?)",
				l.Name, b.Dx(), b.Dy(), l.Rect.Width, l.Rect.Height)
		}

		r := image.Rect(l.Rect.X, l.Rect.Y, l.Rect.Right(), l.Rect.Bottom())
		draw.Draw(dst, r, src, b.Min, draw.Src)
	}
	return dst, nil
}

// Preview scales a sheet to fit within maxWidth x maxHeight, keeping its
// aspect ratio. Sheets that already fit are returned unchanged.
func Preview(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.NearestNeighbor)
}
