package sheet

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func solid(images map[string]image.Image) OpenFunc {
	return func(path string) (image.Image, error) {
		img, ok := images[path]
		if !ok {
			return nil, fmt.Errorf("no image %s", path)
		}
		return img, nil
	}
}

func TestCompose(t *testing.T) {
	open := solid(map[string]image.Image{
		"red.png":  imaging.New(4, 2, red),
		"blue.png": imaging.New(2, 3, blue),
	})
	layers := []Layer{
		{Name: "red", Path: "red.png", Rect: packing.Rect{X: 0, Y: 0, Width: 4, Height: 2}},
		{Name: "blue", Path: "blue.png", Rect: packing.Rect{X: 5, Y: 1, Width: 2, Height: 3}},
	}

	img, err := Compose(context.Background(), 8, 4, layers, open)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 4 {
		t.Fatalf("bounds = %v, want 8x4", b)
	}

	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, red},
		{3, 1, red},
		{5, 1, blue},
		{6, 3, blue},
		{4, 0, color.NRGBA{}}, // padding column stays transparent
		{0, 3, color.NRGBA{}},
	}
	for _, tt := range tests {
		if got := img.NRGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestComposeFromFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.png")
	if err := imaging.Save(imaging.New(3, 3, red), path); err != nil {
		t.Fatal(err)
	}

	img, err := Compose(context.Background(), 4, 4, []Layer{
		{Name: "hero", Path: path, Rect: packing.Rect{X: 1, Y: 1, Width: 3, Height: 3}},
	}, nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got := img.NRGBAAt(3, 3); got != red {
		t.Errorf("pixel (3,3) = %v, want red", got)
	}
}

func TestComposeErrors(t *testing.T) {
	open := solid(map[string]image.Image{"a.png": imaging.New(2, 2, red)})
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		w, h   int
		layers []Layer
		code   errors.Code
	}{
		{"empty sheet", context.Background(), 0, 4, nil, errors.ErrCodeInvalidInput},
		{"outside sheet", context.Background(), 4, 4, []Layer{{Name: "a", Path: "a.png", Rect: packing.Rect{X: 3, Y: 0, Width: 2, Height: 2}}}, errors.ErrCodeInvalidInput},
		{"size mismatch", context.Background(), 4, 4, []Layer{{Name: "a", Path: "a.png", Rect: packing.Rect{Width: 3, Height: 2}}}, errors.ErrCodeInvalidImage},
		{"missing file", context.Background(), 4, 4, []Layer{{Name: "b", Path: "b.png", Rect: packing.Rect{Width: 2, Height: 2}}}, errors.ErrCodeInvalidImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose(tt.ctx, tt.w, tt.h, tt.layers, open)
			if !errors.Is(err, tt.code) {
				t.Errorf("Compose error = %v, want %s", err, tt.code)
			}
		})
	}

	t.Run("canceled", func(t *testing.T) {
		layers := []Layer{{Name: "a", Path: "a.png", Rect: packing.Rect{Width: 2, Height: 2}}}
		if _, err := Compose(canceled, 4, 4, layers, open); err != context.Canceled {
			t.Errorf("Compose error = %v, want context.Canceled", err)
		}
	})
}

func TestPreview(t *testing.T) {
	small := imaging.New(64, 32, red)
	if got := Preview(small, 128, 128); got != image.Image(small) {
		t.Error("Preview should return sheets that already fit unchanged")
	}

	big := imaging.New(1024, 512, red)
	b := Preview(big, 256, 256).Bounds()
	if b.Dx() != 256 || b.Dy() != 128 {
		t.Errorf("Preview bounds = %v, want 256x128", b)
	}
}
