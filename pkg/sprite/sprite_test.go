package sprite

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

// writeImage saves a solid w x h image at dir/name; the format follows the
// extension.
func writeImage(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := imaging.New(w, h, color.NRGBA{R: 200, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"hero.png":        true,
		"HERO.PNG":        true,
		"dir/coin.jpeg":   true,
		"tiles.webp":      true,
		"notes.txt":       false,
		"archive.png.zip": false,
		"noext":           false,
	}
	for path, want := range tests {
		if got := IsImageFile(path); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestName(t *testing.T) {
	tests := map[string]string{
		"hero.png":             "hero",
		"sprites/ui/btn.1.png": "btn.1",
		"noext":                "noext",
	}
	for path, want := range tests {
		if got := Name(path); got != want {
			t.Errorf("Name(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	a := writeImage(t, dir, "a.png", 4, 4)
	b := writeImage(t, dir, "sub/b.gif", 4, 4)
	c := writeImage(t, dir, "sub/deeper/c.bmp", 4, 4)
	if err := os.WriteFile(filepath.Join(dir, "sub", "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	single := writeImage(t, t.TempDir(), "single.jpg", 2, 2)

	got, err := Collect([]string{single, dir, a})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []string{single, a, b, c}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Collect = %v, want %v", got, want)
	}
}

func TestCollectErrors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := t.TempDir()

	tests := []struct {
		name  string
		paths []string
		code  errors.Code
	}{
		{"missing", []string{filepath.Join(dir, "nope.png")}, errors.ErrCodeFileNotFound},
		{"explicit non-image", []string{txt}, errors.ErrCodeInvalidFormat},
		{"empty path", []string{""}, errors.ErrCodeInvalidPath},
		{"no images", []string{empty}, errors.ErrCodeInvalidInput},
		{"nothing given", nil, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Collect(tt.paths)
			if !errors.Is(err, tt.code) {
				t.Errorf("Collect error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestMeasure(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.jpg", "c.gif", "d.bmp", "e.tif"} {
		t.Run(name, func(t *testing.T) {
			path := writeImage(t, dir, name, 7, 3)
			size, err := Measure(context.Background(), path)
			if err != nil {
				t.Fatalf("Measure: %v", err)
			}
			if size != (Size{Width: 7, Height: 3}) {
				t.Errorf("Measure = %+v, want 7x3", size)
			}
		})
	}
}

func TestMeasureErrors(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.png")
	if err := os.WriteFile(bogus, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Measure(context.Background(), filepath.Join(dir, "missing.png")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
	if _, err := Measure(context.Background(), bogus); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("bogus file error = %v", err)
	}
}

func TestMeasureAll(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeImage(t, dir, "wide.png", 30, 5),
		writeImage(t, dir, "tall.png", 5, 30),
		writeImage(t, dir, "dot.png", 1, 1),
	}

	sprites, err := MeasureAll(context.Background(), paths, 2, nil)
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	want := []Sprite{
		{Name: "wide", Path: paths[0], Width: 30, Height: 5},
		{Name: "tall", Path: paths[1], Width: 5, Height: 30},
		{Name: "dot", Path: paths[2], Width: 1, Height: 1},
	}
	if !reflect.DeepEqual(sprites, want) {
		t.Errorf("MeasureAll = %+v, want %+v", sprites, want)
	}

	items := Items(sprites)
	if items[1] != (packing.Item{ID: "tall", Width: 5, Height: 30}) {
		t.Errorf("Items()[1] = %+v", items[1])
	}
}

func TestMeasureAllUsesMeasureFunc(t *testing.T) {
	var calls atomic.Int32
	fake := func(_ context.Context, path string) (Size, error) {
		calls.Add(1)
		return Size{Width: len(path), Height: 1}, nil
	}

	sprites, err := MeasureAll(context.Background(), []string{"a.png", "bb.png"}, 0, fake)
	if err != nil {
		t.Fatalf("MeasureAll: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("measure called %d times, want 2", calls.Load())
	}
	if sprites[1].Width != len("bb.png") {
		t.Errorf("sprites[1].Width = %d", sprites[1].Width)
	}
}

func TestMeasureAllRejectsDuplicateNames(t *testing.T) {
	fake := func(context.Context, string) (Size, error) { return Size{1, 1}, nil }

	_, err := MeasureAll(context.Background(), []string{"a/hero.png", "b/hero.gif"}, 1, fake)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("MeasureAll error = %v, want INVALID_INPUT", err)
	}
}

func TestMeasureAllPropagatesErrors(t *testing.T) {
	fail := errors.New(errors.ErrCodeInvalidImage, "broken")
	fake := func(_ context.Context, path string) (Size, error) {
		if path == "bad.png" {
			return Size{}, fail
		}
		return Size{1, 1}, nil
	}

	_, err := MeasureAll(context.Background(), []string{"ok.png", "bad.png"}, 1, fake)
	if !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("MeasureAll error = %v, want INVALID_IMAGE", err)
	}
}

func TestMeasureAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := func(context.Context, string) (Size, error) { return Size{1, 1}, nil }
	if _, err := MeasureAll(ctx, []string{"a.png"}, 1, fake); err == nil {
		t.Error("MeasureAll on canceled context should fail")
	}
}
