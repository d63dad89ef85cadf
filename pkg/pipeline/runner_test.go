package pipeline

import (
	"bytes"
	"context"
	"image/color"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/sheetpack/pkg/cache"
	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/observability"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

func writeSprites(t *testing.T, sizes map[string][2]int) string {
	t.Helper()
	dir := t.TempDir()
	for name, wh := range sizes {
		img := imaging.New(wh[0], wh[1], color.NRGBA{R: 255, A: 255})
		if err := imaging.Save(img, filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, log.NewWithOptions(&bytes.Buffer{}, log.Options{}))
	t.Cleanup(func() { r.Close() })
	return r
}

func TestExecute(t *testing.T) {
	src := writeSprites(t, map[string][2]int{
		"hero.png": {32, 48},
		"coin.png": {16, 16},
	})
	out := t.TempDir()
	opts := Options{
		Inputs:    []string{src},
		Image:     filepath.Join(out, "atlas.png"),
		Preview:   filepath.Join(out, "preview.png"),
		MaxWidth:  256,
		MaxHeight: 256,
	}

	r := newTestRunner(t)
	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Stats.Sprites != 2 || res.Stats.Width != 48 || res.Stats.Height != 48 {
		t.Errorf("stats = %+v, want 2 sprites on 48x48", res.Stats)
	}
	if res.CacheInfo.MeasureHits != 0 || res.CacheInfo.LayoutHit || res.CacheInfo.ImageHit {
		t.Errorf("first run should not hit the cache: %+v", res.CacheInfo)
	}

	mapPath := filepath.Join(out, "atlas.txt")
	want := "coin = 32 0 16 16\nhero = 0 0 32 48\n"
	if got := string(res.Artifacts[mapPath]); got != want {
		t.Errorf("map =\n%s\nwant\n%s", got, want)
	}

	img, err := imaging.Decode(bytes.NewReader(res.Artifacts[opts.Image]))
	if err != nil {
		t.Fatalf("decode sheet: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 48 {
		t.Errorf("sheet is %v, want 48x48", b)
	}
	if _, ok := res.Artifacts[opts.Preview]; !ok {
		t.Error("preview artifact missing")
	}

	// Second run is served from the cache.
	again, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if again.CacheInfo.MeasureHits != 2 || !again.CacheInfo.LayoutHit || !again.CacheInfo.ImageHit {
		t.Errorf("second run CacheInfo = %+v, want all hits", again.CacheInfo)
	}
	if !bytes.Equal(again.Artifacts[opts.Image], res.Artifacts[opts.Image]) {
		t.Error("cached sheet differs from the original")
	}
	if _, ok := again.Artifacts[opts.Preview]; !ok {
		t.Error("preview should be rebuilt from the cached sheet")
	}
}

func TestExecuteRefresh(t *testing.T) {
	src := writeSprites(t, map[string][2]int{"a.png": {8, 8}})
	opts := Options{Inputs: []string{src}, Image: filepath.Join(t.TempDir(), "a.png")}

	r := newTestRunner(t)
	if _, err := r.Execute(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	opts.Refresh = true
	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.LayoutHit || res.CacheInfo.ImageHit {
		t.Errorf("Refresh should bypass cached layouts and images: %+v", res.CacheInfo)
	}
}

func TestExecuteErrors(t *testing.T) {
	src := writeSprites(t, map[string][2]int{"wide.png": {300, 10}})
	r := NewRunner(nil, nil, nil)

	_, err := r.Execute(context.Background(), Options{
		Inputs:    []string{src},
		Image:     filepath.Join(t.TempDir(), "atlas.png"),
		MaxWidth:  256,
		MaxHeight: 256,
	})
	if !errors.Is(err, errors.ErrCodeInsufficientSpace) {
		t.Errorf("Execute error = %v, want INSUFFICIENT_SPACE", err)
	}

	_, err = r.Execute(context.Background(), Options{Image: "a.png"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Execute without inputs error = %v, want INVALID_INPUT", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Execute(ctx, Options{Inputs: []string{src}, Image: filepath.Join(t.TempDir(), "atlas.png")})
	if err == nil {
		t.Error("Execute with canceled context should fail")
	}
}

func TestPack(t *testing.T) {
	r := newTestRunner(t)
	items := []packing.Item{
		{ID: "small", Width: 10, Height: 10},
		{ID: "large", Width: 30, Height: 30},
		{ID: "medium", Width: 20, Height: 20},
	}
	opts := Options{MaxWidth: 100, MaxHeight: 100}

	res, hit, err := r.PackWithCacheInfo(context.Background(), items, opts)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if hit {
		t.Error("first Pack should miss")
	}
	// Items are sorted before packing regardless of input order.
	if res.Width != 60 || res.Height != 30 {
		t.Errorf("sheet = %dx%d, want 60x30", res.Width, res.Height)
	}
	if items[0].ID != "small" {
		t.Error("Pack must not reorder the caller's slice")
	}

	cached, hit, err := r.PackWithCacheInfo(context.Background(), items, opts)
	if err != nil || !hit {
		t.Fatalf("second Pack = %v, %v; want cache hit", hit, err)
	}
	if cached.Placements["large"] != res.Placements["large"] {
		t.Error("cached layout differs")
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	trials atomic.Int32
}

func (h *countingHooks) OnTrial(context.Context, int, int, int, bool) { h.trials.Add(1) }

func TestPackReportsTrials(t *testing.T) {
	hooks := &countingHooks{}
	observability.SetPipelineHooks(hooks)
	t.Cleanup(observability.Reset)

	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})
	r := NewRunner(nil, nil, logger)

	_, err := r.Pack(context.Background(), []packing.Item{{ID: "a", Width: 10, Height: 20}}, Options{MaxWidth: 100, MaxHeight: 100})
	if err != nil {
		t.Fatal(err)
	}
	if n := hooks.trials.Load(); n != 2 {
		t.Errorf("OnTrial called %d times, want 2", n)
	}
	if !strings.Contains(logs.String(), "trial") {
		t.Errorf("debug log should mention trials:\n%s", logs.String())
	}
}
