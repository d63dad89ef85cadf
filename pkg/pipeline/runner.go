package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/sheetpack/pkg/cache"
	"github.com/matzehuels/sheetpack/pkg/export"
	"github.com/matzehuels/sheetpack/pkg/observability"
	"github.com/matzehuels/sheetpack/pkg/packing"
	"github.com/matzehuels/sheetpack/pkg/sheet"
	"github.com/matzehuels/sheetpack/pkg/sprite"
)

// Runner executes builds with caching.
//
// A Runner holds no per-build state, so one Runner can serve concurrent
// builds with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses [cache.DefaultKeyer] and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs collect → measure → pack → export.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Collect
	start := time.Now()
	paths, err := sprite.Collect(opts.Inputs)
	if err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}
	result.Stats.CollectTime = time.Since(start)
	r.Logger.Debug("collected sprites", "files", len(paths), "duration", result.Stats.CollectTime)

	// Stage 2: Measure
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start = time.Now()
	sprites, hits, err := r.MeasureWithCacheInfo(ctx, paths, opts)
	if err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}
	result.Sprites = sprites
	result.Stats.Sprites = len(sprites)
	result.Stats.MeasureTime = time.Since(start)
	result.CacheInfo.MeasureHits = hits
	r.Logger.Info("measured sprites",
		"sprites", len(sprites),
		"cached", hits,
		"duration", result.Stats.MeasureTime)

	// Stage 3: Pack
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start = time.Now()
	layout, layoutHit, err := r.PackWithCacheInfo(ctx, sprite.Items(sprites), opts)
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	result.Layout = layout
	result.Stats.PackTime = time.Since(start)
	result.Stats.Trials = layout.Trials
	result.Stats.Width, result.Stats.Height = layout.Width, layout.Height
	result.Stats.Occupancy = layout.Occupancy()
	result.CacheInfo.LayoutHit = layoutHit
	r.Logger.Info("packed sheet",
		"size", fmt.Sprintf("%dx%d", layout.Width, layout.Height),
		"trials", layout.Trials,
		"occupancy", fmt.Sprintf("%.1f%%", 100*result.Stats.Occupancy),
		"cached", layoutHit,
		"duration", result.Stats.PackTime)

	// Stage 4: Export
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start = time.Now()
	atlas := export.NewAtlas(filepath.Base(opts.Image), layout)
	artifacts, imageHit, err := r.ExportWithCacheInfo(ctx, sprites, atlas, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Atlas = atlas
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(start)
	result.CacheInfo.ImageHit = imageHit
	r.Logger.Info("exported sheet",
		"image", opts.Image,
		"map", opts.Map,
		"cached", imageHit,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// =============================================================================
// Measure
// =============================================================================

// MeasureWithCacheInfo measures paths, consulting the cache per file
// version, and returns how many sizes came from the cache.
func (r *Runner) MeasureWithCacheInfo(ctx context.Context, paths []string, opts Options) ([]sprite.Sprite, int, error) {
	hooks := observability.Pipeline()
	hooks.OnMeasureStart(ctx, len(paths))
	start := time.Now()

	var hits atomic.Int64
	measure := func(ctx context.Context, path string) (sprite.Size, error) {
		key, ok := r.measureKey(path)
		if ok {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				var size sprite.Size
				if json.Unmarshal(data, &size) == nil {
					hits.Add(1)
					observability.Cache().OnCacheHit(ctx, "measure")
					return size, nil
				}
			}
			observability.Cache().OnCacheMiss(ctx, "measure")
		}

		size, err := sprite.Measure(ctx, path)
		if err != nil {
			return sprite.Size{}, err
		}
		if ok {
			if data, err := json.Marshal(size); err == nil && r.Cache.Set(ctx, key, data, cache.TTLMeasure) == nil {
				observability.Cache().OnCacheSet(ctx, "measure", len(data))
			}
		}
		return size, nil
	}

	sprites, err := sprite.MeasureAll(ctx, paths, opts.Workers, measure)
	hooks.OnMeasureComplete(ctx, len(paths), time.Since(start), err)
	if err != nil {
		return nil, 0, err
	}
	return sprites, int(hits.Load()), nil
}

// Measure is MeasureWithCacheInfo without the hit count.
func (r *Runner) Measure(ctx context.Context, paths []string, opts Options) ([]sprite.Sprite, error) {
	sprites, _, err := r.MeasureWithCacheInfo(ctx, paths, opts)
	return sprites, err
}

// measureKey returns the cache key for the current version of path.
func (r *Runner) measureKey(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", false
	}
	return r.Keyer.MeasureKey(abs, cache.MeasureKeyOpts{Size: info.Size(), ModTime: info.ModTime()}), true
}

// =============================================================================
// Pack
// =============================================================================

// PackWithCacheInfo sorts items and packs them, reusing a cached layout for
// the same items and constraints unless opts.Refresh is set.
func (r *Runner) PackWithCacheInfo(ctx context.Context, items []packing.Item, opts Options) (*packing.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForPack(); err != nil {
		return nil, false, err
	}

	sorted := slices.Clone(items)
	packing.SortItems(sorted)

	itemsHash, err := cache.HashJSON(sorted)
	if err != nil {
		return nil, false, fmt.Errorf("hash items: %w", err)
	}
	key := r.Keyer.LayoutKey(itemsHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached packing.Result
			if json.Unmarshal(data, &cached) == nil && len(cached.Placements) == len(sorted) {
				observability.Cache().OnCacheHit(ctx, "layout")
				return &cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks := observability.Pipeline()
	hooks.OnPackStart(ctx, len(sorted))
	start := time.Now()

	res, err := packing.Optimize(sorted, opts.Constraints(), packing.WithTrialObserver(func(t packing.Trial) {
		hooks.OnTrial(ctx, t.Index, t.Width, t.Height, t.Packed)
		opts.Logger.Debug("trial",
			"n", t.Index,
			"canvas", fmt.Sprintf("%dx%d", t.Width, t.Height),
			"packed", t.Packed,
			"result", fmt.Sprintf("%dx%d", t.ResultWidth, t.ResultHeight))
	}))
	if err != nil {
		hooks.OnPackComplete(ctx, 0, 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnPackComplete(ctx, res.Width, res.Height, time.Since(start), nil)

	if data, err := json.Marshal(res); err == nil && r.Cache.Set(ctx, key, data, cache.TTLLayout) == nil {
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}
	return res, false, nil
}

// Pack is PackWithCacheInfo without the cache flag.
func (r *Runner) Pack(ctx context.Context, items []packing.Item, opts Options) (*packing.Result, error) {
	res, _, err := r.PackWithCacheInfo(ctx, items, opts)
	return res, err
}

// =============================================================================
// Export
// =============================================================================

// ExportWithCacheInfo composes and encodes the sheet and encodes the map.
// The encoded sheet is cached against the layout and the versions of the
// sprite files; the map is cheap and always re-encoded.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, sprites []sprite.Sprite, atlas *export.Atlas, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}

	formats := []string{export.Extension(opts.Image), export.Extension(opts.Map)}
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, formats)
	start := time.Now()

	artifacts, hit, err := r.export(ctx, sprites, atlas, opts)
	hooks.OnExportComplete(ctx, formats, time.Since(start), err)
	return artifacts, hit, err
}

// Export is ExportWithCacheInfo without the cache flag.
func (r *Runner) Export(ctx context.Context, sprites []sprite.Sprite, atlas *export.Atlas, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.ExportWithCacheInfo(ctx, sprites, atlas, opts)
	return artifacts, err
}

func (r *Runner) export(ctx context.Context, sprites []sprite.Sprite, atlas *export.Atlas, opts Options) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte, 3)

	var buf bytes.Buffer
	mapExp, err := export.MapExporterFor(export.Extension(opts.Map))
	if err != nil {
		return nil, false, err
	}
	if err := mapExp.Export(&buf, atlas); err != nil {
		return nil, false, fmt.Errorf("encode map: %w", err)
	}
	artifacts[opts.Map] = buf.Bytes()

	format := export.Extension(opts.Image)
	key, keyErr := r.imageKey(sprites, atlas, opts.ArtifactKeyOpts(format))

	var img []byte
	hit := false
	if keyErr == nil && !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			img, hit = data, true
			observability.Cache().OnCacheHit(ctx, "artifact")
		} else {
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
	}

	var composed image.Image
	if !hit {
		nrgba, err := sheet.Compose(ctx, atlas.Width, atlas.Height, layers(sprites, atlas), nil)
		if err != nil {
			return nil, false, err
		}
		composed = nrgba
		if img, err = export.EncodeImage(nrgba, format); err != nil {
			return nil, false, err
		}
		if keyErr == nil && r.Cache.Set(ctx, key, img, cache.TTLArtifact) == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(img))
		}
	}
	artifacts[opts.Image] = img

	if opts.Preview != "" {
		if composed == nil {
			if composed, err = imaging.Decode(bytes.NewReader(img)); err != nil {
				return nil, false, fmt.Errorf("decode cached sheet: %w", err)
			}
		}
		preview, err := export.EncodeImage(sheet.Preview(composed, PreviewSize, PreviewSize), "png")
		if err != nil {
			return nil, false, err
		}
		artifacts[opts.Preview] = preview
	}
	return artifacts, hit, nil
}

// imageKey identifies an encoded sheet by its layout and sprite file versions.
func (r *Runner) imageKey(sprites []sprite.Sprite, atlas *export.Atlas, opts cache.ArtifactKeyOpts) (string, error) {
	versions := make([]string, len(sprites))
	for i, s := range sprites {
		key, ok := r.measureKey(s.Path)
		if !ok {
			return "", fmt.Errorf("stat %s", s.Path)
		}
		versions[i] = key
	}
	layoutHash, err := cache.HashJSON(struct {
		Width    int
		Height   int
		Sprites  []export.Sprite
		Versions []string
	}{atlas.Width, atlas.Height, atlas.Sprites, versions})
	if err != nil {
		return "", err
	}
	return r.Keyer.ArtifactKey(layoutHash, opts), nil
}

// layers pairs each sprite file with its rectangle in atlas.
func layers(sprites []sprite.Sprite, atlas *export.Atlas) []sheet.Layer {
	out := make([]sheet.Layer, 0, len(sprites))
	for _, s := range sprites {
		placed, ok := atlas.Find(s.Name)
		if !ok {
			continue
		}
		out = append(out, sheet.Layer{Name: s.Name, Path: s.Path, Rect: placed.Rect})
	}
	return out
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
