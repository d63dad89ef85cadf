// Package pipeline builds sprite sheets: collect → measure → pack → export.
//
// The same [Runner] backs the CLI and the HTTP server, so both share cache
// keys, defaults and logging.
//
// # Stages
//
//  1. Collect: expand input files and directories into image paths
//  2. Measure: read every image's size (cached per file version)
//  3. Pack: sort sprites and search for a small sheet (cached per input set)
//  4. Export: compose the sheet, encode it and its map (image cached)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Inputs:    []string{"sprites/"},
//	    Image:     "build/atlas.png",
//	    MaxWidth:  2048,
//	    MaxHeight: 2048,
//	    Padding:   1,
//	})
//	for path, data := range result.Artifacts {
//	    _ = export.WriteFile(path, data)
//	}
//
// Stages can also run alone; the server only needs [Runner.Pack].
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/sheetpack/pkg/cache"
	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/export"
	"github.com/matzehuels/sheetpack/pkg/packing"
	"github.com/matzehuels/sheetpack/pkg/sprite"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultMaxWidth is the default maximum sheet width in pixels.
	DefaultMaxWidth = 4096

	// DefaultMaxHeight is the default maximum sheet height in pixels.
	DefaultMaxHeight = 4096

	// DefaultPadding is the default gap between sprites in pixels.
	DefaultPadding = 1

	// DefaultMapFormat is used when no map path is given.
	DefaultMapFormat = "txt"

	// PreviewSize bounds both sides of a preview image.
	PreviewSize = 512
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a build. Zero sizes take the defaults above; Padding
// has no default here because zero is a valid gap, so callers start from
// [DefaultPadding] themselves.
type Options struct {
	// Collect options
	Inputs []string `json:"inputs"`

	// Measure options
	Workers int `json:"workers,omitempty"` // 0 means GOMAXPROCS

	// Pack options
	MaxWidth   int  `json:"max_width,omitempty"`
	MaxHeight  int  `json:"max_height,omitempty"`
	Padding    int  `json:"padding"`
	PowerOfTwo bool `json:"power_of_two,omitempty"`
	Square     bool `json:"square,omitempty"`

	// Export options
	Image   string `json:"image"`
	Map     string `json:"map,omitempty"`     // defaults to Image with a .txt extension
	Preview string `json:"preview,omitempty"` // optional scaled-down PNG

	// Refresh bypasses cached layouts and images.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a build.
type Result struct {
	// Sprites are the measured inputs in collection order.
	Sprites []sprite.Sprite

	// Layout is the packing result.
	Layout *packing.Result

	// Atlas is the map written next to the image.
	Atlas *export.Atlas

	// Artifacts maps output paths (image, map, preview) to file contents.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains build statistics.
type Stats struct {
	Sprites     int
	Trials      int
	Width       int
	Height      int
	Occupancy   float64
	CollectTime time.Duration
	MeasureTime time.Duration
	PackTime    time.Duration
	ExportTime  time.Duration
}

// Total returns the summed stage durations.
func (s Stats) Total() time.Duration {
	return s.CollectTime + s.MeasureTime + s.PackTime + s.ExportTime
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	MeasureHits int  // sprites whose size came from cache
	LayoutHit   bool // whether the layout came from cache
	ImageHit    bool // whether the encoded sheet came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every stage's options and fills defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCollect(); err != nil {
		return err
	}
	if err := o.ValidateForPack(); err != nil {
		return err
	}
	if err := o.ValidateForExport(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForCollect checks that there is something to pack.
func (o *Options) ValidateForCollect() error {
	if len(o.Inputs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one input file or directory is required")
	}
	o.setLogger()
	return nil
}

// SetPackDefaults fills the maximum sheet size.
func (o *Options) SetPackDefaults() {
	if o.MaxWidth == 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight == 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	o.setLogger()
}

// ValidateForPack sets pack defaults and validates the constraints.
func (o *Options) ValidateForPack() error {
	o.SetPackDefaults()
	return o.Constraints().Validate()
}

// SetExportDefaults derives the map path from the image path.
func (o *Options) SetExportDefaults() {
	if o.Map == "" && o.Image != "" {
		o.Map = export.PairedPath(o.Image, DefaultMapFormat)
	}
	o.setLogger()
}

// ValidateForExport checks output paths and their formats.
func (o *Options) ValidateForExport() error {
	o.SetExportDefaults()
	if o.Image == "" {
		return errors.New(errors.ErrCodeInvalidInput, "an output image path is required")
	}
	if err := errors.ValidatePath(o.Image); err != nil {
		return err
	}
	if _, err := export.ImageExporterFor(export.Extension(o.Image)); err != nil {
		return err
	}
	if err := errors.ValidatePath(o.Map); err != nil {
		return err
	}
	if _, err := export.MapExporterFor(export.Extension(o.Map)); err != nil {
		return err
	}
	if o.Preview != "" && export.Extension(o.Preview) != "png" {
		return errors.New(errors.ErrCodeUnsupported, "preview must be a .png file")
	}
	return nil
}

// Constraints returns the packing constraints.
func (o *Options) Constraints() packing.Constraints {
	return packing.Constraints{
		MaxWidth:   o.MaxWidth,
		MaxHeight:  o.MaxHeight,
		Padding:    o.Padding,
		PowerOfTwo: o.PowerOfTwo,
		Square:     o.Square,
	}
}

// LayoutKeyOpts returns cache key options for packing.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		MaxWidth:   o.MaxWidth,
		MaxHeight:  o.MaxHeight,
		Padding:    o.Padding,
		PowerOfTwo: o.PowerOfTwo,
		Square:     o.Square,
	}
}

// ArtifactKeyOpts returns cache key options for an encoded file.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format}
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
