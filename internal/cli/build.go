package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sheetpack/pkg/config"
	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/export"
	"github.com/matzehuels/sheetpack/pkg/pipeline"
)

// defaultImage is written when neither --output nor the project file names
// an image.
const defaultImage = "atlas.png"

// buildFlags holds the command-line flags for the build command.
type buildFlags struct {
	image      string
	mapPath    string
	preview    string
	maxWidth   int
	maxHeight  int
	padding    int
	powerOfTwo bool
	square     bool
	workers    int
	noCache    bool
	refresh    bool
}

// buildCommand creates the build command for packing image files into a sheet.
func (c *CLI) buildCommand() *cobra.Command {
	var f buildFlags

	cmd := &cobra.Command{
		Use:   "build [files or directories...]",
		Short: "Pack images into a sprite sheet and write its map",
		Long: `Pack images into a sprite sheet and write its map.

Inputs are image files or directories (searched recursively). Without
arguments the inputs of the project file are used.

The image format follows the extension of --output (png, jpg, bmp, gif, tif)
and the map format follows --map (txt, xml, json). The map defaults to the
image path with a .txt extension.

Sprite sizes, layouts and encoded sheets are cached between runs.`,
		Example: `  sheetpack build sprites/ -o build/atlas.png
  sheetpack build a.png b.png --map atlas.xml --pow2 --square
  sheetpack build sprites/ --max-width 1024 --max-height 1024 --preview preview.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := buildOptions(cmd, cfg, args, f)
			return c.runBuild(cmd.Context(), cfg, opts, f.noCache)
		},
	}

	cmd.Flags().StringVarP(&f.image, "output", "o", "", "sheet image (default: "+defaultImage+")")
	cmd.Flags().StringVar(&f.mapPath, "map", "", "map file (default: <output>.txt)")
	cmd.Flags().StringVar(&f.preview, "preview", "", "also write a scaled-down PNG preview")
	cmd.Flags().IntVar(&f.maxWidth, "max-width", pipeline.DefaultMaxWidth, "maximum sheet width")
	cmd.Flags().IntVar(&f.maxHeight, "max-height", pipeline.DefaultMaxHeight, "maximum sheet height")
	cmd.Flags().IntVar(&f.padding, "padding", pipeline.DefaultPadding, "gap between sprites in pixels")
	cmd.Flags().BoolVar(&f.powerOfTwo, "pow2", false, "round sheet sides up to powers of two")
	cmd.Flags().BoolVar(&f.square, "square", false, "make the sheet square")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "images measured in parallel (default: number of CPUs)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached layouts and sheets")

	return cmd
}

// buildOptions merges the project file with flags. Flags win only when set
// explicitly, so an unset --padding keeps the file's padding.
func buildOptions(cmd *cobra.Command, cfg *config.Config, args []string, f buildFlags) pipeline.Options {
	opts := pipeline.Options{
		Inputs:     cfg.Inputs,
		Image:      cfg.Image,
		Map:        cfg.Map,
		MaxWidth:   cfg.Constraints.MaxWidth,
		MaxHeight:  cfg.Constraints.MaxHeight,
		Padding:    cfg.Constraints.Padding,
		PowerOfTwo: cfg.Constraints.PowerOfTwo,
		Square:     cfg.Constraints.Square,
		Preview:    f.preview,
		Workers:    f.workers,
		Refresh:    f.refresh,
	}
	if len(args) > 0 {
		opts.Inputs = args
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		opts.Image = f.image
		if !flags.Changed("map") {
			opts.Map = ""
		}
	}
	if flags.Changed("map") {
		opts.Map = f.mapPath
	}
	if flags.Changed("max-width") {
		opts.MaxWidth = f.maxWidth
	}
	if flags.Changed("max-height") {
		opts.MaxHeight = f.maxHeight
	}
	if flags.Changed("padding") {
		opts.Padding = f.padding
	}
	if flags.Changed("pow2") {
		opts.PowerOfTwo = f.powerOfTwo
	}
	if flags.Changed("square") {
		opts.Square = f.square
	}
	if opts.Image == "" {
		opts.Image = defaultImage
	}
	return opts
}

// runBuild packs the inputs and writes every artifact.
func (c *CLI) runBuild(ctx context.Context, cfg *config.Config, opts pipeline.Options, noCache bool) error {
	if len(opts.Inputs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no inputs: pass files or directories, or set inputs in %s", config.FileName)
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)

	spinner := startSpinner(ctx, os.Stderr, "Packing sprites...")

	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.Fail("Build failed")
		return err
	}
	if ctx.Err() != nil {
		spinner.Stop()
		return ctx.Err()
	}

	spinner.SetMessage("Writing files...")
	paths := slices.Sorted(maps.Keys(res.Artifacts))
	for _, path := range paths {
		if err := export.WriteFile(path, res.Artifacts[path]); err != nil {
			spinner.Fail("Build failed")
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Wrote %d files", len(paths)))

	printSuccess("Sheet %dx%d", res.Stats.Width, res.Stats.Height)
	for _, path := range paths {
		printFile(path)
	}
	printBuildStats(res.Stats, res.CacheInfo)
	printNewline()
	mapPath := opts.Map
	if mapPath == "" {
		mapPath = export.PairedPath(opts.Image, pipeline.DefaultMapFormat)
	}
	printNextStep("Inspect", appName+" inspect "+mapPath)

	return nil
}
