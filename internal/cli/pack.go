package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/export"
	"github.com/matzehuels/sheetpack/pkg/server"
)

// packFlags holds the command-line flags for the pack command.
type packFlags struct {
	output     string
	format     string
	maxWidth   int
	maxHeight  int
	padding    int
	powerOfTwo bool
	square     bool
	noCache    bool
}

// packCommand creates the pack command, which lays out sprite sizes without
// reading or writing any image.
func (c *CLI) packCommand() *cobra.Command {
	var f packFlags

	cmd := &cobra.Command{
		Use:   "pack [sizes.json]",
		Short: "Compute a layout for sprite sizes given as JSON",
		Long: `Compute a layout for sprite sizes given as JSON.

The input has the same shape as the body of POST /v1/pack:

  {"sprites": [{"name": "hero", "width": 32, "height": 48}], "padding": 1}

It is read from the given file, or from stdin when the argument is "-" or
missing. Flags override the constraints in the input. The map is written to
--output (format from its extension) or to stdout in --format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			req, err := readPackRequest(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			applyPackFlags(cmd, req, f)
			return c.runPack(cmd.Context(), req, f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "map file (default: stdout)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "txt", "map format for stdout: txt, xml, json")
	cmd.Flags().IntVar(&f.maxWidth, "max-width", 0, "maximum sheet width")
	cmd.Flags().IntVar(&f.maxHeight, "max-height", 0, "maximum sheet height")
	cmd.Flags().IntVar(&f.padding, "padding", 0, "gap between sprites in pixels")
	cmd.Flags().BoolVar(&f.powerOfTwo, "pow2", false, "round sheet sides up to powers of two")
	cmd.Flags().BoolVar(&f.square, "square", false, "make the sheet square")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")

	return cmd
}

// readPackRequest decodes a pack request from path, or from stdin for "-".
func readPackRequest(path string, stdin io.Reader) (*server.PackRequest, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "input not found: %s", path)
		}
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var req server.PackRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}
	return &req, nil
}

// applyPackFlags overrides request constraints with explicitly set flags.
func applyPackFlags(cmd *cobra.Command, req *server.PackRequest, f packFlags) {
	flags := cmd.Flags()
	if flags.Changed("max-width") {
		req.MaxWidth = f.maxWidth
	}
	if flags.Changed("max-height") {
		req.MaxHeight = f.maxHeight
	}
	if flags.Changed("padding") {
		padding := f.padding
		req.Padding = &padding
	}
	if flags.Changed("pow2") {
		req.PowerOfTwo = f.powerOfTwo
	}
	if flags.Changed("square") {
		req.Square = f.square
	}
}

// runPack lays out the request and writes the map.
func (c *CLI) runPack(ctx context.Context, req *server.PackRequest, f packFlags, out io.Writer) error {
	items, err := req.Items()
	if err != nil {
		return err
	}

	format := f.format
	if f.output != "" {
		format = export.Extension(f.output)
	}
	exp, err := export.MapExporterFor(format)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := req.Options()
	opts.Logger = c.Logger
	res, err := runner.Pack(ctx, items, opts)
	if err != nil {
		return err
	}
	atlas := export.NewAtlas(req.Image, res)

	if f.output == "" {
		return exp.Export(out, atlas)
	}
	if err := export.SaveMap(f.output, atlas); err != nil {
		return err
	}
	printSuccess("Layout %dx%d (%d trials)", res.Width, res.Height, res.Trials)
	printFile(f.output)
	return nil
}
