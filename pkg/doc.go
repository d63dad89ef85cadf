// Package pkg provides the libraries behind sheetpack, a sprite sheet packer.
//
// # Overview
//
// Sheetpack places many small images on one sheet and records where each one
// went. A sheet build flows through these packages:
//
//	image files and directories
//	         ↓
//	    [sprite] (collect paths, measure image sizes)
//	         ↓
//	    [packing] (sort, search for the smallest sheet)
//	         ↓
//	    [sheet] (compose sprites onto the sheet)
//	         ↓
//	    [export] (encode the image and its txt/xml/json map)
//
// [pipeline] runs these stages with caching and is shared by the CLI and the
// HTTP server.
//
// # Quick Start
//
// Pack sizes without touching any image:
//
//	items := []packing.Item{
//	    {ID: "hero", Width: 32, Height: 48},
//	    {ID: "coin", Width: 16, Height: 16},
//	}
//	packing.SortItems(items)
//	res, err := packing.Optimize(items, packing.Constraints{
//	    MaxWidth: 1024, MaxHeight: 1024, Padding: 1, PowerOfTwo: true,
//	})
//
// Build a sheet from files:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Inputs: []string{"sprites/"},
//	    Image:  "build/atlas.png",
//	})
//
// # Main Packages
//
// ## Packing
//
// [packing] - Binary-tree rectangle packer, the shrinking sheet size search
// and power-of-two rounding. No I/O.
//
// ## Images and Maps
//
// [sprite] - Input discovery and parallel size measurement from image headers.
//
// [sheet] - Composition of sprite images onto a transparent sheet, and
// scaled previews.
//
// [export] - Image encoders, map formats and the [export.Atlas] document.
//
// ## Infrastructure
//
// [pipeline] - Collect → measure → pack → export with per-stage cache info.
//
// [cache] - Cache interface with file, Redis and null backends, key builders
// and retry helpers.
//
// [storage] - Atlas records for the server, in memory or in MongoDB.
//
// [server] - HTTP API over [pipeline.Runner] and [storage.Store].
//
// [config] - The sheetpack.toml project file.
//
// [observability] - Hooks for pipeline, cache and server events.
//
// [errors] - Coded errors and input validation.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/packing/...            # Specific package
//	go test -run Example ./pkg/packing   # Examples only
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
package pkg
