// Package packing places rectangles on a single sprite sheet.
//
// The package has two layers:
//
//   - [Packer] owns a binary free-space tree for one canvas of fixed size and
//     places rectangles first-fit, depth first, never releasing space.
//   - [Optimize] runs a fresh [Packer] per trial size, shrinking (and
//     optionally rounding) the canvas until two consecutive trials agree or a
//     trial no longer fits.
//
// Nothing in this package performs I/O or keeps package-level state, so
// independent Optimize calls may run concurrently.
//
// # Usage
//
//	items := []packing.Item{
//	    {ID: "hero", Width: 32, Height: 48},
//	    {ID: "coin", Width: 16, Height: 16},
//	}
//	packing.SortItems(items)
//
//	res, err := packing.Optimize(items, packing.Constraints{
//	    MaxWidth:   1024,
//	    MaxHeight:  1024,
//	    Padding:    1,
//	    PowerOfTwo: true,
//	})
//	if errors.Is(err, errors.ErrCodeInsufficientSpace) {
//	    // sprites do not fit the maximum sheet
//	}
//
// The result is a heuristic, not a minimum-area solution.
package packing
