package packing

import (
	"github.com/matzehuels/sheetpack/pkg/errors"
)

// Constraints bound the sheet produced by [Optimize].
type Constraints struct {
	MaxWidth   int  `json:"max_width" toml:"max_width"`
	MaxHeight  int  `json:"max_height" toml:"max_height"`
	Padding    int  `json:"padding" toml:"padding"`
	PowerOfTwo bool `json:"power_of_two,omitempty" toml:"power_of_two"`
	Square     bool `json:"square,omitempty" toml:"square"`
}

// Validate checks the bounds and padding.
func (c Constraints) Validate() error {
	if c.MaxWidth < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "maximum width must be greater than 0, got %d", c.MaxWidth)
	}
	if c.MaxHeight < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "maximum height must be greater than 0, got %d", c.MaxHeight)
	}
	if c.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "padding must not be negative, got %d", c.Padding)
	}
	return nil
}

// normalize applies power-of-two rounding, then square normalization.
func (c Constraints) normalize(width, height int) (int, int) {
	if c.PowerOfTwo {
		width = NextPowerOfTwo(width)
		height = NextPowerOfTwo(height)
	}
	if c.Square {
		side := max(width, height)
		width, height = side, side
	}
	return width, height
}

// ValidateItems checks that items is non-empty, that every size is positive
// and that ids are unique.
func ValidateItems(items []Item) error {
	if len(items) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no sprites to pack")
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Width <= 0 || it.Height <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "sprite %q has invalid size %dx%d", it.ID, it.Width, it.Height)
		}
		if _, dup := seen[it.ID]; dup {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate sprite id %q", it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}

// Result is a packed sheet.
type Result struct {
	// Width and Height are the sheet size after rounding and squaring.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Placements maps each item id to its rectangle, without padding.
	Placements map[string]Rect `json:"placements"`

	// Trials is the number of canvas sizes evaluated.
	Trials int `json:"trials"`
}

// Occupancy returns the share of the sheet covered by sprites, in [0, 1].
func (r *Result) Occupancy() float64 {
	if r.Width == 0 || r.Height == 0 {
		return 0
	}
	used := 0
	for _, rect := range r.Placements {
		used += rect.Area()
	}
	return float64(used) / float64(r.Width*r.Height)
}

// Trial describes one evaluated canvas size.
type Trial struct {
	Index  int // 1-based
	Width  int // canvas the packer was given
	Height int

	// Packed is false when an item did not fit or the normalized size left
	// the maximum bounds.
	Packed bool

	// ResultWidth and ResultHeight are the tight, normalized size; zero
	// unless every item was placed.
	ResultWidth  int
	ResultHeight int
}

// Option configures [Optimize].
type Option func(*optimizer)

// WithTrialObserver registers fn to be called after every trial.
func WithTrialObserver(fn func(Trial)) Option {
	return func(o *optimizer) { o.observe = fn }
}

type optimizer struct {
	observe func(Trial)
}

// Optimize searches for a small sheet holding every item.
//
// Items must already be sorted (see [SortItems]); Optimize packs them in the
// given order. The first trial uses the maximum bounds. After each successful
// trial the tight bounding box is normalized (power of two, then square) and
// compared with the previous result: equal sizes end the search. Otherwise
// the next trial shrinks the normalized size by the last item's dimensions.
// A failing trial ends the search with the last successful result, or with
// an INSUFFICIENT_SPACE error when no trial succeeded.
func Optimize(items []Item, c Constraints, opts ...Option) (*Result, error) {
	var o optimizer
	for _, opt := range opts {
		opt(&o)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	smallest := items[len(items)-1]
	trialW, trialH := c.MaxWidth, c.MaxHeight
	prevW, prevH := c.MaxWidth, c.MaxHeight

	var best *Result
	for n := 1; ; n++ {
		trial := Trial{Index: n, Width: trialW, Height: trialH}

		placements, ok := packTrial(items, trialW, trialH, c.Padding)
		var w, h int
		var rounded bool
		if ok {
			w, h = c.normalize(tightBounds(placements))
			rounded = w > c.MaxWidth || h > c.MaxHeight
			ok = !rounded
		}
		if ok {
			trial.Packed = true
			trial.ResultWidth, trial.ResultHeight = w, h
		}
		if o.observe != nil {
			o.observe(trial)
		}

		if !ok {
			if best == nil && rounded {
				return nil, errors.New(errors.ErrCodeInsufficientSpace,
					"%d sprites fit in a %dx%d sheet but exceed it after rounding to %dx%d",
					len(items), c.MaxWidth, c.MaxHeight, w, h)
			}
			if best == nil {
				return nil, errors.New(errors.ErrCodeInsufficientSpace,
					"%d sprites do not fit in a %dx%d sheet", len(items), c.MaxWidth, c.MaxHeight)
			}
			best.Trials = n
			return best, nil
		}

		res := &Result{Width: w, Height: h, Placements: placements, Trials: n}
		if w == prevW && h == prevH {
			return res, nil
		}

		best = res
		prevW, prevH = w, h
		trialW = w - smallest.Width
		trialH = h - smallest.Height
	}
}

// packTrial packs items, padded, into a fresh width x height packer.
// Returned rectangles exclude padding.
func packTrial(items []Item, width, height, padding int) (map[string]Rect, bool) {
	if width < 1 || height < 1 {
		return nil, false
	}

	p := NewPacker(width, height)
	placements := make(map[string]Rect, len(items))
	for _, it := range items {
		pt, ok := p.TryPack(it.Width+padding, it.Height+padding)
		if !ok {
			return nil, false
		}
		placements[it.ID] = Rect{X: pt.X, Y: pt.Y, Width: it.Width, Height: it.Height}
	}
	return placements, true
}

// tightBounds returns the smallest canvas holding every placement. Each
// padded cell extends padding pixels past its sprite, so subtracting the
// trailing padding from the padded extent equals the unpadded extent.
func tightBounds(placements map[string]Rect) (int, int) {
	var width, height int
	for _, r := range placements {
		width = max(width, r.Right())
		height = max(height, r.Bottom())
	}
	return width, height
}
