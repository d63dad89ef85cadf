package export

import (
	"slices"
	"strings"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

// Sprite is a named rectangle on the sheet.
type Sprite struct {
	Name         string `json:"name" bson:"name"`
	packing.Rect `bson:",inline"`
}

// Atlas describes a packed sheet: its size and where every sprite lies.
type Atlas struct {
	Image   string   `json:"image,omitempty" bson:"image,omitempty"`
	Width   int      `json:"width" bson:"width"`
	Height  int      `json:"height" bson:"height"`
	Sprites []Sprite `json:"sprites" bson:"sprites"`
}

// NewAtlas builds an atlas from a packing result. Sprites are sorted by name.
func NewAtlas(image string, res *packing.Result) *Atlas {
	a := &Atlas{
		Image:   image,
		Width:   res.Width,
		Height:  res.Height,
		Sprites: make([]Sprite, 0, len(res.Placements)),
	}
	for name, r := range res.Placements {
		a.Sprites = append(a.Sprites, Sprite{Name: name, Rect: r})
	}
	a.sort()
	return a
}

func (a *Atlas) sort() {
	slices.SortFunc(a.Sprites, func(x, y Sprite) int { return strings.Compare(x.Name, y.Name) })
}

// Find returns the sprite called name.
func (a *Atlas) Find(name string) (Sprite, bool) {
	i, ok := slices.BinarySearchFunc(a.Sprites, name, func(s Sprite, n string) int {
		return strings.Compare(s.Name, n)
	})
	if !ok {
		return Sprite{}, false
	}
	return a.Sprites[i], true
}

// Occupancy returns the share of the sheet covered by sprites.
func (a *Atlas) Occupancy() float64 {
	if a.Width == 0 || a.Height == 0 {
		return 0
	}
	used := 0
	for _, s := range a.Sprites {
		used += s.Area()
	}
	return float64(used) / float64(a.Width*a.Height)
}

// PowerOfTwo reports whether both sides of the sheet are powers of two.
func (a *Atlas) PowerOfTwo() bool {
	return packing.IsPowerOfTwo(a.Width) && packing.IsPowerOfTwo(a.Height)
}

// Validate checks that sprite names are unique and usable as map keys and
// that every sprite lies on the sheet without overlapping another.
func (a *Atlas) Validate() error {
	if a.Width < 1 || a.Height < 1 {
		return errors.New(errors.ErrCodeInvalidFormat, "atlas size must be positive, got %dx%d", a.Width, a.Height)
	}
	for i, s := range a.Sprites {
		if err := errors.ValidateSpriteName(s.Name); err != nil {
			return err
		}
		if s.Width < 1 || s.Height < 1 || !s.Within(a.Width, a.Height) {
			return errors.New(errors.ErrCodeInvalidFormat, "sprite %q at %v is outside the %dx%d sheet", s.Name, s.Rect, a.Width, a.Height)
		}
		for _, o := range a.Sprites[i+1:] {
			if s.Name == o.Name {
				return errors.New(errors.ErrCodeInvalidFormat, "duplicate sprite %q", s.Name)
			}
			if s.Intersects(o.Rect) {
				return errors.New(errors.ErrCodeInvalidFormat, "sprites %q and %q overlap", s.Name, o.Name)
			}
		}
	}
	return nil
}

// fitBounds sets the atlas size to the bounding box of its sprites.
func (a *Atlas) fitBounds() {
	a.Width, a.Height = 0, 0
	for _, s := range a.Sprites {
		a.Width = max(a.Width, s.Right())
		a.Height = max(a.Height, s.Bottom())
	}
}

// String returns the sprite as a txt map line, "name = x y width height".
func (s Sprite) String() string {
	return s.Name + " = " + s.Rect.String()
}
