package packing

import "fmt"

// Point is a location on the canvas, measured from the top-left corner.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an axis-aligned rectangle on the canvas.
type Rect struct {
	X      int `json:"x" bson:"x"`
	Y      int `json:"y" bson:"y"`
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`
}

// Right returns the coordinate of the right edge (exclusive).
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the coordinate of the bottom edge (exclusive).
func (r Rect) Bottom() int { return r.Y + r.Height }

// Area returns Width * Height.
func (r Rect) Area() int { return r.Width * r.Height }

// Intersects reports whether r and o share any area. Rectangles that only
// touch along an edge do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return o.X < r.Right() &&
		r.X < o.Right() &&
		o.Y < r.Bottom() &&
		r.Y < o.Bottom()
}

// Within reports whether r lies entirely inside a canvas of the given size.
func (r Rect) Within(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= width && r.Bottom() <= height
}

// String returns the rectangle as "x y width height", the order used by map files.
func (r Rect) String() string {
	return fmt.Sprintf("%d %d %d %d", r.X, r.Y, r.Width, r.Height)
}

// Item is one rectangle to place. Width and Height are the raw sprite size;
// padding is added by [Optimize].
type Item struct {
	ID     string `json:"id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
