package packing

// nodeState tracks what a node of the free-space tree currently represents.
type nodeState uint8

const (
	stateFree  nodeState = iota // unallocated leaf, a placement candidate
	stateUsed                   // leaf filled exactly by one rectangle
	stateSplit                  // interior node; area handed to its children
)

// noChild marks an absent child (a split that produced a zero-area remainder).
const noChild = -1

// node is one entry of the packer's arena. Children are arena indices.
type node struct {
	rect     Rect
	state    nodeState
	children [2]int
}

// Packer places rectangles into one canvas of fixed size using a binary
// free-space tree. Every placement consumes the first free leaf (depth first,
// right remainder before bottom remainder) that can hold it; space is never
// released.
//
// A Packer is cheap to build and must not be reused across canvas sizes:
// [Optimize] creates one per trial. It is not safe for concurrent use.
type Packer struct {
	width  int
	height int
	nodes  []node
	stack  []int
}

// NewPacker returns a packer whose single free leaf covers a width x height
// canvas. It panics if either dimension is less than 1.
func NewPacker(width, height int) *Packer {
	if width < 1 || height < 1 {
		panic("packing: canvas width and height must be greater than 0")
	}
	p := &Packer{width: width, height: height}
	p.nodes = append(p.nodes, node{
		rect:     Rect{Width: width, Height: height},
		state:    stateFree,
		children: [2]int{noChild, noChild},
	})
	return p
}

// Width returns the canvas width.
func (p *Packer) Width() int { return p.width }

// Height returns the canvas height.
func (p *Packer) Height() int { return p.height }

// TryPack places a width x height rectangle and returns its top-left corner.
// It returns false when either dimension is not positive or when no free
// leaf is large enough; the tree is left untouched in that case.
func (p *Packer) TryPack(width, height int) (Point, bool) {
	if width <= 0 || height <= 0 {
		return Point{}, false
	}

	idx := p.findLeaf(width, height)
	if idx == noChild {
		return Point{}, false
	}

	leaf := p.nodes[idx].rect
	if leaf.Width == width && leaf.Height == height {
		p.nodes[idx].state = stateUsed
		return Point{X: leaf.X, Y: leaf.Y}, true
	}

	right := Rect{
		X:      leaf.X + width,
		Y:      leaf.Y,
		Width:  leaf.Width - width,
		Height: height,
	}
	bottom := Rect{
		X:      leaf.X,
		Y:      leaf.Y + height,
		Width:  leaf.Width,
		Height: leaf.Height - height,
	}

	// Append before taking a pointer into the arena: append may reallocate.
	children := [2]int{p.addLeaf(right), p.addLeaf(bottom)}
	p.nodes[idx].state = stateSplit
	p.nodes[idx].children = children

	return Point{X: leaf.X, Y: leaf.Y}, true
}

// Free returns the free leaves in search order.
func (p *Packer) Free() []Rect {
	var free []Rect
	p.walk(func(i int) bool {
		if p.nodes[i].state == stateFree {
			free = append(free, p.nodes[i].rect)
		}
		return false
	})
	return free
}

// addLeaf appends a free leaf for r and returns its index, or noChild when r
// has no area.
func (p *Packer) addLeaf(r Rect) int {
	if r.Width <= 0 || r.Height <= 0 {
		return noChild
	}
	p.nodes = append(p.nodes, node{
		rect:     r,
		state:    stateFree,
		children: [2]int{noChild, noChild},
	})
	return len(p.nodes) - 1
}

// findLeaf returns the first free leaf, in depth-first order, that can hold
// a width x height rectangle.
func (p *Packer) findLeaf(width, height int) int {
	found := noChild
	p.walk(func(i int) bool {
		n := &p.nodes[i]
		if n.state == stateFree && n.rect.Width >= width && n.rect.Height >= height {
			found = i
			return true
		}
		return false
	})
	return found
}

// walk visits nodes depth first, first child before second, until visit
// returns true.
func (p *Packer) walk(visit func(i int) bool) {
	p.stack = append(p.stack[:0], 0)
	for len(p.stack) > 0 {
		i := p.stack[len(p.stack)-1]
		p.stack = p.stack[:len(p.stack)-1]

		if visit(i) {
			return
		}

		n := &p.nodes[i]
		if n.state != stateSplit {
			continue
		}
		if c := n.children[1]; c != noChild {
			p.stack = append(p.stack, c)
		}
		if c := n.children[0]; c != noChild {
			p.stack = append(p.stack, c)
		}
	}
}
