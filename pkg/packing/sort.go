package packing

import (
	"cmp"
	"slices"
)

// CompareItems orders items largest first: descending width, then descending
// height. It returns 0 for items of identical size.
func CompareItems(a, b Item) int {
	if c := cmp.Compare(b.Width, a.Width); c != 0 {
		return c
	}
	return cmp.Compare(b.Height, a.Height)
}

// SortItems sorts items in the order [Optimize] expects. The sort is stable,
// so items of identical size keep their input order and repeated builds of the
// same input produce the same sheet.
func SortItems(items []Item) {
	slices.SortStableFunc(items, CompareItems)
}
