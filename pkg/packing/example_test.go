package packing_test

import (
	"fmt"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

func ExampleOptimize() {
	items := []packing.Item{
		{ID: "coin", Width: 16, Height: 16},
		{ID: "hero", Width: 32, Height: 48},
	}
	packing.SortItems(items)

	res, err := packing.Optimize(items, packing.Constraints{
		MaxWidth:  256,
		MaxHeight: 256,
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("sheet %dx%d\n", res.Width, res.Height)
	fmt.Println("hero", res.Placements["hero"])
	fmt.Println("coin", res.Placements["coin"])
	// Output:
	// sheet 48x48
	// hero 0 0 32 48
	// coin 32 0 16 16
}

func ExampleOptimize_insufficientSpace() {
	items := []packing.Item{{ID: "banner", Width: 300, Height: 10}}

	_, err := packing.Optimize(items, packing.Constraints{MaxWidth: 256, MaxHeight: 256})
	fmt.Println(errors.GetCode(err))
	// Output:
	// INSUFFICIENT_SPACE
}

func ExampleNextPowerOfTwo() {
	fmt.Println(packing.NextPowerOfTwo(0), packing.NextPowerOfTwo(5), packing.NextPowerOfTwo(64))
	// Output:
	// 0 8 64
}

func ExamplePacker() {
	p := packing.NewPacker(64, 64)
	a, _ := p.TryPack(32, 32)
	b, _ := p.TryPack(16, 16)
	_, ok := p.TryPack(128, 1)
	fmt.Println(a, b, ok)
	// Output:
	// {0 0} {32 0} false
}
