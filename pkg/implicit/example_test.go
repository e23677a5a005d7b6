package implicit_test

import (
	"fmt"

	"github.com/loci-dev/loci/pkg/implicit"
)

func ExampleParse() {
	circle, _ := implicit.Parse("x^2 + y^2 - 4")
	fmt.Println(circle.Eval(2, 0))
	fmt.Println(circle.Degree())
	// Output:
	// 0
	// 2
}

func ExampleTrace() {
	circle, _ := implicit.Parse("x^2 + y^2 - 4")
	box := implicit.BoundingBox{MinX: -3, MinY: -3, MaxX: 3, MaxY: 3}
	curve := implicit.Trace(circle, box, implicit.Options{})
	fmt.Println(len(curve.Branches) > 0, curve.Points() > 100)
	// Output:
	// true true
}
