package construction_test

import (
	"fmt"

	"github.com/loci-dev/loci/pkg/construction"
)

func Example() {
	c := construction.New()
	a := c.AddFreePoint(0, 0)
	b := c.AddFreePoint(4, 0)
	m, _ := c.AddElement(construction.KindMidpoint, a, b)

	mid, _ := c.Element(m)
	fmt.Printf("(%g, %g)\n", mid.Pos().X, mid.Pos().Y)

	// Dragging a free point propagates through every dependent.
	c.Move(a, 2, 2)
	fmt.Printf("(%g, %g)\n", mid.Pos().X, mid.Pos().Y)
	// Output:
	// (2, 0)
	// (3, 1)
}

func ExampleConstruction_System() {
	c := construction.New()
	a := c.AddFreePoint(0, 0)
	b := c.AddFreePoint(4, 0)
	m, _ := c.AddElement(construction.KindMidpoint, a, b)

	sys, _ := c.System(m)
	fmt.Println(len(sys.Polynomials), sys.Keep)
	// Output:
	// 4 [x y]
}
