package layout_test

import (
	"fmt"
	"image"

	"github.com/matzehuels/labelsheet/pkg/sheet/layout"
)

func ExampleEngine_Arrange() {
	cw, ch := layout.CellSize(300, 375, 300)
	eng, err := layout.New(layout.DefaultSheet(), cw, ch)
	if err != nil {
		panic(err)
	}

	labels := make([]*image.Gray, 70)
	for i := range labels {
		labels[i] = image.NewGray(image.Rect(0, 0, 300, 375))
	}

	doc, err := eng.Arrange(labels)
	if err != nil {
		panic(err)
	}
	for i, p := range doc.Pages {
		fmt.Printf("page %d: %d labels\n", i+1, len(p.Placements))
	}
	// Output:
	// page 1: 64 labels
	// page 2: 6 labels
}
