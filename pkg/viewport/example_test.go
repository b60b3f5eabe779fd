package viewport_test

import (
	"fmt"

	"github.com/matzehuels/mapstyle/pkg/viewport"
)

func ExampleParse() {
	loc, err := viewport.Parse("#15/51.508/-0.105")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(loc.Zoom, loc.Lat, loc.Lng)
	// Output: 15 51.508 -0.105
}

func ExampleResolve() {
	loc := viewport.Resolve("not-a-hash", "")
	fmt.Println(loc.Hash())
	// Output: #15/40.7053/-74.0098
}
