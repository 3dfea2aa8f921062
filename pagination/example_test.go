package pagination_test

import (
	"fmt"

	"github.com/ILGurin/spp-course-work/pagination"
)

func Example() {
	params := pagination.Params{Limit: 500, Offset: -3}
	params.Normalize(pagination.DefaultConfig())
	fmt.Println(params.String())

	names := []string{"a.txt", "b.txt", "c.txt"}
	page := pagination.Slice(names, pagination.Params{Limit: 2, Offset: 1})
	fmt.Println(page.Items, page.String(), page.HasNext())

	// Output:
	// limit=20 offset=0
	// [b.txt c.txt] 2 item(s) at offset 1 of 3 (limit 2) false
}
