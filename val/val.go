// Package val validates input structs and reports failures as errx validation errors.
package val

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(tagName)
	return v
}

// tagName reports a field by its json or yaml name, falling back to the Go name.
func tagName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "yaml"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0] //nolint:mnd // name + options
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}
