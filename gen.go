package tensorcheck

import (
	"reflect"

	"github.com/leanovate/gopter"
)

// emptyResultOf returns gopter's empty result for the value's type. Invalid
// generator configuration surfaces as an empty draw; Validate on the options
// reports the cause eagerly.
func emptyResultOf(v interface{}) *gopter.GenResult {
	return gopter.NewEmptyResult(reflect.TypeOf(v))
}

// drawFrom draws one value from a sub-generator.
func drawFrom(p *gopter.GenParameters, g gopter.Gen) (interface{}, bool) {
	return g(p).Retrieve()
}
